package core

import (
	"context"
	"errors"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Server performs the file management operations against the device
// filesystem. All paths it receives are relative to the root of fs.
type Server struct {
	SessionID string

	fs billy.Filesystem

	mu  sync.Mutex
	cwd string

	handles *handleStore

	shutdown func()

	features *AgentFeatures
}

func NewServer(fs billy.Filesystem, features *AgentFeatures) (*Server, error) {
	if fs == nil {
		return nil, errors.New("device filesystem is undefined")
	}

	if features == nil {
		features = new(AgentFeatures)
	}

	srv := Server{
		SessionID: uuid.New().String(),
		fs:        fs,
		cwd:       "/",
		handles:   newHandleStore(),
		features:  features,
	}

	return &srv, nil
}

// OnShutdown registers the function that stops the agent
// when a host requests a graceful shutdown.
func (s *Server) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shutdown = fn
}

func (s *Server) GracefulShutdown(_ context.Context) error {
	s.mu.Lock()
	fn := s.shutdown
	s.mu.Unlock()

	if fn == nil {
		return errors.New("shutdown is not supported by this agent")
	}

	log.Info("A graceful shutdown requested by host")

	go fn()

	return nil
}

type AgentInfo struct {
	SessionID   string         `json:"session_id"`
	Version     string         `json:"version"`
	Features    *AgentFeatures `json:"features"`
	OpenHandles int            `json:"open_handles"`
}

type AgentFeatures struct {
	DeviceRoot string `json:"device_root"`
	SerialPort string `json:"serial_port,omitempty"`
	LegacyMode bool   `json:"legacy_mode"`
	VsockPort  uint32 `json:"vsock_port,omitempty"`
	TCPAddr    string `json:"tcp_addr,omitempty"`
}

func (s *Server) GetAgentInfo(_ context.Context) *AgentInfo {
	return &AgentInfo{
		SessionID:   s.SessionID,
		Version:     AgentVersion,
		Features:    s.features,
		OpenHandles: s.handles.Len(),
	}
}
