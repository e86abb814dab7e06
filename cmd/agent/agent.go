package main

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/jpo-robotics/brain-agent/core"
	"github.com/jpo-robotics/brain-agent/internal/commands"
	"github.com/jpo-robotics/brain-agent/internal/config"
	"github.com/jpo-robotics/brain-agent/internal/devconn"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mdlayher/vsock"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Agent struct {
	cfg *config.Config
	srv *core.Server
}

func NewAgent(cfg *config.Config) (*Agent, error) {
	srv, err := core.NewServer(osfs.New(cfg.DeviceRoot), &core.AgentFeatures{
		DeviceRoot: cfg.DeviceRoot,
		SerialPort: cfg.SerialPort,
		LegacyMode: cfg.Legacy,
		VsockPort:  cfg.VsockPort,
		TCPAddr:    cfg.TCPAddr,
	})
	if err != nil {
		return nil, err
	}

	return &Agent{cfg: cfg, srv: srv}, nil
}

// ListenAndServe opens the configured transports and serves
// the host sessions until ctx is done or a host requests
// a graceful shutdown.
func (a *Agent) ListenAndServe(ctx context.Context) error {
	var listeners []net.Listener

	// A main virtio listener
	l, err := a.listenMain()
	if err != nil {
		return err
	}

	listeners = append(listeners, l)

	// Additional TCP listener for development
	if len(a.cfg.TCPAddr) != 0 {
		l, err := net.Listen("tcp", a.cfg.TCPAddr)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}

			return err
		}

		listeners = append(listeners, l)
	}

	return a.Serve(ctx, listeners...)
}

func (a *Agent) listenMain() (net.Listener, error) {
	if !a.cfg.Legacy && !vsockAvailable() {
		if err := LoadVSockModule(); err != nil {
			log.Debugf("%s", err)
		}
	}

	if a.cfg.Legacy || !vsockAvailable() {
		log.Info("Using legacy mode via serial port")

		return devconn.ListenDevice(a.cfg.SerialPort)
	}

	log.Info("Using Linux VM sockets (AF_VSOCK) as a transport")

	return vsock.Listen(a.cfg.VsockPort, nil)
}

func vsockAvailable() bool {
	_, err := os.Stat("/dev/vsock")

	return err == nil
}

// Serve runs an accept loop for every listener. The listeners
// are closed when ctx is done.
func (a *Agent) Serve(ctx context.Context, listeners ...net.Listener) error {
	if len(listeners) == 0 {
		return errors.New("no listeners to serve")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.srv.OnShutdown(cancel)

	group, ctx := errgroup.WithContext(ctx)

	for _, l := range listeners {
		listener := l

		group.Go(func() error {
			return a.serveListener(ctx, listener)
		})
	}

	// Graceful shutdown
	group.Go(func() error {
		<-ctx.Done()

		for _, l := range listeners {
			l.Close()
		}

		return nil
	})

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnf("Could not notify systemd: %s", err)
	} else if ok {
		log.Debug("Readiness reported to systemd")
	}

	return group.Wait()
}

func (a *Agent) serveListener(ctx context.Context, l net.Listener) error {
	laddr := l.Addr().String()

	log.WithField("addr", laddr).Info("Accepting host connections")

	var wg sync.WaitGroup

	defer wg.Wait()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.WithField("addr", laddr).Info("Listener stopped")

				return nil
			}

			return err
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			a.serveConn(ctx, conn)
		}()
	}
}

func (a *Agent) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Unblock the pending read but let the last response go out
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	logger := log.WithField("remote", conn.RemoteAddr().String())

	logger.Debug("Session started")

	if err := commands.NewSession(a.srv, conn).Serve(ctx, conn); err != nil && ctx.Err() == nil {
		logger.Warnf("Session failed: %s", err)

		return
	}

	logger.Debug("Session finished")
}
