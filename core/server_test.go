package core

import (
	"context"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faultyFS wraps a filesystem and fails selected calls.
// Keys are the absolute paths passed down by the Server.
type faultyFS struct {
	billy.Filesystem

	statErrors    map[string]error
	readDirErrors map[string]error

	mkdirCalls []string
}

func newFaultyFS(fs billy.Filesystem) *faultyFS {
	return &faultyFS{
		Filesystem:    fs,
		statErrors:    make(map[string]error),
		readDirErrors: make(map[string]error),
	}
}

func (f *faultyFS) Stat(p string) (os.FileInfo, error) {
	if err, ok := f.statErrors[p]; ok {
		return nil, err
	}

	return f.Filesystem.Stat(p)
}

func (f *faultyFS) ReadDir(p string) ([]os.FileInfo, error) {
	if err, ok := f.readDirErrors[p]; ok {
		return nil, err
	}

	return f.Filesystem.ReadDir(p)
}

func (f *faultyFS) MkdirAll(p string, perm os.FileMode) error {
	f.mkdirCalls = append(f.mkdirCalls, p)

	return f.Filesystem.MkdirAll(p, perm)
}

func newMemServer(t *testing.T, files map[string]string) (*Server, billy.Filesystem) {
	t.Helper()

	fs := memfs.New()

	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}

	srv, err := NewServer(fs, nil)
	require.NoError(t, err)

	return srv, fs
}

func newOSServer(t *testing.T) (*Server, string) {
	t.Helper()

	root := t.TempDir()

	srv, err := NewServer(osfs.New(root), &AgentFeatures{DeviceRoot: root})
	require.NoError(t, err)

	return srv, root
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, nil)
	require.Error(t, err)

	srv, _ := newMemServer(t, nil)

	assert.NotEmpty(t, srv.SessionID)
	assert.Equal(t, "/", srv.Getcwd())

	info := srv.GetAgentInfo(context.Background())
	assert.Equal(t, AgentVersion, info.Version)
	assert.Equal(t, srv.SessionID, info.SessionID)
	assert.Zero(t, info.OpenHandles)
}

func TestGracefulShutdown(t *testing.T) {
	srv, _ := newMemServer(t, nil)

	require.Error(t, srv.GracefulShutdown(context.Background()))

	done := make(chan struct{})
	srv.OnShutdown(func() { close(done) })

	require.NoError(t, srv.GracefulShutdown(context.Background()))

	<-done
}
