package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpo-robotics/brain-agent/core"
	"github.com/jpo-robotics/brain-agent/internal/commands"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deviceFiles = map[string]string{
	"/boot.py":         "import machine",
	"/lib/motor.py":    "speed = 0",
	"/lib/sensors.py":  "",
	"/lib/.hidden":     "x",
	"/data/calib.json": "{}",
}

func newTestClient(t *testing.T) (*Client, billy.Filesystem) {
	t.Helper()

	fsys := memfs.New()

	for name, content := range deviceFiles {
		require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
	}

	srv, err := core.NewServer(fsys, nil)
	require.NoError(t, err)

	agentConn, hostConn := net.Pipe()

	go func() {
		defer agentConn.Close()

		commands.NewSession(srv, agentConn).Serve(context.Background(), agentConn)
	}()

	c := New(hostConn)

	t.Cleanup(func() { c.Close() })

	return c, fsys
}

func TestClientQueries(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	version, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.AgentVersion, version)

	info, err := c.AgentInfo(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, info.SessionID)
	assert.Zero(t, info.OpenHandles)

	entries, err := c.ListDir(ctx, "/lib", false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(9), entries["motor.py"].Stat.Size)

	entries, err = c.ListDir(ctx, "/nope", false)
	require.NoError(t, err)
	assert.Nil(t, entries)

	all, err := c.ListAll(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/boot.py",
		"/data",
		"/data/calib.json",
		"/lib",
		"/lib/.hidden",
		"/lib/motor.py",
		"/lib/sensors.py",
	}, all)

	digests, err := c.FileSHA1s(ctx, []string{"/lib/sensors.py", "/missing.py"})
	require.NoError(t, err)
	require.Len(t, digests, 2)
	require.NotNil(t, digests[0])
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", *digests[0])
	assert.Nil(t, digests[1])

	sizes, err := c.FileSizes(ctx, []string{"/missing.py", "/boot.py"})
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	assert.Nil(t, sizes[0])
	assert.Equal(t, int64(14), *sizes[1])

	isDir, err := c.IsDir(ctx, "/data")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestClientRemoteErrors(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.IsDir(ctx, "/missing")

	var remoteErr *RemoteError

	require.ErrorAs(t, err, &remoteErr)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	err = c.Call(ctx, "format-flash", nil, nil)
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, -1, remoteErr.Code)
	assert.Equal(t, "unknown command: format-flash", err.Error())
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	// the connection is still usable
	_, err = c.Ping(ctx)
	require.NoError(t, err)
}

func TestClientTreeOperations(t *testing.T) {
	c, fsys := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Mkdirs(ctx, "/lib/drivers/i2c"))

	isDir, err := c.IsDir(ctx, "/lib/drivers/i2c")
	require.NoError(t, err)
	assert.True(t, isDir)

	require.NoError(t, c.DelTree(ctx, "/", []string{"boot.py"}, []string{"lib/*.py"}))

	all, err := c.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/boot.py", "/lib", "/lib/motor.py", "/lib/sensors.py"}, all)

	_, err = fsys.Stat("/lib/.hidden")
	assert.True(t, os.IsNotExist(err), err)
}

func TestClientTransfer(t *testing.T) {
	c, fsys := newTestClient(t)
	ctx := context.Background()

	for _, size := range []int{0, 100, 2 * chunkSize, 3*chunkSize + 17} {
		content := bytes.Repeat([]byte{'m'}, size)

		require.NoError(t, c.Upload(ctx, bytes.NewReader(content), "/upload.bin"))

		data, err := util.ReadFile(fsys, "/upload.bin")
		require.NoError(t, err)
		assert.Equal(t, string(content), string(data), "size %d", size)

		var buf bytes.Buffer

		require.NoError(t, c.Download(ctx, "/upload.bin", &buf))
		assert.Equal(t, string(content), buf.String(), "size %d", size)
	}

	info, err := c.AgentInfo(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.OpenHandles)

	err = c.Download(ctx, "/missing.bin", io.Discard)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestClientCopyFile(t *testing.T) {
	c, fsys := newTestClient(t)
	ctx := context.Background()

	dir := t.TempDir()

	local := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(local, []byte("print('hi')"), 0o644))

	require.NoError(t, c.CopyFile(ctx, local, DevicePrefix+"/main.py"))

	data, err := util.ReadFile(fsys, "/main.py")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(data))

	require.NoError(t, c.CopyFile(ctx, DevicePrefix+"/lib/motor.py", dir))

	data, err = os.ReadFile(filepath.Join(dir, "motor.py"))
	require.NoError(t, err)
	assert.Equal(t, "speed = 0", string(data))

	require.Error(t, c.CopyFile(ctx, local, filepath.Join(dir, "copy.py")))
}

type scriptedConn struct {
	io.Reader

	out bytes.Buffer
}

func (c *scriptedConn) Write(b []byte) (int, error) {
	return c.out.Write(b)
}

func (c *scriptedConn) Close() error {
	return nil
}

func TestCallSkipsProgramOutput(t *testing.T) {
	conn := &scriptedConn{Reader: strings.NewReader("booting...\nMicroPython v1.22\n<thonny>[1,null]</thonny>\n")}

	c := New(conn)

	var sizes []*int64

	require.NoError(t, c.Call(context.Background(), "file_sizes", map[string]interface{}{"paths": []string{"/a", "/b"}}, &sizes))
	require.Len(t, sizes, 2)
	assert.Equal(t, int64(1), *sizes[0])
	assert.Nil(t, sizes[1])

	assert.Equal(t, `{"execute":"file_sizes","arguments":{"paths":["/a","/b"]}}`+"\n", conn.out.String())

	// nothing left to read
	require.ErrorIs(t, c.Call(context.Background(), "ping", nil, nil), io.ErrUnexpectedEOF)
}

func TestCallCanceled(t *testing.T) {
	agentConn, hostConn := net.Pipe()
	defer agentConn.Close()

	c := New(hostConn)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// nobody reads on the agent side
	err := c.Call(ctx, "ping", nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
