package main

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jpo-robotics/brain-agent/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentServe(t *testing.T) {
	root := t.TempDir()

	agent, err := NewAgent(&config.Config{DeviceRoot: root, VsockPort: config.DefaultVsockPort})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errc := make(chan error, 1)

	go func() {
		errc <- agent.Serve(context.Background(), l)
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	r := bufio.NewReader(conn)

	call := func(line string) string {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)

		resp, err := r.ReadString('\n')
		require.NoError(t, err)

		return resp
	}

	assert.Equal(t, "<thonny>null</thonny>\n", call(`{"execute": "mkdirs", "arguments": {"path": "/lib/sub"}}`))

	fi, err := os.Stat(filepath.Join(root, "lib", "sub"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	assert.Equal(t, `<thonny>["/lib","/lib/sub"]</thonny>`+"\n", call(`{"execute": "listall", "arguments": {"path": "/"}}`))
	assert.Equal(t, "<thonny>true</thonny>\n", call(`{"execute": "agent-shutdown"}`))

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestAgentServeCanceled(t *testing.T) {
	agent, err := NewAgent(&config.Config{DeviceRoot: t.TempDir(), VsockPort: config.DefaultVsockPort})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)

	go func() {
		errc <- agent.Serve(ctx, l)
	}()

	// an idle session must not keep the agent running
	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("agent did not stop")
	}

	require.Error(t, agent.Serve(context.Background()))
}
