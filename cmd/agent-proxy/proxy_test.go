package main

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	host, proxyIn := net.Pipe()
	proxyOut, agent := net.Pipe()
	defer agent.Close()

	errc := make(chan error, 1)

	go func() {
		errc <- pipe(proxyIn, proxyOut)
	}()

	go func() {
		host.Write([]byte(`{"execute": "ping"}` + "\n"))
	}()

	req := make([]byte, 20)

	_, err := io.ReadFull(agent, req)
	require.NoError(t, err)
	assert.Equal(t, `{"execute": "ping"}`+"\n", string(req))

	go func() {
		agent.Write([]byte("<thonny>\"0.7.0\"</thonny>\n"))
	}()

	resp := make([]byte, 25)

	_, err = io.ReadFull(host, resp)
	require.NoError(t, err)
	assert.Equal(t, "<thonny>\"0.7.0\"</thonny>\n", string(resp))

	require.NoError(t, host.Close())

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipe did not stop")
	}
}

func TestDialerAndListenerErrors(t *testing.T) {
	for _, addr := range []string{"nope", "x:1", "3:y"} {
		_, _, err := dialer(addr)
		assert.Error(t, err, addr)
	}

	_, err := listen("unix:/tmp/sock")
	assert.Error(t, err)

	require.Error(t, run(context.Background(), []string{"tcp:127.0.0.1:0"}))
}

func TestRunTCP(t *testing.T) {
	upstream, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer upstream.Close()

	go func() {
		conn, err := upstream.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		io.Copy(conn, conn)
	}()

	dial, sequential, err := dialer("tcp:" + upstream.Addr().String())
	require.NoError(t, err)
	assert.False(t, sequential)

	host, proxyIn := net.Pipe()
	defer host.Close()

	go proxyConn(context.Background(), proxyIn, dial)

	go func() {
		host.Write([]byte("echo\n"))
	}()

	buf := make([]byte, 5)

	_, err = io.ReadFull(host, buf)
	require.NoError(t, err)
	assert.Equal(t, "echo\n", string(buf))
}
