package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/jpo-robotics/brain-agent/client"
	"github.com/jpo-robotics/brain-agent/internal/config"
	"github.com/jpo-robotics/brain-agent/internal/devconn"

	"github.com/mdlayher/vsock"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

type ActionFunc func(context.Context, *client.Client, *cli.Command) error

// withClient connects to the agent before running fn.
func withClient(fn ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		conn, err := dialEndpoint(ctx, c.String("endpoint"))
		if err != nil {
			return err
		}

		agent := client.New(conn)
		defer agent.Close()

		ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()

		return fn(ctx, agent, c)
	}
}

func dialEndpoint(ctx context.Context, target string) (io.ReadWriteCloser, error) {
	log.WithField("endpoint", target).Debug("Connecting to the agent")

	switch {
	case strings.HasPrefix(target, "cid:"):
		// It is a VM sockets context ID
		cid, port, err := parseCID(target[4:])
		if err != nil {
			return nil, err
		}

		return vsock.Dial(cid, port, nil)
	case strings.HasPrefix(target, "tcp:"):
		if len(target) <= 4 {
			return nil, fmt.Errorf("no address defined")
		}

		var d net.Dialer

		return d.DialContext(ctx, "tcp", target[4:])
	case strings.Contains(target, "/"):
		// It is a serial port connected to the device
		return devconn.DialDevice(target)
	case target == "":
		return nil, fmt.Errorf("no endpoint defined (--endpoint or BRAIN_ENDPOINT)")
	}

	return nil, fmt.Errorf("unknown type of a given endpoint: %s", target)
}

func parseCID(s string) (uint32, uint32, error) {
	cidStr, portStr, hasPort := strings.Cut(s, ":")

	cid, err := strconv.ParseUint(cidStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid socket context ID: %w", err)
	}

	if !hasPort {
		return uint32(cid), config.DefaultVsockPort, nil
	}

	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port: %w", err)
	}

	return uint32(cid), uint32(port), nil
}
