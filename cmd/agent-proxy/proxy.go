package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jpo-robotics/brain-agent/internal/devconn"

	"github.com/mdlayher/vsock"
	log "github.com/sirupsen/logrus"
)

type dialFunc func(ctx context.Context) (net.Conn, error)

func run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("want 2 sockets: the one to listen and the one to connect, see help for details")
	}

	dial, sequential, err := dialer(args[1])
	if err != nil {
		return err
	}

	ln, err := listen(args[0])
	if err != nil {
		return err
	}
	defer ln.Close()

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		proxy := func() {
			if err := proxyConn(ctx, conn, dial); err != nil {
				log.WithField("remote", conn.RemoteAddr().String()).Warn(err)
			}
		}

		if sequential {
			proxy()
		} else {
			go proxy()
		}
	}
}

func listen(addr string) (net.Listener, error) {
	if strings.HasPrefix(addr, "tcp:") {
		log.Infof("Listener: TCP (%s)", addr[4:])

		return net.Listen("tcp", addr[4:])
	}

	if port, err := strconv.ParseUint(addr, 0, 32); err == nil {
		log.Infof("Listener: VSOCK (%s)", addr)

		return vsock.Listen(uint32(port), nil)
	}

	return nil, fmt.Errorf("unknown listener: %s", addr)
}

// dialer returns the function connecting to addr. The second value
// is true if the target accepts one connection at a time.
func dialer(addr string) (dialFunc, bool, error) {
	if strings.HasPrefix(addr, "tcp:") {
		log.Infof("Dialer: TCP (%s)", addr[4:])

		return func(ctx context.Context) (net.Conn, error) {
			var d net.Dialer

			return d.DialContext(ctx, "tcp", addr[4:])
		}, false, nil
	}

	if strings.Contains(addr, "/") {
		log.Infof("Dialer: serial port (%s)", addr)

		// The device is opened once and shared by all connections
		dev, err := devconn.DialDevice(addr)
		if err != nil {
			return nil, false, err
		}

		return func(context.Context) (net.Conn, error) {
			return dev, nil
		}, true, nil
	}

	if ss := strings.SplitN(addr, ":", 2); len(ss) == 2 {
		cid, err := strconv.ParseUint(ss[0], 0, 32)
		if err != nil {
			return nil, false, fmt.Errorf("vsock address %q CID parse: %w", addr, err)
		}

		port, err := strconv.ParseUint(ss[1], 0, 32)
		if err != nil {
			return nil, false, fmt.Errorf("vsock address %q PORT parse: %w", addr, err)
		}

		log.Info("Dialer: VSOCK")

		return func(context.Context) (net.Conn, error) {
			return vsock.Dial(uint32(cid), uint32(port), nil)
		}, false, nil
	}

	return nil, false, fmt.Errorf("unknown dialer: %s", addr)
}

func proxyConn(ctx context.Context, conn net.Conn, dial dialFunc) error {
	defer conn.Close()

	target, err := dial(ctx)
	if err != nil {
		return err
	}
	defer target.Close()

	return pipe(conn, target)
}

// pipe copies data both ways until one of the sides is done.
// The target is left usable for the next connection.
func pipe(conn, target net.Conn) error {
	errc := make(chan error, 2)

	go func() {
		_, err := io.Copy(target, conn)

		// Unblock the reader of the target
		target.SetReadDeadline(time.Now())

		errc <- err
	}()

	go func() {
		_, err := io.Copy(conn, target)

		conn.Close()

		errc <- err
	}()

	var result error

	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil && result == nil && !isClosed(err) {
			result = err
		}
	}

	target.SetReadDeadline(time.Time{})

	return result
}

func isClosed(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
