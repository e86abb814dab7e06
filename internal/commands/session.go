package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jpo-robotics/brain-agent/core"
	"github.com/jpo-robotics/brain-agent/internal/mgmt"

	log "github.com/sirupsen/logrus"
)

// maxLineSize is the longest request line accepted from the host.
const maxLineSize = 1 << 20

var ErrUnknownCommand = errors.New("unknown command")

// Session processes the requests of one host connection,
// strictly one after another.
type Session struct {
	srv    *core.Server
	framer *mgmt.Framer
}

func NewSession(srv *core.Server, w io.Writer) *Session {
	return &Session{
		srv:    srv,
		framer: mgmt.NewFramer(w, nil),
	}
}

// Serve reads request lines from r until EOF or until ctx is done.
// Only read and write failures of the connection are returned.
func (s *Session) Serve(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := ParseLine(scanner.Text())
		switch {
		case errors.Is(err, ErrEmptyRequest):
			continue
		case err != nil:
			log.Debugf("Bad request: %s", err)

			if err := s.framer.PrintError(err); err != nil {
				return err
			}

			continue
		}

		if err := s.Execute(ctx, req); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// Execute runs a single request and writes its result.
func (s *Session) Execute(ctx context.Context, req *Request) error {
	logger := log.WithField("command", req.Command)

	cmd, ok := Lookup(req.Command)
	if !ok {
		logger.Debug("Unknown command")

		return s.framer.PrintError(fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command))
	}

	logger.Debug("Executing")

	if req.Args == nil {
		req.Args = new(Args)
	}

	value, err := cmd.Handler(ctx, s.srv, req.Args)
	if err != nil {
		logger.Debugf("Command failed: %s", err)

		return s.framer.PrintError(err)
	}

	if req.Interactive {
		if logger.Logger.IsLevelEnabled(log.DebugLevel) {
			logger.Debugf("Result: %s", s.framer.Repr(value))
		}

		return s.framer.PrintReplValue(value)
	}

	if err := s.framer.PrintMgmtValue(value); err != nil {
		return err
	}

	return s.framer.Newline()
}
