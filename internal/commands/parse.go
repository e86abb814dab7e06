package commands

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/bytedance/sonic"
)

var ErrEmptyRequest = errors.New("empty request")

// Request is a single command received from the host.
type Request struct {
	Command string `json:"execute"`
	Args    *Args  `json:"arguments"`

	// Interactive is set for shell-style requests. Their results are
	// published on the inspection channel instead of the management one.
	Interactive bool `json:"-"`
}

// ParseLine parses one request line. A line starting with "{" is
// a JSON request, anything else is a shell-style command line:
//
//	NAME [PATH...] [--hidden] [--keep=P] [--keep-pattern=G] [--mode=M]
//	     [--handle=N] [--data=B64] [--eof] [--id=N]
func ParseLine(line string) (*Request, error) {
	line = strings.TrimSpace(line)

	if line == "" {
		return nil, ErrEmptyRequest
	}

	if strings.HasPrefix(line, "{") {
		return parseJSON(line)
	}

	return parseShell(line)
}

func parseJSON(line string) (*Request, error) {
	var req Request

	if err := sonic.ConfigStd.UnmarshalFromString(line, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if req.Command == "" {
		return nil, errors.New("invalid request: no command to execute")
	}

	if req.Args == nil {
		req.Args = new(Args)
	}

	return &req, nil
}

func parseShell(line string) (*Request, error) {
	words, err := shlex.Split(line, true)
	if err != nil {
		return nil, fmt.Errorf("invalid command line: %w", err)
	}

	if len(words) == 0 {
		return nil, ErrEmptyRequest
	}

	req := Request{
		Command:     words[0],
		Args:        new(Args),
		Interactive: true,
	}

	for _, w := range words[1:] {
		if !strings.HasPrefix(w, "--") {
			if len(req.Args.Paths) == 0 {
				req.Args.Path = w
			}

			req.Args.Paths = append(req.Args.Paths, w)

			continue
		}

		if err := req.Args.setOption(w); err != nil {
			return nil, err
		}
	}

	return &req, nil
}

func (a *Args) setOption(opt string) error {
	name, value, _ := strings.Cut(strings.TrimPrefix(opt, "--"), "=")

	var err error

	switch name {
	case "hidden":
		a.IncludeHidden = true
	case "eof":
		a.EOF = true
	case "keep":
		a.Keep = append(a.Keep, value)
	case "keep-pattern":
		a.KeepPatterns = append(a.KeepPatterns, value)
	case "mode":
		a.Mode = value
	case "handle":
		a.HandleID, err = strconv.Atoi(value)
	case "id":
		a.ID, err = strconv.ParseInt(value, 10, 64)
	case "data":
		a.Data, err = base64.StdEncoding.DecodeString(value)
	default:
		return fmt.Errorf("unknown option: %s", opt)
	}

	if err != nil {
		return fmt.Errorf("invalid value of %s: %w", opt, err)
	}

	return nil
}
