package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jpo-robotics/brain-agent/internal/mgmt"

	"github.com/bytedance/sonic"
)

// maxLineSize is the longest response line accepted from the agent.
const maxLineSize = 16 << 20

// RemoteError is a failure reported by the agent on an error line.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code < 0 {
		return e.Message
	}

	return fmt.Sprintf("%s (errno %d)", e.Message, e.Code)
}

// Is makes errors.Is(err, fs.ErrNotExist) and similar checks work
// for the errno carried by the error.
func (e *RemoteError) Is(target error) bool {
	if e.Code <= 0 {
		return false
	}

	return syscall.Errno(e.Code).Is(target)
}

// Client talks to an agent over an established connection.
// Calls are serialized: the agent answers one request at a time.
type Client struct {
	mu sync.Mutex

	conn    io.ReadWriteCloser
	scanner *bufio.Scanner
}

func New(conn io.ReadWriteCloser) *Client {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Client{conn: conn, scanner: scanner}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

type request struct {
	Command string                 `json:"execute"`
	Args    map[string]interface{} `json:"arguments,omitempty"`
}

type deadliner interface {
	SetDeadline(time.Time) error
}

// Call executes the command name with args and decodes its result into out.
// Output lines without a framed value are skipped. If out is nil
// the result is discarded.
func (c *Client) Call(ctx context.Context, name string, args map[string]interface{}, out interface{}) error {
	line, err := sonic.ConfigStd.MarshalToString(&request{Command: name, Args: args})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A done ctx interrupts the pending I/O
	if d, ok := c.conn.(deadliner); ok {
		stop := context.AfterFunc(ctx, func() {
			d.SetDeadline(time.Now())
		})
		defer stop()
	}

	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return c.connError(ctx, err)
	}

	for c.scanner.Scan() {
		text := c.scanner.Text()

		if strings.HasPrefix(text, `{"error"`) {
			return parseErrorLine(text)
		}

		value, ok := mgmt.ExtractValue(text)
		if !ok {
			continue
		}

		if out == nil {
			return nil
		}

		if err := sonic.ConfigStd.UnmarshalFromString(value, out); err != nil {
			return fmt.Errorf("%s: cannot decode result: %w", name, err)
		}

		return nil
	}

	if err := c.scanner.Err(); err != nil {
		return c.connError(ctx, err)
	}

	return io.ErrUnexpectedEOF
}

func (c *Client) connError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return err
}

func parseErrorLine(line string) error {
	var resp struct {
		Error struct {
			Message []byte `json:"bufb64"`
			Code    int    `json:"code"`
		} `json:"error"`
	}

	if err := sonic.ConfigStd.UnmarshalFromString(line, &resp); err != nil {
		return fmt.Errorf("malformed error line: %w", err)
	}

	return &RemoteError{Code: resp.Error.Code, Message: string(resp.Error.Message)}
}

var errNoShutdown = errors.New("agent did not confirm the shutdown")

func (c *Client) Ping(ctx context.Context) (string, error) {
	var version string

	if err := c.Call(ctx, "ping", nil, &version); err != nil {
		return "", err
	}

	return version, nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	var ok bool

	if err := c.Call(ctx, "agent-shutdown", nil, &ok); err != nil {
		return err
	}

	if !ok {
		return errNoShutdown
	}

	return nil
}
