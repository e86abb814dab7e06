package mgmt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

const (
	ValueStart = "<thonny>"
	ValueEnd   = "</thonny>"

	LinkStartFmt = "[object_link_for_thonny=%d]"
	LinkEnd      = "[/object_link_for_thonny]"
)

// maxReprLen bounds the display string of a value
// and the serialization error placeholder.
const maxReprLen = 50

const placeholderPrefix = "<could not serialize: "

// FormatFunc renders a value as text for the host.
type FormatFunc func(v interface{}) (string, error)

// FormatJSON renders v as JSON with sorted map keys,
// so equal values always produce equal text.
func FormatJSON(v interface{}) (string, error) {
	return sonic.ConfigStd.MarshalToString(v)
}

// Framer writes framed values to the output stream of a host connection.
// It is the only writer of that stream.
type Framer struct {
	mu     sync.Mutex
	w      io.Writer
	format FormatFunc
}

func NewFramer(w io.Writer, format FormatFunc) *Framer {
	if format == nil {
		format = FormatJSON
	}

	return &Framer{w: w, format: format}
}

// PrintMgmtValue writes v between the management sentinels without a
// trailing line terminator. A value that cannot be rendered is replaced
// by a bounded placeholder. Only write errors are returned.
func (f *Framer) PrintMgmtValue(v interface{}) error {
	return f.write(ValueStart + f.render(v) + ValueEnd)
}

// PrintReplValue publishes a non-nil value on the inspection channel:
// the value gets an object link id and becomes the last REPL value.
// The value is rendered in full, only a serialization failure is bounded.
func (f *Framer) PrintReplValue(v interface{}) error {
	if isNil(v) {
		return nil
	}

	id := replState.register(v)

	return f.write(fmt.Sprintf(LinkStartFmt, id) + f.render(v) + LinkEnd + "\n")
}

// PrintError writes an error line carrying the base64 encoded error text
// and the errno of the failure (-1 if there is none).
func (f *Framer) PrintError(err error) error {
	line := fmt.Sprintf(`{"error": {"bufb64": "%s", "code": %d}}`+"\n",
		base64.StdEncoding.EncodeToString([]byte(err.Error())),
		ErrorCode(err),
	)

	return f.write(line)
}

// Newline separates a management value from whatever is written next.
func (f *Framer) Newline() error {
	return f.write("\n")
}

// Repr returns the display string of v,
// cut to maxReprLen characters followed by "...".
func (f *Framer) Repr(v interface{}) string {
	return truncate(f.render(v), maxReprLen)
}

func (f *Framer) write(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := io.WriteString(f.w, s)

	return err
}

func (f *Framer) render(v interface{}) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = placeholder(fmt.Errorf("%v", r))
		}
	}()

	out, err := f.format(v)
	if err != nil {
		return placeholder(err)
	}

	return out
}

func placeholder(err error) string {
	// "<could not serialize: " + message + ">" never exceeds maxReprLen
	limit := maxReprLen - len(placeholderPrefix) - len("...>")

	return placeholderPrefix + truncate(err.Error(), limit) + ">"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}

// ErrorCode extracts the errno of a failed filesystem call.
func ErrorCode(err error) int {
	var errno syscall.Errno

	switch {
	case errors.As(err, &errno):
		return int(errno)
	case errors.Is(err, fs.ErrNotExist):
		return int(syscall.ENOENT)
	case errors.Is(err, fs.ErrExist):
		return int(syscall.EEXIST)
	case errors.Is(err, fs.ErrPermission):
		return int(syscall.EACCES)
	}

	return -1
}

// ExtractValue finds a management value in a line of output
// and returns the text between the sentinels.
func ExtractValue(line string) (string, bool) {
	start := strings.Index(line, ValueStart)
	if start < 0 {
		return "", false
	}

	rest := line[start+len(ValueStart):]

	end := strings.LastIndex(rest, ValueEnd)
	if end < 0 {
		return "", false
	}

	return rest[:end], true
}
