package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpo-robotics/brain-agent/core"
)

// chunkSize is the amount of data sent with one file-write request.
const chunkSize = 4096

// DevicePrefix marks the device side argument of CopyFile.
const DevicePrefix = "device:"

// Upload writes the content of r to the file dst on the device.
func (c *Client) Upload(ctx context.Context, r io.Reader, dst string) error {
	var id int

	if err := c.Call(ctx, "file-open", map[string]interface{}{"path": dst, "mode": "w"}, &id); err != nil {
		return err
	}

	buf := make([]byte, chunkSize)

	for {
		n, err := io.ReadFull(r, buf)

		eof := err == io.EOF || err == io.ErrUnexpectedEOF
		if err != nil && !eof {
			c.Call(ctx, "file-close", map[string]interface{}{"handle_id": id}, nil)

			return err
		}

		args := map[string]interface{}{
			"handle_id": id,
			"bufb64":    buf[:n],
			"eof":       eof,
		}

		if err := c.Call(ctx, "file-write", args, nil); err != nil {
			return err
		}

		if eof {
			return nil
		}
	}
}

// Download copies the content of the file src on the device to w.
func (c *Client) Download(ctx context.Context, src string, w io.Writer) error {
	var id int

	if err := c.Call(ctx, "file-open", map[string]interface{}{"path": src}, &id); err != nil {
		return err
	}

	for {
		var chunk core.FileChunk

		if err := c.Call(ctx, "file-read", map[string]interface{}{"handle_id": id}, &chunk); err != nil {
			return err
		}

		if _, err := w.Write(chunk.Data); err != nil {
			c.Call(ctx, "file-close", map[string]interface{}{"handle_id": id}, nil)

			return err
		}

		if chunk.EOF {
			return nil
		}
	}
}

// CopyFile copies a file between the host and the device.
// Exactly one of the names must carry DevicePrefix; "-" stands for
// stdin as a source.
func (c *Client) CopyFile(ctx context.Context, srcname, dstname string) error {
	copyTo := func(src, dst string) error {
		var r io.Reader

		if src == "-" {
			r = os.Stdin
		} else {
			f, err := os.Open(src)
			if err != nil {
				return err
			}
			defer f.Close()

			r = f
		}

		return c.Upload(ctx, r, dst)
	}

	copyFrom := func(src, dst string) error {
		switch st, err := os.Stat(dst); {
		case err == nil:
			if st.IsDir() {
				dst = filepath.Join(dst, filepath.Base(src))
			}
		case os.IsNotExist(err):
			if strings.HasSuffix(dst, "/") {
				return err
			}
		default:
			return err
		}

		tmpfile, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(src)+".*")
		if err != nil {
			return err
		}
		defer tmpfile.Close()
		defer os.Remove(tmpfile.Name())

		if err := c.Download(ctx, src, tmpfile); err != nil {
			return err
		}

		return os.Rename(tmpfile.Name(), dst)
	}

	switch {
	case strings.HasPrefix(srcname, DevicePrefix):
		return copyFrom(strings.TrimPrefix(srcname, DevicePrefix), dstname)
	case strings.HasPrefix(dstname, DevicePrefix):
		return copyTo(srcname, strings.TrimPrefix(dstname, DevicePrefix))
	}

	return fmt.Errorf("must specify at least one '%s' source", DevicePrefix)
}
