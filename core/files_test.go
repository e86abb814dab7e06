package core

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHandles(t *testing.T) {
	srv, fs := newMemServer(t, nil)

	content := []byte(strings.Repeat("brain", fileChunkSize/5+10))

	t.Run("write", func(t *testing.T) {
		id, err := srv.FileOpen("/main.py", "w")
		require.NoError(t, err)
		assert.Equal(t, 1, srv.handles.Len())

		require.NoError(t, srv.FileWrite(id, content[:100], false))
		require.NoError(t, srv.FileWrite(id, content[100:], false))
		require.NoError(t, srv.FileWrite(id, nil, true))

		assert.Zero(t, srv.handles.Len())

		data, err := util.ReadFile(fs, "/main.py")
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("read", func(t *testing.T) {
		id, err := srv.FileOpen("main.py", "")
		require.NoError(t, err)

		var buf bytes.Buffer
		var chunks int

		for {
			chunk, err := srv.FileRead(id)
			require.NoError(t, err)
			require.LessOrEqual(t, len(chunk.Data), fileChunkSize)

			buf.Write(chunk.Data)
			chunks++

			if chunk.EOF {
				break
			}
		}

		assert.Equal(t, content, buf.Bytes())
		assert.Equal(t, 2, chunks)

		_, err = srv.FileRead(id)
		require.ErrorIs(t, err, ErrInvalidHandle)
	})

	t.Run("close", func(t *testing.T) {
		id, err := srv.FileOpen("/main.py", "r")
		require.NoError(t, err)

		require.NoError(t, srv.FileClose(id))
		require.ErrorIs(t, srv.FileClose(id), ErrInvalidHandle)
		require.ErrorIs(t, srv.FileWrite(id, []byte("x"), false), ErrInvalidHandle)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := srv.FileOpen("/missing.py", "r")
		require.ErrorIs(t, err, os.ErrNotExist)

		_, err = srv.FileOpen("/main.py", "a+")
		require.ErrorIs(t, err, os.ErrInvalid)
	})
}
