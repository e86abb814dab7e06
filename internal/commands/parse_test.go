package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineJSON(t *testing.T) {
	req, err := ParseLine(`{"execute": "deltree", "arguments": {"path": "/lib", "keep": ["lib/boot.py"], "keep_patterns": ["**/*.mpy"]}}`)
	require.NoError(t, err)

	assert.Equal(t, "deltree", req.Command)
	assert.False(t, req.Interactive)
	assert.Equal(t, "/lib", req.Args.Path)
	assert.Equal(t, []string{"lib/boot.py"}, req.Args.Keep)
	assert.Equal(t, []string{"**/*.mpy"}, req.Args.KeepPatterns)

	req, err = ParseLine(`{"execute": "file-write", "arguments": {"handle_id": 3, "bufb64": "aGVsbG8=", "eof": true}}`)
	require.NoError(t, err)

	assert.Equal(t, 3, req.Args.HandleID)
	assert.Equal(t, []byte("hello"), req.Args.Data)
	assert.True(t, req.Args.EOF)

	req, err = ParseLine(`{"execute": "ping"}`)
	require.NoError(t, err)
	require.NotNil(t, req.Args)
}

func TestParseLineShell(t *testing.T) {
	tests := []struct {
		line    string
		command string
		args    Args
	}{
		{
			line:    "listdir /lib --hidden",
			command: "listdir",
			args:    Args{Path: "/lib", Paths: []string{"/lib"}, IncludeHidden: true},
		},
		{
			line:    `file_sha1s "/my dir/a.py" /b.py`,
			command: "file_sha1s",
			args:    Args{Path: "/my dir/a.py", Paths: []string{"/my dir/a.py", "/b.py"}},
		},
		{
			line:    "deltree / --keep=boot.py --keep-pattern=lib/** --keep-pattern=*.json",
			command: "deltree",
			args: Args{
				Path:         "/",
				Paths:        []string{"/"},
				Keep:         []string{"boot.py"},
				KeepPatterns: []string{"lib/**", "*.json"},
			},
		},
		{
			line:    "file-write --handle=2 --data=aGk= --eof",
			command: "file-write",
			args:    Args{HandleID: 2, Data: []byte("hi"), EOF: true},
		},
		{
			line:    "inspect --id=17",
			command: "inspect",
			args:    Args{ID: 17},
		},
		{
			line:    "  getcwd  ",
			command: "getcwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			req, err := ParseLine(tt.line)
			require.NoError(t, err)

			assert.True(t, req.Interactive)
			assert.Equal(t, tt.command, req.Command)
			assert.Equal(t, tt.args, *req.Args)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	_, err := ParseLine("   ")
	require.ErrorIs(t, err, ErrEmptyRequest)

	for _, line := range []string{
		`{"execute": `,
		`{"arguments": {}}`,
		`listdir "unterminated`,
		"listdir --unknown",
		"file-read --handle=abc",
		"file-write --data=***",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}
