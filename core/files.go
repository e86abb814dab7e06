package core

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
)

var ErrInvalidHandle = errors.New("incorrect handle id")

// fileChunkSize is the largest piece of a file returned by one FileRead.
const fileChunkSize = 4096

type handleStore struct {
	mu   sync.Mutex
	next int
	h    map[int]billy.File
}

func newHandleStore() *handleStore {
	return &handleStore{next: 1, h: make(map[int]billy.File)}
}

func (hs *handleStore) Add(f billy.File) int {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	id := hs.next

	hs.h[id] = f
	hs.next++

	return id
}

func (hs *handleStore) Get(id int) (billy.File, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	f, ok := hs.h[id]
	if !ok {
		return nil, ErrInvalidHandle
	}

	return f, nil
}

func (hs *handleStore) Del(id int) error {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	f, ok := hs.h[id]
	if !ok {
		return ErrInvalidHandle
	}

	delete(hs.h, id)

	return f.Close()
}

func (hs *handleStore) Len() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	return len(hs.h)
}

// FileOpen opens p for reading (mode "r" or empty) or for writing
// (mode "w", the file is created or truncated) and returns a handle id.
func (s *Server) FileOpen(p, mode string) (int, error) {
	var f billy.File
	var err error

	switch mode {
	case "", "r":
		f, err = s.fs.Open(s.abs(p))
	case "w":
		f, err = s.fs.OpenFile(s.abs(p), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	default:
		return 0, &os.PathError{Op: "open", Path: p, Err: os.ErrInvalid}
	}
	if err != nil {
		return 0, err
	}

	return s.handles.Add(f), nil
}

// FileRead returns the next chunk of an opened file.
// The handle is released once the end of file is reached.
func (s *Server) FileRead(id int) (*FileChunk, error) {
	f, err := s.handles.Get(id)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, fileChunkSize)

	n, err := io.ReadFull(f, buf)

	switch err {
	case nil:
		return &FileChunk{Data: buf[:n]}, nil
	case io.EOF, io.ErrUnexpectedEOF:
		if err := s.handles.Del(id); err != nil {
			return nil, err
		}

		return &FileChunk{Data: buf[:n], EOF: true}, nil
	}

	return nil, err
}

// FileWrite appends data to an opened file.
// When eof is set the handle is closed after the write.
func (s *Server) FileWrite(id int, data []byte, eof bool) error {
	f, err := s.handles.Get(id)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		s.handles.Del(id)

		return err
	}

	if eof {
		return s.handles.Del(id)
	}

	return nil
}

func (s *Server) FileClose(id int) error {
	return s.handles.Del(id)
}
