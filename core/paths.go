package core

import (
	"fmt"
	"os"
	"path"
	"strings"
	"syscall"
)

// ErrNotDirectory carries ENOTDIR so that hosts get a proper errno.
var ErrNotDirectory error = syscall.ENOTDIR

// rootPrefix is the canonical form of the device root.
// Both "" and "/" are reduced to it before child names are appended.
const rootPrefix = ""

// trimSlash drops trailing separators so that "/" becomes rootPrefix
// and "lib/" becomes "lib".
func trimSlash(p string) string {
	return strings.TrimRight(p, "/")
}

func joinPath(dir, name string) string {
	return dir + "/" + name
}

// abs resolves p against the current directory. The result is only
// used to address the filesystem, never returned to the host.
func (s *Server) abs(p string) string {
	if p == "" {
		return "/"
	}

	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}

	s.mu.Lock()
	cwd := s.cwd
	s.mu.Unlock()

	return path.Join(cwd, p)
}

// Mkdirs makes sure that every directory from the first segment of p
// down to p itself exists. Missing directories are created one level
// at a time, existing ones are left untouched.
//
// An existing file at one of the prefixes is not detected here:
// the attempt to create the next segment under it fails instead.
func (s *Server) Mkdirs(p string) error {
	absolute := strings.HasPrefix(p, "/")

	sofar := rootPrefix

	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}

		if sofar == rootPrefix && !absolute {
			sofar = part
		} else {
			sofar = joinPath(sofar, part)
		}

		if _, err := s.fs.Stat(s.abs(sofar)); err == nil {
			continue
		}

		if err := s.fs.MkdirAll(s.abs(sofar), 0o755); err != nil {
			return fmt.Errorf("mkdirs %s: %w", sofar, err)
		}
	}

	return nil
}

func (s *Server) Getcwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cwd
}

func (s *Server) Chdir(p string) error {
	isDir, err := s.IsDir(p)
	if err != nil {
		return err
	}

	if !isDir {
		return &os.PathError{Op: "chdir", Path: p, Err: ErrNotDirectory}
	}

	target := s.abs(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cwd = target

	return nil
}

// Rmdir removes an empty directory.
func (s *Server) Rmdir(p string) error {
	isDir, err := s.IsDir(p)
	if err != nil {
		return err
	}

	if !isDir {
		return &os.PathError{Op: "rmdir", Path: p, Err: ErrNotDirectory}
	}

	return s.fs.Remove(s.abs(p))
}
