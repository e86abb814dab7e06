package core

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// ListAll returns the full paths of all entries below p in pre-order:
// every directory precedes its own contents, and the contents of
// a directory are listed before its next sibling.
//
// Any directory that cannot be listed aborts the walk.
func (s *Server) ListAll(p string) ([]string, error) {
	result := make([]string, 0)

	if err := s.listAll(trimSlash(p), &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Server) listAll(dir string, result *[]string) error {
	infos, err := s.readDir(dir)
	if err != nil {
		return err
	}

	for _, fi := range infos {
		p := joinPath(dir, fi.Name())

		*result = append(*result, p)

		if fi.IsDir() {
			if err := s.listAll(p, result); err != nil {
				return err
			}
		}
	}

	return nil
}

// DeletePredicate decides whether the file at path should be removed.
// The path is passed without the leading separator.
type DeletePredicate func(path string) bool

// DelTree removes the subtree at p bottom-up.
//
// Files are removed when shouldDelete is nil or returns true for them.
// Directories are removed when they happen to be empty after their
// children were processed; a failed directory removal is not an error.
// The device root itself is never removed, only its contents.
// A missing p is reported as an error.
func (s *Server) DelTree(p string, shouldDelete DeletePredicate) error {
	isDir, err := s.IsDir(p)
	if err != nil {
		return err
	}

	p = trimSlash(p)

	if isDir {
		names, err := s.ListNames(p)
		if err != nil {
			return err
		}

		for _, name := range names {
			if err := s.DelTree(joinPath(p, name), shouldDelete); err != nil {
				return err
			}
		}
	}

	if p == rootPrefix || s.abs(p) == "/" {
		return nil
	}

	if isDir {
		if err := s.fs.Remove(s.abs(p)); err != nil {
			log.WithField("path", p).Debugf("Directory is left in place: %s", err)
		}

		return nil
	}

	if shouldDelete == nil || shouldDelete(strings.TrimPrefix(p, "/")) {
		return s.fs.Remove(s.abs(p))
	}

	return nil
}
