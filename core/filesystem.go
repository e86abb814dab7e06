package core

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ListDir returns the status records of the immediate children of p.
// Names starting with a dot are skipped unless includeHidden is set.
// A child that cannot be stat'ed is reported with the error text
// instead of a record. An error is returned only if p itself
// cannot be listed.
func (s *Server) ListDir(p string, includeHidden bool) (map[string]EntryStat, error) {
	infos, err := s.readDir(p)
	if err != nil {
		return nil, err
	}

	base := trimSlash(p)

	entries := make(map[string]EntryStat, len(infos))

	for _, fi := range infos {
		name := fi.Name()

		if strings.HasPrefix(name, ".") && !includeHidden {
			continue
		}

		info, err := s.fs.Stat(s.abs(joinPath(base, name)))
		if err != nil {
			entries[name] = EntryStat{Err: err.Error()}

			continue
		}

		entries[name] = EntryStat{Stat: newStat(info)}
	}

	return entries, nil
}

// readDir lists the directory p. Some filesystems list a missing path
// as an empty directory, so p is checked to be a directory first.
func (s *Server) readDir(p string) ([]os.FileInfo, error) {
	abs := s.abs(p)

	info, err := s.fs.Stat(abs)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: ErrNotDirectory}
	}

	return s.fs.ReadDir(abs)
}

// ListNames returns the names of all children of p, hidden ones included.
func (s *Server) ListNames(p string) ([]string, error) {
	infos, err := s.readDir(p)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(infos))

	for _, fi := range infos {
		names = append(names, fi.Name())
	}

	return names, nil
}

// FileSizes returns the size of every path in paths, in the same order.
// The slot of a path that cannot be stat'ed is nil.
func (s *Server) FileSizes(paths []string) []*int64 {
	sizes := make([]*int64, len(paths))

	for i, p := range paths {
		info, err := s.fs.Stat(s.abs(p))
		if err != nil {
			log.WithField("path", p).Debugf("Could not get file size: %s", err)

			continue
		}

		size := info.Size()

		sizes[i] = &size
	}

	return sizes
}

// IsDir reports whether p is a directory.
// The error of the underlying stat call is returned as is.
func (s *Server) IsDir(p string) (bool, error) {
	info, err := s.fs.Stat(s.abs(p))
	if err != nil {
		return false, err
	}

	return info.IsDir(), nil
}
