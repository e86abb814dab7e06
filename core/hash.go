package core

import (
	"crypto/sha1"
	"encoding/hex"
	"io"

	log "github.com/sirupsen/logrus"
)

// hashChunkSize bounds the memory used to hash a file of any size.
const hashChunkSize = 4096

// FileSHA1 returns the hex encoded SHA-1 digest of the file contents,
// or nil if the file cannot be opened or read.
func (s *Server) FileSHA1(p string) *string {
	sum, err := s.fileSHA1(p)
	if err != nil {
		log.WithField("path", p).Debugf("Could not compute SHA-1: %s", err)

		return nil
	}

	return &sum
}

func (s *Server) fileSHA1(p string) (string, error) {
	fd, err := s.fs.Open(s.abs(p))
	if err != nil {
		return "", err
	}
	defer fd.Close()

	hash := sha1.New()

	buf := make([]byte, hashChunkSize)

	for {
		n, err := fd.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// FileSHA1s hashes every path in paths. The result has one slot per path,
// in the same order; unreadable files get nil.
func (s *Server) FileSHA1s(paths []string) []*string {
	sums := make([]*string, len(paths))

	for i, p := range paths {
		sums[i] = s.FileSHA1(p)
	}

	return sums
}
