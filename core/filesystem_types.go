package core

import (
	"fmt"
	"io/fs"

	"github.com/bytedance/sonic"
	"golang.org/x/sys/unix"
)

// Stat is a status record of a device file. It is rendered as a 10-item
// array in the order of a POSIX stat tuple:
// (mode, ino, dev, nlink, uid, gid, size, atime, mtime, ctime).
type Stat struct {
	Mode  uint32
	Ino   uint64
	Dev   uint64
	Nlink uint64
	UID   uint32
	GID   uint32
	Size  int64
	Atime int64
	Mtime int64
	Ctime int64
}

func newStat(fi fs.FileInfo) *Stat {
	st := Stat{
		Mode:  unixMode(fi),
		Nlink: 1,
		Size:  fi.Size(),
		Mtime: fi.ModTime().Unix(),
	}

	st.Atime = st.Mtime
	st.Ctime = st.Mtime

	fillSysStat(&st, fi)

	return &st
}

func unixMode(fi fs.FileInfo) uint32 {
	mode := uint32(fi.Mode().Perm())

	switch {
	case fi.IsDir():
		mode |= unix.S_IFDIR
	case fi.Mode()&fs.ModeSymlink != 0:
		mode |= unix.S_IFLNK
	default:
		mode |= unix.S_IFREG
	}

	return mode
}

func (st *Stat) IsDir() bool {
	return st.Mode&unix.S_IFMT == unix.S_IFDIR
}

func (st Stat) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d,%d,%d,%d,%d,%d,%d,%d,%d]",
		st.Mode, st.Ino, st.Dev, st.Nlink, st.UID, st.GID, st.Size, st.Atime, st.Mtime, st.Ctime)), nil
}

func (st *Stat) UnmarshalJSON(b []byte) error {
	var t []int64

	if err := sonic.Unmarshal(b, &t); err != nil {
		return err
	}

	if len(t) != 10 {
		return fmt.Errorf("invalid stat record: expected 10 fields, got %d", len(t))
	}

	*st = Stat{
		Mode:  uint32(t[0]),
		Ino:   uint64(t[1]),
		Dev:   uint64(t[2]),
		Nlink: uint64(t[3]),
		UID:   uint32(t[4]),
		GID:   uint32(t[5]),
		Size:  t[6],
		Atime: t[7],
		Mtime: t[8],
		Ctime: t[9],
	}

	return nil
}

// EntryStat is a directory entry as reported by ListDir:
// either a status record or the text of the error that prevented
// obtaining one.
type EntryStat struct {
	Stat *Stat
	Err  string
}

func (e EntryStat) MarshalJSON() ([]byte, error) {
	if e.Stat == nil {
		return sonic.Marshal(e.Err)
	}

	return e.Stat.MarshalJSON()
}

func (e *EntryStat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		e.Stat = nil

		return sonic.Unmarshal(b, &e.Err)
	}

	e.Err = ""
	e.Stat = new(Stat)

	return e.Stat.UnmarshalJSON(b)
}

// FileChunk is a portion of a file returned by FileRead.
type FileChunk struct {
	Data []byte `json:"bufb64"`
	EOF  bool   `json:"eof"`
}
