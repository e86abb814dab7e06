package core

import (
	"io/fs"
	"syscall"
)

func fillSysStat(st *Stat, fi fs.FileInfo) {
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}

	st.Mode = uint32(sys.Mode)
	st.Ino = sys.Ino
	st.Dev = uint64(sys.Dev)
	st.Nlink = uint64(sys.Nlink)
	st.UID = sys.Uid
	st.GID = sys.Gid
	st.Atime = int64(sys.Atim.Sec)
	st.Mtime = int64(sys.Mtim.Sec)
	st.Ctime = int64(sys.Ctim.Sec)
}
