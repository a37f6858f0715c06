package file

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime reads the inode change time, which stands in for creation time.
func changeTime(info fs.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime().UTC()
	}
	return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)).UTC()
}
