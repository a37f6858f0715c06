//go:build !linux

package file

import (
	"io/fs"
	"time"
)

func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime().UTC()
}
