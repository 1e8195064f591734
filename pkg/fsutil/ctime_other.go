//go:build !unix

package fsutil

import (
	"os"
	"time"
)

// ctime falls back to mtime on platforms without a Stat_t ctim field
// (e.g. Windows); spec §4.2 treats this level of portability detail as
// per-platform.
func ctime(info os.FileInfo) time.Time {
	return info.ModTime()
}
