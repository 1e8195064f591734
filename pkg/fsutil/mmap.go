//go:build unix

package fsutil

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// hugePagesEnabled gates the MAP_HUGETLB fast path (config's
// mmap_huge_pages, SPEC_FULL.md §2.3); on by default, matching the
// donor's opportunistic-then-fallback behaviour.
var hugePagesEnabled atomic.Bool

func init() {
	hugePagesEnabled.Store(true)
}

// SetHugePagesEnabled toggles whether MapFile attempts MAP_HUGETLB
// before falling back to an ordinary MAP_SHARED mapping.
func SetHugePagesEnabled(enabled bool) {
	hugePagesEnabled.Store(enabled)
}

// MapMode selects the protection requested for a memory-mapped region
// (spec §4.2 map_file mode).
type MapMode int

const (
	MapRead MapMode = iota
	MapWrite
	MapReadWrite
)

// Region is a memory-mapped view of a file. The zero value is not
// usable; obtain one from MapFile.
type Region struct {
	data []byte
	file *os.File
}

// Bytes returns the mapped region's backing slice. The slice is only
// valid until Unmap is called; callers must not retain it past that
// point (spec §5 payload lifetime rules).
func (r *Region) Bytes() []byte { return r.data }

// MapFile memory-maps the file at path in the given mode. If the
// platform or filesystem does not support mapping, (nil, false, nil)
// is returned so callers fall back to FileToBytes, per spec §4.2.
func MapFile(path string, mode MapMode) (*Region, bool, error) {
	flag := os.O_RDONLY
	prot := unix.PROT_READ
	switch mode {
	case MapWrite:
		flag = os.O_WRONLY
		prot = unix.PROT_WRITE
	case MapReadWrite:
		flag = os.O_RDWR
		prot = unix.PROT_READ | unix.PROT_WRITE
	}

	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	size := info.Size()
	if size == 0 {
		// Zero-length files cannot be mapped; treat as unsupported so
		// the caller falls back to an (empty) read.
		f.Close()
		return nil, false, nil
	}

	data, mmapErr := mmapWithHugePages(int(f.Fd()), size, prot)
	if mmapErr != nil {
		f.Close()
		return nil, false, nil
	}

	return &Region{data: data, file: f}, true, nil
}

// mmapWithHugePages opportunistically requests MAP_HUGETLB, falling
// back to an ordinary MAP_SHARED mapping on failure — spec §9's "keep
// this as a platform-specific fast path behind a runtime check".
func mmapWithHugePages(fd int, size int64, prot int) ([]byte, error) {
	if hugePagesEnabled.Load() {
		if data, err := unix.Mmap(fd, 0, int(size), prot, unix.MAP_SHARED|unix.MAP_HUGETLB); err == nil {
			return data, nil
		}
	}
	return unix.Mmap(fd, 0, int(size), prot, unix.MAP_SHARED)
}

// Unmap releases a previously mapped region.
func Unmap(r *Region) error {
	if r == nil || r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if closeErr := r.file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("fsutil: unmap: %w", err)
	}
	return nil
}
