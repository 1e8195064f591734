// Package fsutil implements the path builder and filesystem adapter
// described in spec §4.2: joining paths, recursively creating
// directories, reading and writing whole files, and stat'ing paths
// without treating "missing" as an error.
package fsutil

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"time"
)

// dirMode is rwxrwxr-x: owner and group full access, others read/execute,
// per spec §4.2 create_path.
const dirMode = 0o775

// MaxPathLen is the platform path-length limit (Linux's PATH_MAX is
// 4096). CreatePath rejects longer paths with ErrTooLongPath rather
// than an opaque OS error; the other functions here do not check it.
const MaxPathLen = 4096

// ErrTooLongPath is returned when a constructed path would exceed the
// platform's path-length limit (spec §7 TooLongPath).
var ErrTooLongPath = errors.New("fsutil: path exceeds platform limit")

// Join builds an ordinary slash-joined path from parts, without
// normalising ".."/"." segments — the caller (the repository engine)
// is responsible for only ever passing well-formed IRI segments.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// CreatePath recursively creates every missing directory component of
// path with dirMode. Pre-existing directories are not an error.
func CreatePath(path string) error {
	if len(path) > MaxPathLen {
		return ErrTooLongPath
	}
	if err := os.MkdirAll(path, dirMode); err != nil {
		return err
	}
	return nil
}

// RemoveFile removes a single file. Per spec §4.2 this does not treat
// an already-missing file as success at this layer — callers that want
// idempotent delete semantics check existence first via
// PathAttributes.
func RemoveFile(path string) error {
	return os.Remove(path)
}

// RemoveDir removes path only if it is empty; "directory not empty" is
// swallowed (returns nil) per spec §4.5 DeleteResource step 4 and §5's
// pruning-is-not-an-error rule. An already-missing path also returns
// nil. Any other error (e.g. permission) is propagated.
func RemoveDir(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if errors.Is(err, syscall.ENOTEMPTY) {
		return nil
	}
	return err
}

// Attributes describes the subset of stat(2) the engine needs.
type Attributes struct {
	Size  int64
	Ctime time.Time
}

// PathAttributes stats path. A missing path is reported via the
// boolean return, not an error — spec §4.2 explicitly makes "absent"
// a non-error outcome.
func PathAttributes(path string) (Attributes, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Attributes{}, false, nil
		}
		return Attributes{}, false, err
	}
	return Attributes{Size: info.Size(), Ctime: ctime(info)}, true, nil
}

// FileToBytes reads an entire file. A missing file is reported via the
// boolean return, not an error.
func FileToBytes(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// BytesToFile writes data to a newly created file at path. It fails if
// the file already exists (spec §4.2 bytes_to_file), relying on the
// filesystem's own O_EXCL semantics rather than any higher-level
// locking — this is the property put/PutResource leans on to make
// concurrent creates mutually exclusive (spec §5).
func BytesToFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o664)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return nil
}

// Exists reports whether path exists (file or directory).
func Exists(path string) (bool, error) {
	_, ok, err := PathAttributes(path)
	return ok, err
}

// ReadRetryEINTR reads all of r, retrying on EINTR, as spec §4.5
// GetBlob/GetMeta requires for the non-mmap fallback path.
func ReadRetryEINTR(r io.Reader) ([]byte, error) {
	var all []byte
	for {
		data, err := io.ReadAll(r)
		all = append(all, data...)
		if err == nil {
			return all, nil
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return nil, err
	}
}

// PathDepth splits an IRI on "/" into its segments, mirroring spec
// §4.5 SetIRI's split of project/type/remainder.
func PathDepth(iri string) []string {
	return strings.Split(strings.Trim(iri, "/"), "/")
}
