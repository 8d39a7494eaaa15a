package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Op names the copy step that failed.
type Op string

const (
	OpStat   Op = "stat source"
	OpMkdir  Op = "create parent"
	OpOpen   Op = "open source"
	OpCreate Op = "create destination"
	OpWrite  Op = "write destination"
	OpVerify Op = "verify destination"
	OpAttrs  Op = "copy metadata"
	OpCommit Op = "commit destination"
)

// CopyError wraps a filesystem failure with the step and paths involved.
type CopyError struct {
	Op  Op
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("%s: %s -> %s: %v", e.Op, e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// ErrVerifyMismatch reports a destination whose size or hash differs from
// the source after copying.
var ErrVerifyMismatch = errors.New("copy verification failed")

// afterFlush runs on the closed temporary file before verification. Tests use
// it to alter the bytes on disk.
var afterFlush func(tmpName string)

// Options tunes CopyFile.
type Options struct {
	// Verify hashes the source with SHA-256 while streaming, then re-reads the
	// flushed temporary file and rejects the copy when its size or hash differs.
	Verify bool
}

// EnsureParent creates the parent directory tree of path when missing.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// CopyFile copies src to dst with its permission bits and modification time,
// replacing any existing dst. The bytes land in a temporary sibling first and
// are renamed into place, so a failed copy never leaves a truncated dst. The
// parent directory of dst is created when missing. Returns bytes written.
func CopyFile(src, dst string, opts Options) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, &CopyError{Op: OpStat, Src: src, Dst: dst, Err: err}
	}
	if !info.Mode().IsRegular() {
		return 0, &CopyError{Op: OpStat, Src: src, Dst: dst, Err: errors.New("not a regular file")}
	}
	if err := EnsureParent(dst); err != nil {
		return 0, &CopyError{Op: OpMkdir, Src: src, Dst: dst, Err: err}
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, &CopyError{Op: OpOpen, Src: src, Dst: dst, Err: err}
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return 0, &CopyError{Op: OpCreate, Src: src, Dst: dst, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	var reader io.Reader = in
	var srcHasher hash.Hash
	if opts.Verify {
		srcHasher = sha256.New()
		reader = io.TeeReader(in, srcHasher)
	}

	written, err := io.Copy(tmp, reader)
	if err != nil {
		return written, &CopyError{Op: OpWrite, Src: src, Dst: dst, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return written, &CopyError{Op: OpWrite, Src: src, Dst: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return written, &CopyError{Op: OpWrite, Src: src, Dst: dst, Err: err}
	}

	if afterFlush != nil {
		afterFlush(tmpName)
	}

	if opts.Verify {
		dstSum, dstSize, err := hashFile(tmpName)
		if err != nil {
			return written, &CopyError{Op: OpVerify, Src: src, Dst: dst, Err: err}
		}
		if written != info.Size() || dstSize != written {
			return written, &CopyError{Op: OpVerify, Src: src, Dst: dst,
				Err: fmt.Errorf("%w: source %d bytes, copied %d bytes, on disk %d bytes", ErrVerifyMismatch, info.Size(), written, dstSize)}
		}
		if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
			return written, &CopyError{Op: OpVerify, Src: src, Dst: dst,
				Err: fmt.Errorf("%w: hash mismatch", ErrVerifyMismatch)}
		}
	}

	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return written, &CopyError{Op: OpAttrs, Src: src, Dst: dst, Err: err}
	}
	// Zero atime leaves the access time untouched.
	if err := os.Chtimes(tmpName, time.Time{}, info.ModTime()); err != nil {
		return written, &CopyError{Op: OpAttrs, Src: src, Dst: dst, Err: err}
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return written, &CopyError{Op: OpCommit, Src: src, Dst: dst, Err: err}
	}
	committed = true
	return written, nil
}

// SameContent reports whether a and b hold identical bytes.
func SameContent(a, b string) (bool, error) {
	ha, sa, err := hashFile(a)
	if err != nil {
		return false, err
	}
	hb, sb, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return sa == sb && bytes.Equal(ha, hb), nil
}

func hashFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), n, nil
}
