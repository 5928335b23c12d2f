// atomicio.go: atomic file I/O with fsync-before-rename durability
//
// write_atomic never leaves a torn or partially-written file observable at
// the target path: bytes are written to a same-directory temp file, fsynced,
// then renamed into place (atomic on POSIX and NTFS). Transient failures
// (EAGAIN, SMB/NFS timeouts, sharing violations) are retried with bounded
// exponential backoff.
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
)

const (
	ioMaxRetries  = 5
	ioBackoffMin  = 25 * time.Millisecond
	ioBackoffMax  = 400 * time.Millisecond
)

// writeAtomic durably writes data to path: a temp file in the same
// directory is written, flushed, fsynced, and renamed onto path. On any
// failure the temp file is removed and no partial path is ever observable.
func writeAtomic(ctx context.Context, path string, data []byte, fsync bool) error {
	dir := filepath.Dir(path)
	tmpPath := path + ".tmp-" + uuid.NewString()

	err := withRetry(ctx, "write_atomic", func() error {
		f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			os.Remove(tmpPath)
			return classifyIoError(tmpPath, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return classifyIoError(tmpPath, err)
		}

		if fsync {
			if err := f.Sync(); err != nil {
				f.Close()
				os.Remove(tmpPath)
				return classifyIoError(tmpPath, err)
			}
		}

		if err := f.Close(); err != nil {
			os.Remove(tmpPath)
			return classifyIoError(tmpPath, err)
		}

		if err := os.Rename(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return classifyIoError(path, err)
		}

		if fsync {
			syncDirBestEffort(dir)
		}
		return nil
	})
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// syncDirBestEffort fsyncs the directory entry so the rename itself is
// durable. Best-effort: some platforms (notably Windows) do not support
// opening a directory for read, so failures here are silently ignored.
func syncDirBestEffort(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// readAll reads path fully into memory, or memory-maps it read-only when
// its size is at least mmapThreshold bytes. The returned byte slice must not
// be retained past any subsequent write to the same path.
func readAll(path string, mmapThreshold int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyIoError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, classifyIoError(path, err)
	}

	if mmapThreshold > 0 && info.Size() >= mmapThreshold {
		m, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			// Fall through to a regular read; mmap can fail on some
			// network filesystems that don't support it.
			return readAllBuffered(f, info.Size())
		}
		out := make([]byte, len(m))
		copy(out, m)
		_ = m.Unmap()
		return out, nil
	}

	return readAllBuffered(f, info.Size())
}

func readAllBuffered(f *os.File, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil && err != io.EOF {
		return nil, classifyIoError(f.Name(), err)
	}
	return buf, nil
}

// remove best-effort unlinks path. Absence is not an error.
func remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return classifyIoError(path, err)
	}
	return nil
}

// withRetry runs fn, retrying transient I/O failures with exponential
// backoff capped at ioMaxRetries attempts. ctx, if supplied with a
// deadline, aborts before the next retry and surfaces IoError{Transient}.
func withRetry(ctx context.Context, path string, fn func() error) error {
	var lastErr error
	backoff := ioBackoffMin
	for attempt := 0; attempt < ioMaxRetries; attempt++ {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return NewErrIo(ErrCodeIoTransient, path, ctx.Err())
			default:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}

		sleep := backoff + time.Duration(rand.Int63n(int64(backoff/2+1)))
		if sleep > ioBackoffMax {
			sleep = ioBackoffMax
		}
		timer := time.NewTimer(sleep)
		if ctx != nil {
			select {
			case <-ctx.Done():
				timer.Stop()
				return NewErrIo(ErrCodeIoTransient, path, ctx.Err())
			case <-timer.C:
			}
		} else {
			<-timer.C
		}

		backoff *= 2
		if backoff > ioBackoffMax {
			backoff = ioBackoffMax
		}
	}
	return lastErr
}

// classifyIoError maps a raw OS error into the diskcache IoError taxonomy.
func classifyIoError(path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return NewErrIo(ErrCodeIoUnknown, path, err)
	case os.IsPermission(err):
		return NewErrIo(ErrCodeIoPermission, path, err)
	case errors.Is(err, syscall.ENOSPC):
		return NewErrIo(ErrCodeIoSpace, path, err)
	case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, syscall.EBUSY):
		return NewErrIo(ErrCodeIoTransient, path, err)
	default:
		return NewErrIo(ErrCodeIoUnknown, path, err)
	}
}
