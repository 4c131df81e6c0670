package flock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrLocked is returned by TryLock when another holder has the lock.
var ErrLocked = errors.New("file is locked")

// Lock is a held lock on an open lock file.
type Lock struct {
	file *os.File

	once sync.Once
	err  error
}

// TryLock opens path, creating it and its parent directory if needed, and
// takes an exclusive lock without waiting.
func TryLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //#nosec G302,G304 -- lock files are created by the caller's own paths
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := lockFD(f.Fd()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return &Lock{file: f}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.file.Name()
}

// Unlock releases the lock and closes the file. Later calls return the
// result of the first.
func (l *Lock) Unlock() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		if err := unlockFD(l.file.Fd()); err != nil {
			_ = l.file.Close()
			l.err = fmt.Errorf("failed to release lock: %w", err)
			return
		}
		l.err = l.file.Close()
	})
	return l.err
}
