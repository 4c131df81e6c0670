package lease

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/flock"
)

// File is a Lease held as an flock on <dir>/<name>.lock. The kernel drops the
// lock when the holder exits, so ttl is not needed and is ignored.
type File struct {
	dir string
}

// Ensure File implements Lease interface.
var _ Lease = (*File)(nil)

// NewFile creates a file lease rooted at dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Acquire implements Lease.
func (f *File) Acquire(ctx context.Context, name string, _ time.Duration) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l, err := flock.TryLock(filepath.Join(f.dir, name+".lock"))
	switch {
	case errors.Is(err, flock.ErrLocked):
		return nil, fmt.Errorf("lease '%s': %w", name, tferrors.ErrLeaseHeld)
	case err != nil:
		return nil, tferrors.Unavailable(err)
	}

	return func(context.Context) error {
		return l.Unlock()
	}, nil
}
