// Package flock takes exclusive, non-blocking advisory locks on lock files.
//
// The file task store locks one file per task around each write, and the file
// lease locks one file per lease name so that a single SLA sweeper runs at a
// time. The kernel drops a lock when its holder exits.
//
//	l, err := flock.TryLock(filepath.Join(dir, "sla-sweep.lock"))
//	if errors.Is(err, flock.ErrLocked) {
//	    // someone else holds it
//	}
//	defer l.Unlock()
//
// Import rules:
//   - CAN import: std lib, golang.org/x/sys
//   - MUST NOT import: internal packages
package flock
