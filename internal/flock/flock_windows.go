//go:build windows

package flock

import "golang.org/x/sys/windows"

// LockFileEx locks one byte at offset zero; every holder uses the same range.
const (
	rangeLow  = 1
	rangeHigh = 0
)

func lockFD(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		rangeLow,
		rangeHigh,
		&windows.Overlapped{},
	)
}

func unlockFD(fd uintptr) error {
	return windows.UnlockFileEx(windows.Handle(fd), 0, rangeLow, rangeHigh, &windows.Overlapped{})
}
