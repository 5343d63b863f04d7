//go:build windows

package platform

import "golang.org/x/sys/windows"

// Lock the first byte; that is enough to exclude a second instance.
const (
	lockReserved  = 0
	lockBytesLow  = 1
	lockBytesHigh = 0
)

func lockFile(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}

func unlockFile(fd uintptr) error {
	return windows.UnlockFileEx(windows.Handle(fd), lockReserved, lockBytesLow, lockBytesHigh, &windows.Overlapped{})
}
