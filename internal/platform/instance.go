package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock file.
type InstanceGuard struct {
	file *os.File
}

// AcquireSingleInstance takes an exclusive lock on <dir>/focusdeck.lock. The
// lock is released by Release or when the process exits.
func AcquireSingleInstance(dir string) (*InstanceGuard, error) {
	path := filepath.Join(dir, AppName+".lock")
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open instance lock: %w", err)
	}
	if err := lockFile(file.Fd()); err != nil {
		_ = file.Close()
		return nil, ErrAlreadyRunning
	}
	_ = file.Truncate(0)
	_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return &InstanceGuard{file: file}, nil
}

// Path returns the lock file path.
func (guard *InstanceGuard) Path() string {
	if guard == nil || guard.file == nil {
		return ""
	}
	return guard.file.Name()
}

// Release frees the lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.file == nil {
		return nil
	}
	unlockErr := unlockFile(guard.file.Fd())
	closeErr := guard.file.Close()
	guard.file = nil
	if unlockErr != nil {
		return fmt.Errorf("unlock instance lock: %w", unlockErr)
	}
	return closeErr
}
