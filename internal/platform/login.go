package platform

import (
	"errors"
	"fmt"
)

// LoginItem starts the application when the user logs in.
type LoginItem struct {
	execPath string
}

// NewLoginItem creates a login item launching execPath.
func NewLoginItem(execPath string) *LoginItem {
	return &LoginItem{execPath: execPath}
}

// Sync installs the login item when enabled and removes it otherwise.
func (item *LoginItem) Sync(enabled bool) error {
	if !enabled {
		if err := item.remove(); err != nil {
			return fmt.Errorf("remove login item: %w", err)
		}
		return nil
	}
	if item.execPath == "" {
		return errors.New("install login item: exec path is empty")
	}
	if err := item.install(); err != nil {
		return fmt.Errorf("install login item: %w", err)
	}
	return nil
}

// Installed reports whether the login item exists.
func (item *LoginItem) Installed() bool {
	return item.installed()
}
