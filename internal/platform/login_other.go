//go:build !linux && !darwin && !windows

package platform

import (
	"errors"
	"path/filepath"
)

var errLoginUnsupported = errors.New("login items unsupported on this platform")

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func (item *LoginItem) install() error { return errLoginUnsupported }
func (item *LoginItem) remove() error  { return nil }
func (item *LoginItem) installed() bool {
	return false
}
