// Package platform wraps the OS facilities the app needs: where to keep its
// files, a single-instance lock, login items, idle time and audio processes.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the application directory, lock and login item.
const AppName = "focusdeck"

// ConfigDir returns the application directory inside the OS-standard
// configuration directory, creating it if needed.
func ConfigDir() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

func userConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}
	return fallbackConfigDir(homeDir), nil
}
