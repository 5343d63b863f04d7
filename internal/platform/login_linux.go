//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func desktopEntryPath() (string, error) {
	configDir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", AppName+".desktop"), nil
}

func (item *LoginItem) install() error {
	path, err := desktopEntryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}

	execLine := item.execPath
	if strings.ContainsAny(execLine, " \t") {
		execLine = `"` + strings.Trim(execLine, `"`) + `"`
	}
	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Focusdeck
Comment=Focus timer
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`, execLine)
	return os.WriteFile(path, []byte(entry), 0o644)
}

func (item *LoginItem) remove() error {
	path, err := desktopEntryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (item *LoginItem) installed() bool {
	path, err := desktopEntryPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
