//go:build windows

package mirror

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"golang.org/x/sys/windows"
)

const (
	hwndTopmost    = ^uintptr(0) // (HWND)-1
	swpNoSize      = 0x0001
	swpNoMove      = 0x0002
	swpNoActivate  = 0x0010
	swpShowWindow  = 0x0040
	topmostOptions = swpNoSize | swpNoMove | swpNoActivate | swpShowWindow
)

var (
	user32DLL        = windows.NewLazySystemDLL("user32.dll")
	procSetWindowPos = user32DLL.NewProc("SetWindowPos")

	errNoNativeHandle = errors.New("no native window handle")
)

func keepOnTop(window fyne.Window) error {
	nativeWindow, ok := window.(driver.NativeWindow)
	if !ok {
		return errNoNativeHandle
	}

	var err error = errNoNativeHandle
	nativeWindow.RunNative(func(context any) {
		var hwnd uintptr
		switch value := context.(type) {
		case driver.WindowsWindowContext:
			hwnd = value.HWND
		case *driver.WindowsWindowContext:
			hwnd = value.HWND
		default:
			return
		}
		if hwnd == 0 {
			return
		}
		ret, _, callErr := procSetWindowPos.Call(hwnd, hwndTopmost, 0, 0, 0, 0, topmostOptions)
		if ret == 0 {
			err = fmt.Errorf("SetWindowPos: %w", callErr)
			return
		}
		err = nil
	})
	return err
}
