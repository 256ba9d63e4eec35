//go:build windows

package clipboard

import (
	"fmt"
	"strconv"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	cfText        = 1
	cfUnicodeText = 13
	cfHDrop       = 15

	maxPath = 260
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	kernel32                 = windows.NewLazySystemDLL("kernel32.dll")
	shell32                  = windows.NewLazySystemDLL("shell32.dll")
	procOpenClipboard        = user32.NewProc("OpenClipboard")
	procCloseClipboard       = user32.NewProc("CloseClipboard")
	procEnumClipboardFormats = user32.NewProc("EnumClipboardFormats")
	procGetClipboardFormatNm = user32.NewProc("GetClipboardFormatNameW")
	procGetClipboardData     = user32.NewProc("GetClipboardData")
	procRegisterFormat       = user32.NewProc("RegisterClipboardFormatW")
	procGlobalLock           = kernel32.NewProc("GlobalLock")
	procGlobalUnlock         = kernel32.NewProc("GlobalUnlock")
	procDragQueryFile        = shell32.NewProc("DragQueryFileW")
)

// standardFormatNames covers the predefined formats the probe cares
// about; EnumClipboardFormats reports them by number only.
var standardFormatNames = map[uintptr]string{
	cfText:        "CF_TEXT",
	cfUnicodeText: "CF_UNICODETEXT",
	cfHDrop:       "CF_HDROP",
}

// windowsAccessor reads the Win32 clipboard. Every method opens and
// closes the clipboard around its reads; holding it open would block
// other processes.
type windowsAccessor struct{}

func newPlatformAccessor() Accessor {
	return &windowsAccessor{}
}

func (a *windowsAccessor) withClipboard(fn func() error) error {
	ok, _, err := procOpenClipboard.Call(0)
	if ok == 0 {
		return fmt.Errorf("OpenClipboard: %w", err)
	}
	defer procCloseClipboard.Call()
	return fn()
}

func (a *windowsAccessor) Formats() ([]string, error) {
	var formats []string
	err := a.withClipboard(func() error {
		var buf [256]uint16
		format := uintptr(0)
		for {
			format, _, _ = procEnumClipboardFormats.Call(format)
			if format == 0 {
				return nil
			}
			if name, ok := standardFormatNames[format]; ok {
				formats = append(formats, name)
				continue
			}
			n, _, _ := procGetClipboardFormatNm.Call(format, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
			if n > 0 {
				formats = append(formats, windows.UTF16ToString(buf[:n]))
			} else {
				formats = append(formats, "format#"+strconv.FormatUint(uint64(format), 10))
			}
		}
	})
	return formats, err
}

// ReadFileURLs extracts the file list from a CF_HDROP payload, the
// format Explorer stages for copied or dragged files.
func (a *windowsAccessor) ReadFileURLs() ([]string, error) {
	var paths []string
	err := a.withClipboard(func() error {
		handle, _, _ := procGetClipboardData.Call(cfHDrop)
		if handle == 0 {
			return fmt.Errorf("no CF_HDROP data")
		}

		drop, _, _ := procGlobalLock.Call(handle)
		if drop == 0 {
			return fmt.Errorf("GlobalLock failed")
		}
		defer procGlobalUnlock.Call(handle)

		count, _, _ := procDragQueryFile.Call(drop, 0xFFFFFFFF, 0, 0)
		var buf [maxPath]uint16
		for i := uintptr(0); i < count; i++ {
			n, _, _ := procDragQueryFile.Call(drop, i, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
			if n > 0 {
				paths = append(paths, windows.UTF16ToString(buf[:n]))
			}
		}
		return nil
	})
	return paths, err
}

func (a *windowsAccessor) ReadText() (string, error) {
	var text string
	err := a.withClipboard(func() error {
		handle, _, _ := procGetClipboardData.Call(cfUnicodeText)
		if handle == 0 {
			return fmt.Errorf("no CF_UNICODETEXT data")
		}

		ptr, _, _ := procGlobalLock.Call(handle)
		if ptr == 0 {
			return fmt.Errorf("GlobalLock failed")
		}
		defer procGlobalUnlock.Call(handle)

		text = windows.UTF16PtrToString((*uint16)(unsafe.Pointer(ptr)))
		return nil
	})
	return text, err
}

func (a *windowsAccessor) ReadMarkup() (string, error) {
	namePtr, err := windows.UTF16PtrFromString("HTML Format")
	if err != nil {
		return "", err
	}
	htmlFormat, _, _ := procRegisterFormat.Call(uintptr(unsafe.Pointer(namePtr)))
	if htmlFormat == 0 {
		return "", fmt.Errorf("RegisterClipboardFormat failed")
	}

	var markup string
	cbErr := a.withClipboard(func() error {
		handle, _, _ := procGetClipboardData.Call(htmlFormat)
		if handle == 0 {
			return fmt.Errorf("no HTML data")
		}

		ptr, _, _ := procGlobalLock.Call(handle)
		if ptr == 0 {
			return fmt.Errorf("GlobalLock failed")
		}
		defer procGlobalUnlock.Call(handle)

		// HTML Format payloads are NUL-terminated UTF-8.
		markup = windows.BytePtrToString((*byte)(unsafe.Pointer(ptr)))
		return nil
	})
	return markup, cbErr
}
