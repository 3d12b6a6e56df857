//go:build windows

package clipboard

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32             = syscall.NewLazyDLL("user32.dll")
	kernel32           = syscall.NewLazyDLL("kernel32.dll")
	procOpenClipboard  = user32.NewProc("OpenClipboard")
	procCloseClipboard = user32.NewProc("CloseClipboard")
	procEmptyClipboard = user32.NewProc("EmptyClipboard")
	procIsFormatAvail  = user32.NewProc("IsClipboardFormatAvailable")
	procGetClipboard   = user32.NewProc("GetClipboardData")
	procSetClipboard   = user32.NewProc("SetClipboardData")
	procGlobalAlloc    = kernel32.NewProc("GlobalAlloc")
	procGlobalLock     = kernel32.NewProc("GlobalLock")
	procGlobalUnlock   = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

// SystemClipboard accesses the Windows clipboard via the raw user32/kernel32 API.
type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (s *SystemClipboard) GetText() (string, error) {
	if r, _, _ := procOpenClipboard.Call(0); r == 0 {
		return "", errors.New("clipboard: OpenClipboard failed")
	}
	defer procCloseClipboard.Call()

	if r, _, _ := procIsFormatAvail.Call(cfUnicodeText); r == 0 {
		return "", errors.New("clipboard: no text content")
	}

	handle, _, err := procGetClipboard.Call(cfUnicodeText)
	if handle == 0 {
		return "", err
	}
	ptr, _, err := procGlobalLock.Call(handle)
	if ptr == 0 {
		return "", err
	}
	defer procGlobalUnlock.Call(handle)

	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(ptr))), nil
}

func (s *SystemClipboard) SetText(text string) error {
	if r, _, _ := procOpenClipboard.Call(0); r == 0 {
		return errors.New("clipboard: OpenClipboard failed")
	}
	defer procCloseClipboard.Call()

	if r, _, _ := procEmptyClipboard.Call(); r == 0 {
		return errors.New("clipboard: EmptyClipboard failed")
	}

	utf16Text, err := windows.UTF16FromString(text)
	if err != nil {
		return err
	}
	length := len(utf16Text) * 2
	handle, _, err := procGlobalAlloc.Call(gmemMoveable, uintptr(length))
	if handle == 0 {
		return err
	}
	ptr, _, err := procGlobalLock.Call(handle)
	if ptr == 0 {
		return err
	}
	defer procGlobalUnlock.Call(handle)

	data := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length)
	for i, v := range utf16Text {
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}

	if r, _, err := procSetClipboard.Call(cfUnicodeText, handle); r == 0 {
		return err
	}
	return nil
}
