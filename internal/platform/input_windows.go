//go:build windows

package platform

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/macwinctl/macwinctl/internal/model"
)

var (
	user32             = syscall.NewLazyDLL("user32.dll")
	procSendInput      = user32.NewProc("SendInput")
	procSetCursorPos   = user32.NewProc("SetCursorPos")
	procGetCursorPos   = user32.NewProc("GetCursorPos")
	procShowCursor     = user32.NewProc("ShowCursor")
	procEnumDisplayMon = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfo = user32.NewProc("GetMonitorInfoW")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove      = 0x0001
	mouseeventfLeftDown  = 0x0002
	mouseeventfLeftUp    = 0x0004
	mouseeventfRightDown = 0x0008
	mouseeventfRightUp   = 0x0010
	mouseeventfMidDown   = 0x0020
	mouseeventfMidUp     = 0x0040
	mouseeventfWheel     = 0x0800

	keyeventfKeyUp = 0x0002

	monitorinfofPrimary = 0x1
)

type point struct{ X, Y int32 }

type rect struct{ Left, Top, Right, Bottom int32 }

type monitorInfo struct {
	CbSize    uint32
	RcMonitor rect
	RcWork    rect
	DwFlags   uint32
}

type mouseInput struct {
	Dx, Dy      int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	InputType uint32
	Padding   [4]byte
	Data      [24]byte // holds either mouseInput or keybdInput
}

// windowsInput synthesizes input via the raw user32 SendInput API.
type windowsInput struct {
	visibilityCounter
}

func New() Input {
	return &windowsInput{}
}

func (w *windowsInput) EnumerateDisplays() ([]model.Display, error) {
	var displays []model.Display
	cb := syscall.NewCallback(func(hMonitor uintptr, hdc uintptr, lprc uintptr, lParam uintptr) uintptr {
		var mi monitorInfo
		mi.CbSize = uint32(unsafe.Sizeof(mi))
		procGetMonitorInfo.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		displays = append(displays, model.Display{
			Name:      fmt.Sprintf("display-%d", len(displays)),
			X:         int(mi.RcMonitor.Left),
			Y:         int(mi.RcMonitor.Top),
			Width:     int(mi.RcMonitor.Right - mi.RcMonitor.Left),
			Height:    int(mi.RcMonitor.Bottom - mi.RcMonitor.Top),
			IsPrimary: mi.DwFlags&monitorinfofPrimary != 0,
		})
		return 1
	})
	procEnumDisplayMon.Call(0, 0, cb, 0)
	if len(displays) == 0 {
		return fallbackDisplay(), nil
	}
	model.SortDisplays(displays)
	return displays, nil
}

func (w *windowsInput) GetCursor() (int, int, error) {
	var pt point
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos failed: %w", err)
	}
	return int(pt.X), int(pt.Y), nil
}

func (w *windowsInput) MoveCursor(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed: %w", err)
	}
	return nil
}

func (w *windowsInput) Click(button Button, action Action) error {
	var flags uint32
	switch button {
	case ButtonLeft:
		if action == ActionPress {
			flags = mouseeventfLeftDown
		} else {
			flags = mouseeventfLeftUp
		}
	case ButtonRight:
		if action == ActionPress {
			flags = mouseeventfRightDown
		} else {
			flags = mouseeventfRightUp
		}
	case ButtonMiddle:
		if action == ActionPress {
			flags = mouseeventfMidDown
		} else {
			flags = mouseeventfMidUp
		}
	default:
		return nil
	}
	return w.sendMouse(flags, 0)
}

func (w *windowsInput) Key(code int, action Action) error {
	var inp input
	inp.InputType = inputKeyboard
	ki := (*keybdInput)(unsafe.Pointer(&inp.Data[0]))
	ki.WVk = uint16(code)
	if action == ActionRelease {
		ki.DwFlags = keyeventfKeyUp
	}
	ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("SendInput failed for key code=0x%X", code)
	}
	return nil
}

func (w *windowsInput) Scroll(dx, dy int) error {
	if dy != 0 {
		if err := w.sendMouse(mouseeventfWheel, uint32(int32(dy*120))); err != nil {
			return err
		}
	}
	return nil
}

func (w *windowsInput) sendMouse(flags uint32, mouseData uint32) error {
	var inp input
	inp.InputType = inputMouse
	mi := (*mouseInput)(unsafe.Pointer(&inp.Data[0]))
	mi.DwFlags = flags
	mi.MouseData = mouseData
	ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&inp)), unsafe.Sizeof(inp))
	if ret == 0 {
		return fmt.Errorf("SendInput failed, flags=0x%X", flags)
	}
	return nil
}

func (w *windowsInput) HideCursor() error {
	if w.visibilityCounter.hide() {
		procShowCursor.Call(0)
	}
	return nil
}

func (w *windowsInput) ShowCursor() error {
	if w.visibilityCounter.show() {
		procShowCursor.Call(1)
	}
	return nil
}
