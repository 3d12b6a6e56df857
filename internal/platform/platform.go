// Package platform is the OS-abstracted input-synthesis contract the
// control loop depends on: enumerating displays, querying and moving the
// cursor, synthesizing mouse/key events, and reference-counted cursor
// visibility.
package platform

import (
	"sync"

	"github.com/macwinctl/macwinctl/internal/errkind"
	"github.com/macwinctl/macwinctl/internal/model"
)

// visibilityCounter is the shared reference-counting helper every platform
// backend embeds so HideCursor/ShowCursor pairs nest correctly regardless
// of which OS-specific syscall actually toggles the cursor.
type visibilityCounter struct {
	mu    sync.Mutex
	count int
}

// hide returns true the first time the count goes from 0 to 1 — the caller
// should only issue the OS-level hide call on that transition.
func (v *visibilityCounter) hide() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.count++
	return v.count == 1
}

// show returns true when the count returns to 0 — the caller should only
// issue the OS-level show call on that transition.
func (v *visibilityCounter) show() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.count == 0 {
		return false
	}
	v.count--
	return v.count == 0
}

// Button identifies a mouse button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Action is press/release for clicks and keys.
type Action string

const (
	ActionPress   Action = "press"
	ActionRelease Action = "release"
)

// Input is the platform I/O contract. All operations are synchronous and
// non-blocking. Backends return plain errors; only ErrUnsupported carries an
// internal/errkind tag (errkind.PlatformIO). The cgo backends for macOS and
// Linux do not check the result of the OS calls and return nil for them.
type Input interface {
	// EnumerateDisplays returns at least one display, sorted by X ascending.
	EnumerateDisplays() ([]model.Display, error)

	// GetCursor returns the current cursor position in the host's
	// virtual-desktop frame. Must not jitter when stationary.
	GetCursor() (x, y int, err error)

	// MoveCursor performs an absolute move. The caller guarantees (x, y)
	// lies within some display rectangle.
	MoveCursor(x, y int) error

	// Click synthesizes a button press or release at the current cursor.
	// An unrecognized button is a no-op, not an error. The action is not
	// validated: anything other than ActionPress is synthesized as a release.
	Click(button Button, action Action) error

	// Key synthesizes a native virtual-key code press or release. No
	// cross-OS translation is attempted here; the caller owns that.
	Key(code int, action Action) error

	// Scroll synthesizes a scroll of dx/dy detents (not pixels).
	Scroll(dx, dy int) error

	// HideCursor and ShowCursor are reference-counted: every HideCursor
	// call must be matched by a ShowCursor call. Cursor-position tracking
	// must keep working while hidden.
	HideCursor() error
	ShowCursor() error
}

// ErrUnsupported wraps a platform operation that has no implementation on
// the current build (e.g. click/key/scroll on the fallback backend for
// other OSes, or a cursor query when xdotool is unavailable on Linux
// built with CGO_ENABLED=0).
func ErrUnsupported(op string) error {
	return errkind.New(errkind.PlatformIO, "unsupported operation: "+op)
}

// fallbackDisplay is returned by EnumerateDisplays stubs that have no real
// enumeration available, per the spec's fallback contract.
func fallbackDisplay() []model.Display {
	return []model.Display{{Name: "primary", X: 0, Y: 0, Width: 1920, Height: 1080, IsPrimary: true}}
}
