//go:build darwin && !cgo

package platform

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/macwinctl/macwinctl/internal/model"
)

// darwinNoCGOInput drives input through the cliclick CLI when the build has
// no CGO (and therefore no CoreGraphics bindings available). This mirrors
// the teacher's shelled-out input handler for builds without a compiler
// toolchain on the target, at the cost of materially higher per-event
// latency than CGEventPost.
type darwinNoCGOInput struct {
	visibilityCounter
	lastX, lastY int
}

func New() Input {
	return &darwinNoCGOInput{}
}

func (d *darwinNoCGOInput) EnumerateDisplays() ([]model.Display, error) {
	return fallbackDisplay(), nil
}

func (d *darwinNoCGOInput) GetCursor() (int, int, error) {
	// cliclick has no position-query verb; the caller must have tracked
	// the last MoveCursor call to avoid jitter, per the contract.
	return d.lastX, d.lastY, nil
}

func (d *darwinNoCGOInput) MoveCursor(x, y int) error {
	d.lastX, d.lastY = x, y
	return exec.Command("cliclick", fmt.Sprintf("m:%d,%d", x, y)).Run()
}

func (d *darwinNoCGOInput) Click(button Button, action Action) error {
	verb := cliclickVerb(button, action)
	if verb == "" {
		return nil
	}
	return exec.Command("cliclick", fmt.Sprintf("%s:%d,%d", verb, d.lastX, d.lastY)).Run()
}

func (d *darwinNoCGOInput) Key(code int, action Action) error {
	script := fmt.Sprintf(`tell application "System Events" to key code %s`, strconv.Itoa(code))
	if action == ActionRelease {
		// cliclick/osascript cannot express a raw key-up; the best-effort
		// fallback issues the keystroke once on press and no-ops on release.
		return nil
	}
	return exec.Command("osascript", "-e", script).Run()
}

func (d *darwinNoCGOInput) Scroll(dx, dy int) error {
	return exec.Command("cliclick", fmt.Sprintf("w:%d,%d", dx, dy)).Run()
}

func (d *darwinNoCGOInput) HideCursor() error {
	d.visibilityCounter.hide()
	return nil
}

func (d *darwinNoCGOInput) ShowCursor() error {
	d.visibilityCounter.show()
	return nil
}

func cliclickVerb(button Button, action Action) string {
	switch button {
	case ButtonLeft:
		if action == ActionPress {
			return "dd"
		}
		return "du"
	case ButtonRight:
		if action == ActionPress {
			return "rd"
		}
		return "ru"
	default:
		return ""
	}
}
