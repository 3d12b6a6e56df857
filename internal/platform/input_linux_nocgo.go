//go:build linux && !cgo

package platform

import (
	"os/exec"
	"strconv"

	"github.com/macwinctl/macwinctl/internal/model"
)

// linuxNoCGOInput drives input through xdotool when no CGO toolchain is
// available to link against libX11/libXtst directly.
type linuxNoCGOInput struct {
	visibilityCounter
}

func New() Input {
	return &linuxNoCGOInput{}
}

func (l *linuxNoCGOInput) EnumerateDisplays() ([]model.Display, error) {
	return fallbackDisplay(), nil
}

func (l *linuxNoCGOInput) GetCursor() (int, int, error) {
	out, err := exec.Command("xdotool", "getmouselocation", "--shell").Output()
	if err != nil {
		return 0, 0, ErrUnsupported("get_cursor: " + err.Error())
	}
	x, y := parseXdotoolLocation(string(out))
	return x, y, nil
}

func (l *linuxNoCGOInput) MoveCursor(x, y int) error {
	return exec.Command("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)).Run()
}

func (l *linuxNoCGOInput) Click(button Button, action Action) error {
	btn := xdotoolButton(button)
	if btn == "" {
		return nil
	}
	if action == ActionPress {
		return exec.Command("xdotool", "mousedown", btn).Run()
	}
	return exec.Command("xdotool", "mouseup", btn).Run()
}

func (l *linuxNoCGOInput) Key(code int, action Action) error {
	keystr := strconv.Itoa(code)
	if action == ActionPress {
		return exec.Command("xdotool", "keydown", keystr).Run()
	}
	return exec.Command("xdotool", "keyup", keystr).Run()
}

func (l *linuxNoCGOInput) Scroll(dx, dy int) error {
	btn := "4"
	n := dy
	if dy < 0 {
		btn = "5"
		n = -dy
	}
	for i := 0; i < n; i++ {
		if err := exec.Command("xdotool", "click", btn).Run(); err != nil {
			return err
		}
	}
	return nil
}

func (l *linuxNoCGOInput) HideCursor() error {
	l.visibilityCounter.hide()
	return nil
}

func (l *linuxNoCGOInput) ShowCursor() error {
	l.visibilityCounter.show()
	return nil
}

func xdotoolButton(b Button) string {
	switch b {
	case ButtonLeft:
		return "1"
	case ButtonMiddle:
		return "2"
	case ButtonRight:
		return "3"
	default:
		return ""
	}
}

func parseXdotoolLocation(out string) (int, int) {
	var x, y int
	for _, line := range splitLines(out) {
		if v, ok := cutPrefixInt(line, "X="); ok {
			x = v
		}
		if v, ok := cutPrefixInt(line, "Y="); ok {
			y = v
		}
	}
	return x, y
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func cutPrefixInt(s, prefix string) (int, bool) {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return 0, false
	}
	v, err := strconv.Atoi(s[len(prefix):])
	if err != nil {
		return 0, false
	}
	return v, true
}
