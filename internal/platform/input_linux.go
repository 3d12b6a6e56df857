//go:build linux && cgo

package platform

/*
#cgo LDFLAGS: -lX11 -lXtst
#include <X11/Xlib.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

static Display *mw_display = NULL;

static int mw_open(void) {
	if (mw_display != NULL) return 1;
	mw_display = XOpenDisplay(NULL);
	return mw_display != NULL;
}

static void mw_move(int x, int y) {
	if (!mw_open()) return;
	XTestFakeMotionEvent(mw_display, -1, x, y, 0);
	XFlush(mw_display);
}

static void mw_get_cursor(int *x, int *y) {
	if (!mw_open()) { *x = 0; *y = 0; return; }
	Window root = DefaultRootWindow(mw_display);
	Window retRoot, retChild;
	int rootX, rootY, winX, winY;
	unsigned int mask;
	XQueryPointer(mw_display, root, &retRoot, &retChild, &rootX, &rootY, &winX, &winY, &mask);
	*x = rootX;
	*y = rootY;
}

static void mw_button(unsigned int button, int down) {
	if (!mw_open()) return;
	XTestFakeButtonEvent(mw_display, button, down ? True : False, 0);
	XFlush(mw_display);
}

static void mw_key(unsigned int keycode, int down) {
	if (!mw_open()) return;
	XTestFakeKeyEvent(mw_display, keycode, down ? True : False, 0);
	XFlush(mw_display);
}

static int mw_screen_count(void) {
	if (!mw_open()) return 0;
	return ScreenCount(mw_display);
}

static void mw_screen_bounds(int index, int *w, int *h) {
	if (!mw_open()) { *w = 1920; *h = 1080; return; }
	Screen *s = ScreenOfDisplay(mw_display, index);
	*w = WidthOfScreen(s);
	*h = HeightOfScreen(s);
}
*/
import "C"

import (
	"fmt"

	"github.com/macwinctl/macwinctl/internal/model"
)

// linuxInput synthesizes input via XTest against the local X11 display.
type linuxInput struct {
	visibilityCounter
}

func New() Input {
	return &linuxInput{}
}

func (l *linuxInput) EnumerateDisplays() ([]model.Display, error) {
	count := int(C.mw_screen_count())
	if count == 0 {
		return fallbackDisplay(), nil
	}
	x := 0
	displays := make([]model.Display, 0, count)
	for i := 0; i < count; i++ {
		var w, h C.int
		C.mw_screen_bounds(C.int(i), &w, &h)
		displays = append(displays, model.Display{
			Name:      fmt.Sprintf("display-%d", i),
			X:         x,
			Y:         0,
			Width:     int(w),
			Height:    int(h),
			IsPrimary: i == 0,
		})
		x += int(w)
	}
	model.SortDisplays(displays)
	return displays, nil
}

func (l *linuxInput) GetCursor() (int, int, error) {
	var x, y C.int
	C.mw_get_cursor(&x, &y)
	return int(x), int(y), nil
}

func (l *linuxInput) MoveCursor(x, y int) error {
	C.mw_move(C.int(x), C.int(y))
	return nil
}

func (l *linuxInput) Click(button Button, action Action) error {
	btn, ok := x11ButtonCode(button)
	if !ok {
		return nil
	}
	C.mw_button(C.uint(btn), boolToC(action == ActionPress))
	return nil
}

func (l *linuxInput) Key(code int, action Action) error {
	C.mw_key(C.uint(code), boolToC(action == ActionPress))
	return nil
}

func (l *linuxInput) Scroll(dx, dy int) error {
	// X11 button 4/5 are the scroll-up/scroll-down detents.
	if dy > 0 {
		for i := 0; i < dy; i++ {
			C.mw_button(4, 1)
			C.mw_button(4, 0)
		}
	} else if dy < 0 {
		for i := 0; i < -dy; i++ {
			C.mw_button(5, 1)
			C.mw_button(5, 0)
		}
	}
	return nil
}

func (l *linuxInput) HideCursor() error {
	l.visibilityCounter.hide()
	// X11 has no global cursor-visibility toggle without a compositor
	// extension; tracked here only for reference-count correctness.
	return nil
}

func (l *linuxInput) ShowCursor() error {
	l.visibilityCounter.show()
	return nil
}

func boolToC(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func x11ButtonCode(b Button) (int, bool) {
	switch b {
	case ButtonLeft:
		return 1, true
	case ButtonMiddle:
		return 2, true
	case ButtonRight:
		return 3, true
	default:
		return 0, false
	}
}
