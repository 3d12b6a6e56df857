//go:build darwin && cgo

package platform

/*
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>

static void cg_move_cursor(int x, int y) {
	CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, CGPointMake(x, y), kCGMouseButtonLeft);
	CGEventPost(kCGHIDEventTap, event);
	CFRelease(event);
}

static void cg_mouse_button(int x, int y, int button, int down) {
	CGEventType downType, upType;
	CGMouseButton btn;
	switch (button) {
	case 1:
		downType = kCGEventRightMouseDown;
		upType = kCGEventRightMouseUp;
		btn = kCGMouseButtonRight;
		break;
	case 2:
		downType = kCGEventOtherMouseDown;
		upType = kCGEventOtherMouseUp;
		btn = kCGMouseButtonCenter;
		break;
	default:
		downType = kCGEventLeftMouseDown;
		upType = kCGEventLeftMouseUp;
		btn = kCGMouseButtonLeft;
		break;
	}
	CGEventType t = down ? downType : upType;
	CGEventRef event = CGEventCreateMouseEvent(NULL, t, CGPointMake(x, y), btn);
	CGEventPost(kCGHIDEventTap, event);
	CFRelease(event);
}

static void cg_scroll(int dx, int dy) {
	CGEventRef event = CGEventCreateScrollWheelEvent(NULL, kCGScrollEventUnitLine, 2, dy, dx);
	CGEventPost(kCGHIDEventTap, event);
	CFRelease(event);
}

static void cg_key(int keyCode, int down) {
	CGEventRef event = CGEventCreateKeyboardEvent(NULL, (CGKeyCode)keyCode, down ? true : false);
	CGEventPost(kCGHIDEventTap, event);
	CFRelease(event);
}

static void cg_get_cursor(int *x, int *y) {
	CGEventRef event = CGEventCreate(NULL);
	CGPoint pt = CGEventGetLocation(event);
	CFRelease(event);
	*x = (int)pt.x;
	*y = (int)pt.y;
}

static void cg_show_cursor(void) { CGDisplayShowCursor(kCGDirectMainDisplay); }
static void cg_hide_cursor(void) { CGDisplayHideCursor(kCGDirectMainDisplay); }

static int cg_display_count(void) {
	uint32_t count = 0;
	CGGetActiveDisplayList(0, NULL, &count);
	return (int)count;
}

static void cg_display_bounds(int index, int *x, int *y, int *w, int *h, int *isMain) {
	uint32_t count = 0;
	CGDirectDisplayID ids[32];
	CGGetActiveDisplayList(32, ids, &count);
	if ((uint32_t)index >= count) {
		*x = 0; *y = 0; *w = 1920; *h = 1080; *isMain = 1;
		return;
	}
	CGRect bounds = CGDisplayBounds(ids[index]);
	*x = (int)bounds.origin.x;
	*y = (int)bounds.origin.y;
	*w = (int)bounds.size.width;
	*h = (int)bounds.size.height;
	*isMain = CGDisplayIsMain(ids[index]) ? 1 : 0;
}
*/
import "C"

import (
	"fmt"

	"github.com/macwinctl/macwinctl/internal/model"
)

// darwinInput synthesizes input via CoreGraphics CGEvent posting.
type darwinInput struct {
	visibilityCounter
}

// New constructs the platform Input implementation for this build.
func New() Input {
	return &darwinInput{}
}

func (d *darwinInput) EnumerateDisplays() ([]model.Display, error) {
	count := int(C.cg_display_count())
	if count == 0 {
		return fallbackDisplay(), nil
	}
	displays := make([]model.Display, 0, count)
	for i := 0; i < count; i++ {
		var x, y, w, h, isMain C.int
		C.cg_display_bounds(C.int(i), &x, &y, &w, &h, &isMain)
		displays = append(displays, model.Display{
			Name:      fmt.Sprintf("display-%d", i),
			X:         int(x),
			Y:         int(y),
			Width:     int(w),
			Height:    int(h),
			IsPrimary: isMain != 0,
		})
	}
	model.SortDisplays(displays)
	return displays, nil
}

func (d *darwinInput) GetCursor() (int, int, error) {
	var x, y C.int
	C.cg_get_cursor(&x, &y)
	return int(x), int(y), nil
}

func (d *darwinInput) MoveCursor(x, y int) error {
	C.cg_move_cursor(C.int(x), C.int(y))
	return nil
}

func (d *darwinInput) Click(button Button, action Action) error {
	btn, ok := darwinButtonCode(button)
	if !ok {
		return nil
	}
	x, y, err := d.GetCursor()
	if err != nil {
		return err
	}
	C.cg_mouse_button(C.int(x), C.int(y), C.int(btn), boolToC(action == ActionPress))
	return nil
}

func (d *darwinInput) Key(code int, action Action) error {
	C.cg_key(C.int(code), boolToC(action == ActionPress))
	return nil
}

func (d *darwinInput) Scroll(dx, dy int) error {
	C.cg_scroll(C.int(dx), C.int(dy))
	return nil
}

func (d *darwinInput) HideCursor() error {
	if d.visibilityCounter.hide() {
		C.cg_hide_cursor()
	}
	return nil
}

func (d *darwinInput) ShowCursor() error {
	if d.visibilityCounter.show() {
		C.cg_show_cursor()
	}
	return nil
}

func darwinButtonCode(b Button) (int, bool) {
	switch b {
	case ButtonLeft:
		return 0, true
	case ButtonRight:
		return 1, true
	case ButtonMiddle:
		return 2, true
	default:
		return 0, false
	}
}

func boolToC(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
