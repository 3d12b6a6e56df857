//go:build darwin && cgo

package clipboard

/*
#cgo darwin CFLAGS: -x objective-c -fobjc-arc
#cgo darwin LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>

static int clipboard_get_text(char **out, int *length) {
	@autoreleasepool {
		NSPasteboard *pb = [NSPasteboard generalPasteboard];
		NSString *value = [pb stringForType:NSPasteboardTypeString];
		if (!value) {
			return 0;
		}
		const char *utf8 = [value UTF8String];
		if (!utf8) {
			return 0;
		}
		int len = (int)strlen(utf8);
		char *buffer = (char *)malloc(len);
		memcpy(buffer, utf8, len);
		*out = buffer;
		*length = len;
		return 1;
	}
}

static int clipboard_set_text(const char *text, int length) {
	@autoreleasepool {
		NSPasteboard *pb = [NSPasteboard generalPasteboard];
		[pb clearContents];
		NSString *value = [[NSString alloc] initWithBytes:text length:length encoding:NSUTF8StringEncoding];
		if (!value) {
			return 0;
		}
		return [pb setString:value forType:NSPasteboardTypeString] ? 1 : 0;
	}
}
*/
import "C"

import (
	"errors"
	"unsafe"
)

// SystemClipboard accesses the macOS pasteboard via Cocoa.
type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (s *SystemClipboard) GetText() (string, error) {
	var out *C.char
	var length C.int
	if C.clipboard_get_text(&out, &length) == 0 {
		return "", errors.New("clipboard: no text content")
	}
	defer C.free(unsafe.Pointer(out))
	return C.GoStringN(out, length), nil
}

func (s *SystemClipboard) SetText(text string) error {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))
	if C.clipboard_set_text(cText, C.int(len(text))) == 0 {
		return errors.New("clipboard: failed to set text")
	}
	return nil
}
