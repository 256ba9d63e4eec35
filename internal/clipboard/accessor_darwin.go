//go:build darwin && cgo

package clipboard

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation

#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

// Returns a newline-joined list of pasteboard type identifiers.
char* pasteboardTypes(void) {
    @autoreleasepool {
        NSPasteboard *pb = [NSPasteboard generalPasteboard];
        NSArray<NSPasteboardType> *types = [pb types];
        if (types == nil) {
            return strdup("");
        }
        NSString *joined = [types componentsJoinedByString:@"\n"];
        return strdup([joined UTF8String]);
    }
}

// Returns a newline-joined list of file URLs, or an empty string.
char* pasteboardFileURLs(void) {
    @autoreleasepool {
        NSPasteboard *pb = [NSPasteboard generalPasteboard];
        NSArray *urls = [pb readObjectsForClasses:@[[NSURL class]]
                                          options:@{NSPasteboardURLReadingFileURLsOnlyKey: @YES}];
        if (urls == nil || [urls count] == 0) {
            return strdup("");
        }
        NSMutableArray *strs = [NSMutableArray arrayWithCapacity:[urls count]];
        for (NSURL *u in urls) {
            [strs addObject:[u absoluteString]];
        }
        return strdup([[strs componentsJoinedByString:@"\n"] UTF8String]);
    }
}

char* pasteboardString(NSPasteboardType type) {
    @autoreleasepool {
        NSPasteboard *pb = [NSPasteboard generalPasteboard];
        NSString *s = [pb stringForType:type];
        if (s == nil) {
            return strdup("");
        }
        return strdup([s UTF8String]);
    }
}

char* pasteboardText(void)   { return pasteboardString(NSPasteboardTypeString); }
char* pasteboardMarkup(void) { return pasteboardString(NSPasteboardTypeHTML); }
*/
import "C"

import (
	"strings"
	"unsafe"
)

// darwinAccessor reads the general NSPasteboard.
type darwinAccessor struct{}

func newPlatformAccessor() Accessor {
	return &darwinAccessor{}
}

func takeLines(cstr *C.char) []string {
	defer C.free(unsafe.Pointer(cstr))
	s := C.GoString(cstr)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func takeString(cstr *C.char) string {
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr)
}

func (a *darwinAccessor) Formats() ([]string, error) {
	return takeLines(C.pasteboardTypes()), nil
}

func (a *darwinAccessor) ReadFileURLs() ([]string, error) {
	return takeLines(C.pasteboardFileURLs()), nil
}

func (a *darwinAccessor) ReadText() (string, error) {
	return takeString(C.pasteboardText()), nil
}

func (a *darwinAccessor) ReadMarkup() (string, error) {
	return takeString(C.pasteboardMarkup()), nil
}
