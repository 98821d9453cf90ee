//go:build darwin

package capture

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <dlfcn.h>
#include <stdlib.h>

typedef struct {
    void*  data;
    size_t size;
    int    width;
    int    height;
    size_t bytesPerRow;
} FrameData;

// CGWindowListCreateImage is unavailable in the macOS 15 SDK headers but still
// present in the CoreGraphics dylib. Load it dynamically.
typedef CGImageRef (*CGWindowListCreateImageFunc)(
    CGRect screenBounds,
    uint32_t listOption,
    uint32_t windowID,
    uint32_t imageOption
);

static CGWindowListCreateImageFunc getCGWindowListCreateImage(void) {
    static CGWindowListCreateImageFunc fn = NULL;
    if (!fn) {
        fn = (CGWindowListCreateImageFunc)dlsym(RTLD_DEFAULT, "CGWindowListCreateImage");
    }
    return fn;
}

FrameData captureDisplay(CGDirectDisplayID displayID) {
    FrameData result = {0};

    CGWindowListCreateImageFunc fn = getCGWindowListCreateImage();
    if (!fn) {
        return result;
    }

    CGRect bounds = CGDisplayBounds(displayID);
    // kCGWindowListOptionOnScreenOnly = 1, kCGNullWindowID = 0, kCGWindowImageDefault = 0
    CGImageRef image = fn(bounds, 1, 0, 0);
    if (!image) {
        return result;
    }

    result.width  = (int)CGImageGetWidth(image);
    result.height = (int)CGImageGetHeight(image);

    result.bytesPerRow = result.width * 4;
    result.size        = result.bytesPerRow * result.height;
    result.data        = malloc(result.size);
    if (!result.data) {
        CGImageRelease(image);
        result.size = 0;
        return result;
    }

    CGColorSpaceRef cs = CGColorSpaceCreateDeviceRGB();
    CGContextRef ctx = CGBitmapContextCreate(
        result.data,
        result.width,
        result.height,
        8,
        result.bytesPerRow,
        cs,
        kCGImageAlphaPremultipliedLast
    );
    CGContextDrawImage(ctx, CGRectMake(0, 0, result.width, result.height), image);
    CGContextRelease(ctx);
    CGColorSpaceRelease(cs);
    CGImageRelease(image);

    return result;
}

void freeFrameData(void* data) {
    free(data);
}
*/
import "C"

import (
	"fmt"
	"image"
	"time"
	"unsafe"
)

// CGCapturer implements Capturer using CoreGraphics.
type CGCapturer struct {
	displayID C.CGDirectDisplayID
}

// NewScreenCapturer returns a CoreGraphics capturer for the display index.
func NewScreenCapturer(displayIndex int) (Capturer, error) {
	return NewCGCapturer(displayIndex)
}

// NewCGCapturer creates a screen capturer for the given display (0 = main).
func NewCGCapturer(displayIndex int) (*CGCapturer, error) {
	var displayID C.CGDirectDisplayID
	if displayIndex == 0 {
		displayID = C.CGMainDisplayID()
	} else {
		var displays [16]C.CGDirectDisplayID
		var count C.uint32_t
		C.CGGetActiveDisplayList(16, &displays[0], &count)
		if displayIndex < 0 || displayIndex >= int(count) {
			return nil, fmt.Errorf("display index %d out of range (have %d displays)", displayIndex, count)
		}
		displayID = displays[displayIndex]
	}
	return &CGCapturer{displayID: displayID}, nil
}

func (c *CGCapturer) CaptureFrame() (*Frame, error) {
	fd := C.captureDisplay(c.displayID)
	if fd.data == nil {
		return nil, ErrCaptureFailed
	}
	defer C.freeFrameData(fd.data)

	w := int(fd.width)
	h := int(fd.height)
	byteLen := int(fd.size)

	pix := make([]byte, byteLen)
	copy(pix, unsafe.Slice((*byte)(fd.data), byteLen))

	img := &image.RGBA{
		Pix:    pix,
		Stride: int(fd.bytesPerRow),
		Rect:   image.Rect(0, 0, w, h),
	}
	return &Frame{Image: img, Timestamp: time.Now()}, nil
}
