package blocks

import (
	"math"
	"strings"
)

// Handle is a compass point of an image's resize frame.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

const (
	MinImageWidth  = 60
	MinImageHeight = 40
	// CanvasGutter is subtracted from the canvas width to get the widest
	// allowed image
	CanvasGutter = 16
)

// Device is a canvas preview size.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
)

// DeviceWidth returns the canvas width in pixels for a device. Unknown
// devices get the desktop width.
func DeviceWidth(d Device) int {
	switch d {
	case DeviceTablet:
		return 480
	case DeviceMobile:
		return 360
	default:
		return 640
	}
}

// ValidHandle reports whether h is one of the eight compass handles.
func ValidHandle(h Handle) bool {
	switch h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

// ResizeSession holds the dimensions captured when a resize drag starts.
// Every pointer move is applied against this fixed baseline.
type ResizeSession struct {
	Handle      Handle `json:"handle"`
	StartWidth  int    `json:"startWidth"`
	StartHeight int    `json:"startHeight"`
	CanvasWidth int    `json:"canvasWidth"`
}

// BeginResize captures the baseline of an image block. Auto dimensions
// start from 300x150. It reports false for other block types and unknown
// handles.
func BeginResize(b Block, h Handle, canvasWidth int) (ResizeSession, bool) {
	p, ok := b.Props.(ImageProps)
	if !ok || !ValidHandle(h) {
		return ResizeSession{}, false
	}
	s := ResizeSession{Handle: h, StartWidth: p.Width, StartHeight: p.Height, CanvasWidth: canvasWidth}
	if s.StartWidth <= 0 {
		s.StartWidth = fallbackResizeWidth
	}
	if s.StartHeight <= 0 {
		s.StartHeight = fallbackResizeHeight
	}
	return s, true
}

// Apply resizes an image block by the pointer delta measured from the
// start of the drag. Only the axes touched by the handle change.
func (s ResizeSession) Apply(b Block, dx, dy float64) Block {
	p, ok := b.Props.(ImageProps)
	if !ok {
		return b
	}
	h := string(s.Handle)

	if strings.Contains(h, "e") || strings.Contains(h, "w") {
		w := float64(s.StartWidth) + dx
		if strings.Contains(h, "w") {
			w = float64(s.StartWidth) - dx
		}
		canvas := s.CanvasWidth
		if canvas <= 0 {
			canvas = DeviceWidth(DeviceDesktop)
		}
		width := max(MinImageWidth, int(math.Round(w)))
		p.Width = min(canvas-CanvasGutter, width)
	}
	if strings.Contains(h, "n") || strings.Contains(h, "s") {
		v := float64(s.StartHeight) + dy
		if strings.Contains(h, "n") {
			v = float64(s.StartHeight) - dy
		}
		p.Height = max(MinImageHeight, int(math.Round(v)))
	}
	return New(p)
}

// Resize applies a one-shot resize of an image block on a canvas of the
// given width, using the block's current dimensions as the baseline.
func Resize(b Block, h Handle, dx, dy float64, canvasWidth int) Block {
	s, ok := BeginResize(b, h, canvasWidth)
	if !ok {
		return b
	}
	return s.Apply(b, dx, dy)
}

// ResizeAt applies a resize session to the block at loc.
func ResizeAt(doc []Block, loc Location, s ResizeSession, dx, dy float64) []Block {
	b, ok := BlockAt(doc, loc)
	if !ok || b.Type != TypeImage {
		return doc
	}
	return ReplaceAt(doc, loc, s.Apply(b, dx, dy))
}
