package base

import "image"

// Dimensions holds the width and height of an image at its original
// resolution, independent of any resolution level it was decoded at.
type Dimensions struct {
	Width  int
	Height int
}

// Metadata is the opaque key/value metadata attached to a frame.
// Keys and values are decoder-defined; insertion order is irrelevant.
type Metadata map[string]string

// Frame is a decoded pixel buffer at a given resolution level.
type Frame struct {
	Img   *image.RGBA
	Level int // Downscale factor this frame was decoded at (1 = full resolution)
}

// MemSize returns the pixel buffer footprint in bytes.
func (f *Frame) MemSize() int {
	if f == nil || f.Img == nil {
		return 0
	}
	return len(f.Img.Pix)
}
