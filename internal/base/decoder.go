package base

// Decoder is the image decoding capability the cache pulls frames through.
// Implementations must be safe for concurrent use: metadata probes run on
// the caller's goroutine while decodes run on a background loader.
type Decoder interface {
	// ProbeMetadata reads the original dimensions and metadata of the image
	// at path without decoding its pixels.
	ProbeMetadata(path string) (Dimensions, Metadata, error)

	// Decode decodes the image at path at the given resolution level
	// (a downscale factor, 1 = full resolution).
	Decode(path string, level int) (*Frame, error)
}
