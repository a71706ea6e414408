// Package imagedec provides a stdlib-backed Decoder for PNG and JPEG
// sequences. Resolution levels are integer box downsamples of the full
// decode: level 1 is the original image, level n averages n by n blocks.
package imagedec

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"seqcache"
)

// Decoder decodes frames from image files on disk.
// The zero value is ready to use; it is stateless and safe for
// concurrent use.
type Decoder struct{}

// New returns a Decoder.
func New() *Decoder {
	return &Decoder{}
}

// ProbeMetadata reads the image header without decoding pixels.
func (d *Decoder) ProbeMetadata(path string) (seqcache.Dimensions, seqcache.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return seqcache.Dimensions{}, nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return seqcache.Dimensions{}, nil, fmt.Errorf("probe %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return seqcache.Dimensions{}, nil, err
	}

	meta := seqcache.Metadata{
		"FileName": filepath.Base(path),
		"FileSize": strconv.FormatInt(info.Size(), 10),
		"Format":   format,
	}
	return seqcache.Dimensions{Width: cfg.Width, Height: cfg.Height}, meta, nil
}

// Decode decodes the image at path and downsamples it by level.
func (d *Decoder) Decode(path string, level int) (*seqcache.Frame, error) {
	if level < 1 {
		level = 1
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}

	rgba := toRGBA(img)
	if level > 1 {
		rgba = downsample(rgba, level)
	}

	return &seqcache.Frame{Img: rgba, Level: level}, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// downsample box-filters src by an integer factor. The result is at least
// one pixel per axis.
func downsample(src *image.RGBA, factor int) *image.RGBA {
	b := src.Bounds()
	w := max(1, b.Dx()/factor)
	h := max(1, b.Dy()/factor)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl, a, n uint32
			for dy := 0; dy < factor; dy++ {
				for dx := 0; dx < factor; dx++ {
					sx := b.Min.X + x*factor + dx
					sy := b.Min.Y + y*factor + dy
					if sx >= b.Max.X || sy >= b.Max.Y {
						continue
					}
					o := src.PixOffset(sx, sy)
					r += uint32(src.Pix[o])
					g += uint32(src.Pix[o+1])
					bl += uint32(src.Pix[o+2])
					a += uint32(src.Pix[o+3])
					n++
				}
			}
			o := dst.PixOffset(x, y)
			dst.Pix[o] = uint8(r / n)
			dst.Pix[o+1] = uint8(g / n)
			dst.Pix[o+2] = uint8(bl / n)
			dst.Pix[o+3] = uint8(a / n)
		}
	}

	return dst
}
