// Package sampler downsamples decoded video frames onto the fixed width
// raster consumed by the ASCII renderer.
package sampler

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

const (
	// Width is the raster width in samples, i.e. characters per line.
	Width = 250

	// CharAspect corrects for monospace glyphs being taller than they are wide.
	CharAspect = 0.6

	// pixelDepth is the number of bytes per sample (RGBA).
	pixelDepth = 4
)

// ErrSourceNotReady is returned when a frame is requested before the video
// dimensions are known.
var ErrSourceNotReady = errors.New("source not ready")

// Raster is a row-major grid of RGBA samples.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster wraps pixels produced by a host, e.g. a browser canvas.
func NewRaster(w, h int, pix []uint8) *Raster {
	return &Raster{Width: w, Height: h, Pix: pix}
}

// Len returns the number of complete samples held by the raster.
func (r *Raster) Len() int {
	return len(r.Pix) / pixelDepth
}

// At returns the color channels of the i-th sample in row-major order.
func (r *Raster) At(i int) (red, green, blue uint8) {
	p := r.Pix[i*pixelDepth : i*pixelDepth+3]
	return p[0], p[1], p[2]
}

// Dimensions returns the raster size for a source of the given natural size.
// The height is truncated toward zero and never smaller than one row.
func Dimensions(naturalW, naturalH int) (int, int, error) {
	if naturalW <= 0 || naturalH <= 0 {
		return 0, 0, errors.Wrapf(ErrSourceNotReady, "natural size %dx%d", naturalW, naturalH)
	}
	h := int(math.Floor(float64(naturalH) * (float64(Width) / float64(naturalW)) * CharAspect))
	if h < 1 {
		h = 1
	}
	return Width, h, nil
}

// Sample draws frame into a freshly allocated Width x H buffer using a
// bilinear filter and returns its pixels.
func Sample(frame image.Image) (*Raster, error) {
	if frame == nil {
		return nil, errors.Wrap(ErrSourceNotReady, "no frame")
	}
	b := frame.Bounds()
	w, h, err := Dimensions(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)

	return NewRaster(w, h, dst.Pix), nil
}
