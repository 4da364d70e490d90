// Package rastersink rasterizes viewer output into PNG images.
//
// A [Sink] implements [render.Canvas] on a fogleman/gg drawing context,
// so a render pass paints directly into an in-memory raster:
//
//	sink := rastersink.New(cfg.Width, cfg.Height, rastersink.WithScale(2))
//	if err := viewer.Render(sink); err != nil { ... }
//	err := sink.EncodePNG(out)
//
// [RenderPNG] wraps the three steps for the common one-shot export.
package rastersink

import (
	"bytes"
	"image"
	"io"

	"github.com/fogleman/gg"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/render"
)

// Option configures a Sink.
type Option func(*Sink)

// WithScale supersamples the raster by the given factor. The viewer
// keeps drawing in its configured pixel space; every coordinate, width,
// and radius is multiplied on the way in. Use 2 for export-quality
// images.
func WithScale(s float64) Option {
	return func(k *Sink) {
		if s > 0 {
			k.scale = s
		}
	}
}

// Sink is a render canvas backed by an in-memory raster.
type Sink struct {
	dc    *gg.Context
	scale float64
}

// New creates a raster sink for the given viewport, in pixels before
// supersampling.
func New(width, height int, opts ...Option) *Sink {
	s := &Sink{scale: 1}
	for _, opt := range opts {
		opt(s)
	}
	s.dc = gg.NewContext(int(float64(width)*s.scale), int(float64(height)*s.scale))
	return s
}

// Clear fills the whole raster with a solid color.
func (s *Sink) Clear(c mol.RGB) {
	s.dc.SetRGB255(int(c.R), int(c.G), int(c.B))
	s.dc.Clear()
}

// Stroke draws one line segment with the requested cap style.
func (s *Sink) Stroke(x1, y1, x2, y2, width float64, c mol.RGB, style render.CapStyle) {
	lc := gg.LineCapButt
	if style == render.CapRound {
		lc = gg.LineCapRound
	}
	s.dc.SetLineCap(lc)
	s.dc.SetLineWidth(width * s.scale)
	s.dc.SetRGB255(int(c.R), int(c.G), int(c.B))
	s.dc.DrawLine(x1*s.scale, y1*s.scale, x2*s.scale, y2*s.scale)
	s.dc.Stroke()
}

// FillCircle draws a filled disc.
func (s *Sink) FillCircle(x, y, r float64, c mol.RGB) {
	s.dc.SetRGB255(int(c.R), int(c.G), int(c.B))
	s.dc.DrawCircle(x*s.scale, y*s.scale, r*s.scale)
	s.dc.Fill()
}

// Image returns the raster drawn so far. The pixels are shared with the
// sink; encode or copy before drawing again.
func (s *Sink) Image() image.Image {
	return s.dc.Image()
}

// EncodePNG writes the raster as PNG.
func (s *Sink) EncodePNG(w io.Writer) error {
	if err := s.dc.EncodePNG(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return nil
}

// RenderPNG renders the viewer's current view and returns the encoded
// PNG bytes.
func RenderPNG(v *render.Viewer, opts ...Option) ([]byte, error) {
	cfg := v.Config()
	s := New(cfg.Width, cfg.Height, opts...)
	if err := v.Render(s); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
