// Package svgsink writes viewer output as standalone SVG documents.
//
// A [Sink] implements [render.Canvas] by accumulating SVG elements; the
// finished document comes from [Sink.Bytes]. Strokes map to <line>
// elements and discs to <circle>, so the output stays a faithful
// element-per-primitive record of the draw pass.
package svgsink

import (
	"bytes"
	"fmt"

	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/render"
)

// Option configures a Sink.
type Option func(*Sink)

// WithPrecision sets the number of coordinate decimal places. The
// default of 2 keeps sub-pixel fidelity; 0 roughly halves file size on
// large scenes.
func WithPrecision(digits int) Option {
	return func(s *Sink) {
		if digits >= 0 {
			s.prec = digits
		}
	}
}

// Sink is a render canvas that emits SVG elements.
type Sink struct {
	width  int
	height int
	prec   int

	background    mol.RGB
	hasBackground bool
	body          bytes.Buffer
}

// New creates an SVG sink for the given viewport.
func New(width, height int, opts ...Option) *Sink {
	s := &Sink{width: width, height: height, prec: 2}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clear starts a fresh document with the given background.
func (s *Sink) Clear(c mol.RGB) {
	s.body.Reset()
	s.background = c
	s.hasBackground = true
}

// Stroke emits one line element.
func (s *Sink) Stroke(x1, y1, x2, y2, width float64, c mol.RGB, style render.CapStyle) {
	linecap := "butt"
	if style == render.CapRound {
		linecap = "round"
	}
	fmt.Fprintf(&s.body,
		`  <line x1="%.*f" y1="%.*f" x2="%.*f" y2="%.*f" stroke="%s" stroke-width="%.*f" stroke-linecap="%s"/>`+"\n",
		s.prec, x1, s.prec, y1, s.prec, x2, s.prec, y2, hexColor(c), s.prec, width, linecap)
}

// FillCircle emits one filled circle element.
func (s *Sink) FillCircle(x, y, r float64, c mol.RGB) {
	fmt.Fprintf(&s.body,
		`  <circle cx="%.*f" cy="%.*f" r="%.*f" fill="%s"/>`+"\n",
		s.prec, x, s.prec, y, s.prec, r, hexColor(c))
}

// Bytes assembles the SVG document drawn so far.
func (s *Sink) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		s.width, s.height, s.width, s.height)
	if s.hasBackground {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", hexColor(s.background))
	}
	buf.Write(s.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// RenderSVG renders the viewer's current view and returns the SVG
// document bytes.
func RenderSVG(v *render.Viewer, opts ...Option) ([]byte, error) {
	cfg := v.Config()
	s := New(cfg.Width, cfg.Height, opts...)
	if err := v.Render(s); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func hexColor(c mol.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
