// Package anim assembles animated GIFs from a viewer.
//
// Two animation kinds are supported: [Trajectory] plays the current
// object's frames in order, and [Turntable] spins the current frame a
// full revolution around the vertical axis. Both drive the ordinary
// render path one frame at a time and quantize the raster output into
// GIF palette frames, so everything the still renderer does (shadows,
// outlines, selections) appears in the animation.
package anim

import (
	"image"
	"image/color/palette"
	"image/gif"
	"io"
	"math"

	"github.com/disintegration/imaging"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/render"
	"github.com/flatmol/flatmol/pkg/render/rastersink"
)

// Options controls animation assembly.
type Options struct {
	// Width and Height override the viewer's viewport size when > 0.
	// The render still happens at viewer size; frames are resampled,
	// which keeps line widths consistent with still output.
	Width  int
	Height int

	// Delay between frames in hundredths of a second. Zero means 5
	// (20 fps).
	Delay int

	// Steps is the number of turntable positions for a full turn.
	// Zero means 60. Ignored by Trajectory.
	Steps int
}

func (o Options) delay() int {
	if o.Delay <= 0 {
		return 5
	}
	return o.Delay
}

// Trajectory renders every frame of the viewer's current object into an
// animated GIF. The viewer's frame position is restored afterwards.
func Trajectory(v *render.Viewer, opts Options) (*gif.GIF, error) {
	n := v.FrameCount()
	if n == 0 {
		return nil, errors.New(errors.ErrCodeFrameNotFound, "no frames to animate")
	}

	restore := v.FrameIndex()
	defer func() { _ = v.SetFrame(restore) }()

	out := &gif.GIF{}
	for i := 0; i < n; i++ {
		if err := v.SetFrame(i); err != nil {
			return nil, err
		}
		img, err := renderFrame(v, opts)
		if err != nil {
			return nil, err
		}
		out.Image = append(out.Image, img)
		out.Delay = append(out.Delay, opts.delay())
	}
	return out, nil
}

// Turntable renders one full revolution of the current frame around the
// vertical screen axis. The camera rotation is restored afterwards.
func Turntable(v *render.Viewer, opts Options) (*gif.GIF, error) {
	if v.FrameCount() == 0 {
		return nil, errors.New(errors.ErrCodeFrameNotFound, "no frames to animate")
	}
	steps := opts.Steps
	if steps <= 0 {
		steps = 60
	}

	restore := v.Rotation()
	defer v.SetRotation(restore)

	step := 2 * math.Pi / float64(steps)
	out := &gif.GIF{}
	for i := 0; i < steps; i++ {
		img, err := renderFrame(v, opts)
		if err != nil {
			return nil, err
		}
		out.Image = append(out.Image, img)
		out.Delay = append(out.Delay, opts.delay())
		v.Rotate(step, 0)
	}
	return out, nil
}

// Encode writes the assembled GIF.
func Encode(w io.Writer, g *gif.GIF) error {
	if err := gif.EncodeAll(w, g); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode gif")
	}
	return nil
}

// renderFrame draws the viewer's current view, resamples if requested,
// and quantizes to a palette frame.
func renderFrame(v *render.Viewer, opts Options) (*image.Paletted, error) {
	cfg := v.Config()
	s := rastersink.New(cfg.Width, cfg.Height)
	if err := v.Render(s); err != nil {
		return nil, err
	}

	img := s.Image()
	if opts.Width > 0 || opts.Height > 0 {
		w, h := opts.Width, opts.Height
		if w <= 0 {
			w = cfg.Width * h / cfg.Height
		}
		if h <= 0 {
			h = cfg.Height * w / cfg.Width
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	return quantize(img), nil
}

// quantize converts a frame to the shared Plan9 palette. Per-pixel Set
// does the nearest-color mapping; tube renders have large flat regions,
// so error diffusion buys little here.
func quantize(img image.Image) *image.Paletted {
	bounds := img.Bounds()
	out := image.NewPaletted(bounds, palette.Plan9)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
