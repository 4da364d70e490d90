package pipeline

import (
	"bytes"
	"context"
	"image/gif"
	"strings"
	"time"

	"github.com/flatmol/flatmol/pkg/anim"
	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/render"
	"github.com/flatmol/flatmol/pkg/render/rastersink"
	"github.com/flatmol/flatmol/pkg/render/svgsink"
	"github.com/flatmol/flatmol/pkg/render/topology"
)

// artifactTTL bounds how long rendered artifacts stay cached.
const artifactTTL = 7 * 24 * time.Hour

// renderArtifacts builds the viewer from the loaded structure and
// produces every requested format, reusing cached artifacts where the
// key matches.
func (r *Runner) renderArtifacts(ctx context.Context, ld *loaded, opts Options, result *Result) error {
	v, err := r.assembleViewer(ld, opts)
	if err != nil {
		return err
	}
	result.Viewer = v

	for _, format := range opts.Formats {
		format = strings.ToLower(format)
		key := r.artifactKey(ld.hash, format, v, opts)

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				result.Artifacts[format] = data
				result.CacheInfo.ArtifactHits[format] = true
				r.Logger.Debugf("artifact cache hit for %s", format)
				continue
			}
		}

		data, err := r.encode(v, format, opts)
		if err != nil {
			return err
		}
		result.Artifacts[format] = data
		if err := r.Cache.Set(ctx, key, data, artifactTTL); err != nil {
			r.Logger.Debugf("artifact cache write failed: %v", err)
		}
	}
	return nil
}

// assembleViewer builds a viewer holding every loaded frame plus any
// contact overlay.
func (r *Runner) assembleViewer(ld *loaded, opts Options) (*render.Viewer, error) {
	v := render.NewViewer(opts.Config, r.Logger)
	for _, f := range ld.frames {
		v.AppendFrame(opts.sourceID(), f, opts.Align)
	}
	if err := v.SetFrame(0); err != nil {
		return nil, err
	}

	if opts.ContactsFile != "" {
		contacts, err := mol.ParseContactsFile(opts.ContactsFile)
		if err != nil {
			return nil, err
		}
		if err := v.AddContacts(opts.sourceID(), contacts); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// BuildViewer loads the structure selected by opts and assembles a
// viewer without rendering any artifacts. Interactive consumers use it
// to drive the viewer themselves.
func (r *Runner) BuildViewer(ctx context.Context, opts Options) (*render.Viewer, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ld, _, err := r.loadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.assembleViewer(ld, opts)
}

// encode produces one artifact from the viewer's current view.
func (r *Runner) encode(v *render.Viewer, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatPNG:
		return rastersink.RenderPNG(v)
	case FormatSVG:
		return svgsink.RenderSVG(v)
	case FormatGIF:
		return r.encodeGIF(v, opts)
	case FormatDOT:
		dot, err := topology.ToDOT(v.CurrentObject(), v.FrameIndex(), topology.Options{})
		if err != nil {
			return nil, err
		}
		return []byte(dot), nil
	default:
		// Options validation already rejected unknown formats.
		panic("unreachable format " + format)
	}
}

// encodeGIF animates the viewer: a single-frame structure always spins,
// a trajectory plays back unless a turntable was asked for.
func (r *Runner) encodeGIF(v *render.Viewer, opts Options) ([]byte, error) {
	animOpts := anim.Options{Steps: opts.Steps, Delay: opts.Delay}

	var g *gif.GIF
	var err error
	if opts.Turntable || v.FrameCount() < 2 {
		g, err = anim.Turntable(v, animOpts)
	} else {
		g, err = anim.Trajectory(v, animOpts)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := anim.Encode(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// artifactKey derives the cache key for one rendered artifact. Rotation
// participates so a re-oriented render never reuses a stale image.
func (r *Runner) artifactKey(hash, format string, v *render.Viewer, opts Options) string {
	cfg := opts.Config
	rot := v.Rotation()
	keyOpts := cache.ArtifactKeyOpts{
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		ColorMode: cfg.ColorMode.String(),
		Outline:   cfg.Outline.String(),
		Zoom:      cfg.Zoom,
	}
	copy(keyOpts.Rotation[:], rot[:])
	return r.Keyer.ArtifactKey(hash, keyOpts)
}
