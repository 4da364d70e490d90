// Package pipeline provides the core visualization pipeline for flatmol.
//
// This package implements the complete load → render → encode pipeline
// shared by the CLI and the live server. Centralizing it keeps behavior
// identical across entry points and puts the caching policy in one
// place.
//
// # Architecture
//
// The pipeline consists of two cached stages:
//
//  1. Load: fetch or read a structure, parse it into frames
//  2. Render: drive a viewer over the frames and encode artifacts
//
// Raw downloads are cached inside pkg/fetch; parsed structures and
// rendered artifacts are cached here, keyed through [cache.Keyer] so
// any option that changes the output changes the key.
package pipeline

import (
	"strings"
	"time"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/render"
)

// Output formats accepted in Options.Formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatGIF = "gif"
	FormatDOT = "dot"
)

var validFormats = map[string]bool{
	FormatPNG: true,
	FormatSVG: true,
	FormatGIF: true,
	FormatDOT: true,
}

// Options selects the structure source and controls rendering.
// Exactly one of Input, PDBID, UniProtID must be set.
type Options struct {
	// Input is a local PDB or mmCIF file path.
	Input string
	// PDBID is a 4-character RCSB entry code.
	PDBID string
	// UniProtID is an AlphaFold DB accession.
	UniProtID string
	// WithPAE additionally fetches the PAE matrix (AFDB only).
	WithPAE bool

	// Chains restricts parsing to the named chains. Empty keeps all.
	Chains []string
	// ContactsFile is an optional .cst restraint file overlaid on the
	// structure.
	ContactsFile string
	// Align superposes successive frames onto their predecessor.
	Align bool
	// Refresh bypasses every cache layer.
	Refresh bool

	// Config is the render configuration. Zero value means defaults.
	Config render.Config

	// Formats lists the artifacts to produce. Empty means png.
	Formats []string

	// Turntable renders the gif format as a revolution of the first
	// frame instead of a trajectory playback.
	Turntable bool
	// Steps is the number of turntable positions (0 = 60).
	Steps int
	// Delay is the gif inter-frame delay in hundredths of a second
	// (0 = 5).
	Delay int
}

// ValidateAndSetDefaults checks source selection and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	sources := 0
	for _, s := range []string{o.Input, o.PDBID, o.UniProtID} {
		if s != "" {
			sources++
		}
	}
	if sources == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no structure source: need a file, --pdb, or --afdb")
	}
	if sources > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "multiple structure sources given")
	}

	if o.Input != "" {
		if err := errors.ValidatePath(o.Input); err != nil {
			return err
		}
	}
	for _, chain := range o.Chains {
		if err := errors.ValidateChainID(chain); err != nil {
			return err
		}
	}

	if o.Config == (render.Config{}) {
		o.Config = render.DefaultConfig()
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	for _, f := range o.Formats {
		if !validFormats[strings.ToLower(f)] {
			return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (png, svg, gif, dot)", f)
		}
	}
	return nil
}

// sourceID names the structure for logging and cache keys.
func (o *Options) sourceID() string {
	switch {
	case o.PDBID != "":
		return strings.ToUpper(o.PDBID)
	case o.UniProtID != "":
		return strings.ToUpper(o.UniProtID)
	default:
		return o.Input
	}
}

// source names the ingestion path for structure cache keys.
func (o *Options) source() string {
	switch {
	case o.PDBID != "":
		return "rcsb"
	case o.UniProtID != "":
		return "afdb"
	default:
		return "file"
	}
}

// Stats records per-stage timings and structure size.
type Stats struct {
	LoadTime   time.Duration
	RenderTime time.Duration
	Frames     int
	Positions  int
}

// CacheInfo records which stages were served from cache.
type CacheInfo struct {
	StructureHit bool
	ArtifactHits map[string]bool
}

// Result is the pipeline output: the live viewer (for further
// interaction, e.g. the play TUI) and the encoded artifacts by format.
type Result struct {
	Viewer    *render.Viewer
	Artifacts map[string][]byte

	// StructureHash identifies the loaded coordinate payload; artifact
	// cache keys derive from it.
	StructureHash string

	Stats     Stats
	CacheInfo CacheInfo
}
