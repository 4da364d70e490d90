package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/pipeline"
	"github.com/flatmol/flatmol/pkg/render"
	"github.com/flatmol/flatmol/pkg/state"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // output file path (or base path for multiple formats)
	formats   []string // output formats: png, svg, gif, dot
	pdbID     string   // fetch from RCSB instead of reading a file
	afdbID    string   // fetch from AlphaFold DB instead of reading a file
	withPAE   bool     // also fetch the PAE matrix (AFDB only)
	chains    []string // restrict to these chain ids
	contacts  string   // .cst restraint file
	colorMode string   // color mode name
	outline   string   // outline style name
	width     int      // viewport width
	height    int      // viewport height
	zoom      float64  // zoom factor
	noShadow  bool     // disable shadows
	overlay   bool     // merge all frames into one view
	noAlign   bool     // skip Kabsch alignment of trajectory frames
	turntable bool     // gif: revolve instead of playing the trajectory
	steps     int      // gif turntable steps
	delay     int      // gif delay (1/100 s)
	noCache   bool     // disable caching
	refresh   bool     // bypass caches
	saveState string   // also write a viewer state snapshot here
}

// newRenderCmd creates the render command for generating structure
// projections.
//
// Default settings come from the config file on top of the py2Dmol
// defaults: 400×400 viewport, shadows at strength 0.5, full outline,
// orthographic camera.
func newRenderCmd() *cobra.Command {
	var formatsStr string
	opts := renderOpts{zoom: 1.0}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a structure to PNG, SVG, GIF, or DOT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runRender(cmd.Context(), input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), svg, gif, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.pdbID, "pdb", "", "fetch this RCSB entry instead of reading a file")
	cmd.Flags().StringVar(&opts.afdbID, "afdb", "", "fetch this AlphaFold DB accession instead of reading a file")
	cmd.Flags().BoolVar(&opts.withPAE, "pae", false, "also fetch the PAE matrix (AlphaFold DB only)")
	cmd.Flags().StringSliceVar(&opts.chains, "chains", nil, "restrict to these chain ids")
	cmd.Flags().StringVar(&opts.contacts, "contacts", "", "overlay contacts from a .cst file")
	cmd.Flags().StringVar(&opts.colorMode, "color", "", "color mode: auto, chain, plddt, rainbow, deepmind, entropy")
	cmd.Flags().StringVar(&opts.outline, "outline", "", "outline style: none, partial, full")
	cmd.Flags().IntVar(&opts.width, "width", 0, "viewport width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "viewport height in pixels")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 1.0, "zoom factor")
	cmd.Flags().BoolVar(&opts.noShadow, "no-shadow", false, "disable soft shadows")
	cmd.Flags().BoolVar(&opts.overlay, "overlay", false, "merge all frames into one view")
	cmd.Flags().BoolVar(&opts.noAlign, "no-align", false, "skip aligning trajectory frames")
	cmd.Flags().BoolVar(&opts.turntable, "turntable", false, "gif: revolve the structure instead of playing frames")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "gif turntable steps (default 60)")
	cmd.Flags().IntVar(&opts.delay, "delay", 0, "gif frame delay in 1/100 s (default 5)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the download/artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass caches and recompute")
	cmd.Flags().StringVar(&opts.saveState, "save-state", "", "also write a viewer state snapshot to this file")

	return cmd
}

// parseFormats parses the --format flag. Empty defaults to png.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	formats := strings.Split(strings.ToLower(s), ",")
	for i, f := range formats {
		formats[i] = strings.TrimSpace(f)
	}
	return formats
}

// buildPipelineOptions translates flags into pipeline options: config
// file first, then flags on top.
func buildPipelineOptions(input string, opts *renderOpts) (pipeline.Options, error) {
	cfg, err := loadRenderConfig()
	if err != nil {
		return pipeline.Options{}, err
	}

	if opts.colorMode != "" {
		mode, err := render.ParseColorMode(opts.colorMode)
		if err != nil {
			return pipeline.Options{}, err
		}
		cfg.ColorMode = mode
	}
	if opts.outline != "" {
		outline, err := render.ParseOutline(opts.outline)
		if err != nil {
			return pipeline.Options{}, err
		}
		cfg.Outline = outline
	}
	if opts.width > 0 {
		cfg.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Height = opts.height
	}
	if opts.zoom > 0 {
		cfg.Zoom = opts.zoom
	}
	if opts.noShadow {
		cfg.Shadow = false
	}
	cfg.Overlay = opts.overlay

	return pipeline.Options{
		Input:        input,
		PDBID:        opts.pdbID,
		UniProtID:    opts.afdbID,
		WithPAE:      opts.withPAE,
		Chains:       opts.chains,
		ContactsFile: opts.contacts,
		Align:        !opts.noAlign,
		Refresh:      opts.refresh,
		Config:       cfg,
		Formats:      opts.formats,
		Turntable:    opts.turntable,
		Steps:        opts.steps,
		Delay:        opts.delay,
	}, nil
}

// runRender executes the pipeline and writes the artifacts.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	pipeOpts, err := buildPipelineOptions(input, opts)
	if err != nil {
		return err
	}

	runner := newRunner(ctx, opts.noCache)
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(result.Artifacts)))

	printStats(result.Stats.Frames, result.Stats.Positions, result.CacheInfo.StructureHit)

	base := outputBase(opts.output, input, opts)
	for _, format := range opts.formats {
		path := artifactPath(base, format)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}

	if opts.saveState != "" {
		if err := state.Save(opts.saveState, state.Capture(result.Viewer)); err != nil {
			return err
		}
		printFile(opts.saveState)
	}
	return nil
}

// outputBase derives the extension-free output base path.
func outputBase(output, input string, opts *renderOpts) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipelineFormat(strings.TrimPrefix(ext, ".")) {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	switch {
	case input != "":
		return strings.TrimSuffix(input, filepath.Ext(input))
	case opts.pdbID != "":
		return strings.ToLower(opts.pdbID)
	default:
		return strings.ToLower(opts.afdbID)
	}
}

// artifactPath appends the format extension to the base path.
func artifactPath(base, format string) string {
	return base + "." + strings.ToLower(format)
}

func pipelineFormat(s string) bool {
	switch strings.ToLower(s) {
	case pipeline.FormatPNG, pipeline.FormatSVG, pipeline.FormatGIF, pipeline.FormatDOT:
		return true
	}
	return false
}
