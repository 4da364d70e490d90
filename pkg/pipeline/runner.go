package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flatmol/flatmol/pkg/cache"
)

// Runner encapsulates pipeline execution with caching. Both CLI and
// server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it does not
// store pipeline results. Multiple goroutines can safely share one
// Runner with different options; the viewers it builds are not shared.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer uses DefaultKeyer, a nil cache disables caching, and a
// nil logger falls back to log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
		CacheInfo: CacheInfo{ArtifactHits: make(map[string]bool)},
	}

	loadStart := time.Now()
	ld, structureHit, err := r.loadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.StructureHash = ld.hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Frames = len(ld.frames)
	if len(ld.frames) > 0 {
		result.Stats.Positions = ld.frames[0].Len()
	}
	result.CacheInfo.StructureHit = structureHit

	r.Logger.Info("loaded structure",
		"id", opts.sourceID(),
		"frames", result.Stats.Frames,
		"positions", result.Stats.Positions,
		"cached", structureHit,
		"duration", result.Stats.LoadTime)

	renderStart := time.Now()
	if err := r.renderArtifacts(ctx, ld, opts, result); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}
