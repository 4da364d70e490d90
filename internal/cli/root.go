package cli

import (
	"context"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/buildinfo"
	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "flatmol"

// Execute runs the flatmol CLI and returns an error if any command
// fails. The logger is attached to the context and accessible to all
// commands via loggerFromContext; --verbose switches it to debug level.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd builds the root command with all subcommands registered.
func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "flatmol renders 3D molecular structures as pseudo-3D tube projections",
		Long:         `flatmol is a CLI tool for rendering time-varying molecular structures (proteins, nucleic acids, ligands) as 2D tube projections with approximate soft shadows and depth tinting, without a 3D graphics pipeline.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newPlayCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newTopologyCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newStateCmd())
	root.AddCommand(newCacheCmd())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, loggerFromContext(ctx))
}

// newCache opens the file cache, degrading to a null cache when the
// cache directory is unavailable.
func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return c
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/flatmol/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
