package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/cache"
)

// newCacheCmd creates the cache command group for managing the local
// download and artifact cache.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
	}
	cmd.AddCommand(newCacheInfoCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, dir, err := openFileCache()
			if err != nil {
				return err
			}
			defer fc.Close()

			bytes, entries, err := fc.Size()
			if err != nil {
				return err
			}
			printKeyValue("Location", dir)
			printKeyValue("Entries", fmt.Sprintf("%d", entries))
			printKeyValue("Size", formatBytes(bytes))
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, _, err := openFileCache()
			if err != nil {
				return err
			}
			defer fc.Close()

			_, entries, err := fc.Size()
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", entries)
			return nil
		},
	}
}

// openFileCache opens the file cache directly, bypassing the null-cache
// degradation used by the render path.
func openFileCache() (*cache.FileCache, string, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, "", err
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, "", err
	}
	return c.(*cache.FileCache), dir, nil
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
