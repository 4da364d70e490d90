package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/fetch"
)

// fetchTTL bounds how long downloaded structures stay cached.
const fetchTTL = 30 * 24 * time.Hour

// newFetchCmd creates the fetch command for downloading structures
// from RCSB or the AlphaFold DB.
func newFetchCmd() *cobra.Command {
	var (
		afdb    bool
		output  string
		withPAE bool
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Download a structure from RCSB or the AlphaFold DB",
		Long: `Download a structure file and save it locally.

By default the id is treated as an RCSB PDB entry and fetched as
mmCIF. With --afdb the id is a UniProt accession and the predicted
structure comes from the AlphaFold DB, optionally with its PAE matrix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := strings.ToUpper(args[0])
			backend := newCache(noCache)

			spin := newSpinner(ctx, fmt.Sprintf("Fetching %s", id))
			spin.Start()

			var (
				data []byte
				err  error
			)
			if afdb {
				data, err = fetch.NewAFDBClient(backend, fetchTTL).Fetch(ctx, id, refresh)
			} else {
				data, err = fetch.NewRCSBClient(backend, fetchTTL).Fetch(ctx, id, refresh)
			}
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Fetch failed: %v", err))
				return err
			}
			spin.StopWithSuccess(fmt.Sprintf("Fetched %s", id))

			path := output
			if path == "" {
				if afdb {
					path = strings.ToLower(id) + ".pdb"
				} else {
					path = strings.ToLower(id) + ".cif"
				}
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			printFile(path)

			if withPAE {
				if !afdb {
					printWarning("PAE matrices are only available from the AlphaFold DB")
					return nil
				}
				pae, size, err := fetch.NewAFDBClient(backend, fetchTTL).FetchPAE(ctx, id, refresh)
				if err != nil {
					printWarning("PAE unavailable: %v", err)
					return nil
				}
				paePath := strings.TrimSuffix(path, ".pdb") + "_pae.json"
				if err := writePAE(paePath, pae, size); err != nil {
					return err
				}
				printFile(paePath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&afdb, "afdb", false, "treat the id as a UniProt accession and fetch from the AlphaFold DB")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&withPAE, "pae", false, "also download the PAE matrix (AlphaFold DB only)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the download cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache and re-download")

	return cmd
}

// writePAE saves a quantized PAE matrix as a JSON object with its
// dimension, so it can be reattached to a structure later.
func writePAE(path string, pae []uint8, size int) error {
	payload := struct {
		Size int     `json:"size"`
		PAE  []uint8 `json:"pae"`
	}{Size: size, PAE: pae}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
