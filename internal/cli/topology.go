package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/pipeline"
	"github.com/flatmol/flatmol/pkg/render/topology"
)

// newTopologyCmd creates the topology command, which renders a 2D
// chain/ligand/contact diagram instead of a spatial projection.
func newTopologyCmd() *cobra.Command {
	var (
		pdbID    string
		afdbID   string
		chains   []string
		contacts string
		output   string
		svg      bool
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "topology [file]",
		Short: "Render a chain topology diagram as DOT or SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			runner := newRunner(ctx, noCache)
			v, err := runner.BuildViewer(ctx, pipeline.Options{
				Input:        input,
				PDBID:        pdbID,
				UniProtID:    afdbID,
				Chains:       chains,
				ContactsFile: contacts,
			})
			if err != nil {
				return err
			}

			dot, err := topology.ToDOT(v.CurrentObject(), v.FrameIndex(), topology.Options{Detailed: detailed})
			if err != nil {
				return err
			}

			data := []byte(dot)
			ext := ".dot"
			if svg {
				if data, err = topology.RenderSVG(dot); err != nil {
					return err
				}
				ext = ".svg"
			}

			if output == "" {
				output = topologyBase(input, pdbID, afdbID) + ext
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&pdbID, "pdb", "", "fetch this RCSB entry instead of reading a file")
	cmd.Flags().StringVar(&afdbID, "afdb", "", "fetch this AlphaFold DB accession instead of reading a file")
	cmd.Flags().StringSliceVar(&chains, "chains", nil, "restrict to these chain ids")
	cmd.Flags().StringVar(&contacts, "contacts", "", "overlay contacts from a .cst file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&svg, "svg", false, "render the diagram to SVG via graphviz")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include residue ranges and confidence in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the download cache")

	return cmd
}

func topologyBase(input, pdbID, afdbID string) string {
	switch {
	case input != "":
		return strings.TrimSuffix(input, filepath.Ext(input)) + "_topology"
	case pdbID != "":
		return strings.ToLower(pdbID) + "_topology"
	default:
		return strings.ToLower(afdbID) + "_topology"
	}
}
