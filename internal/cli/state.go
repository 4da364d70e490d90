package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/render/rastersink"
	"github.com/flatmol/flatmol/pkg/render/svgsink"
	"github.com/flatmol/flatmol/pkg/state"
)

// newStateCmd creates the state command group for working with saved
// viewer snapshots.
func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and render saved viewer states",
	}
	cmd.AddCommand(newStateInfoCmd())
	cmd.AddCommand(newStateRenderCmd())
	return cmd
}

// newStateInfoCmd summarizes a saved state file.
func newStateInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize a saved viewer state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := state.LoadFile(args[0])
			if err != nil {
				return err
			}

			printKeyValue("Version", fmt.Sprintf("%d", snap.Version))
			printKeyValue("Viewport", fmt.Sprintf("%d×%d", snap.Config.Width, snap.Config.Height))
			printKeyValue("Color mode", snap.Config.ColorMode)
			printKeyValue("Projection", snap.Config.Projection)
			if snap.CurrentObject != "" {
				printKeyValue("Current object", snap.CurrentObject)
			}
			printKeyValue("Frame index", fmt.Sprintf("%d", snap.FrameIndex))

			for _, obj := range snap.Objects {
				positions := 0
				if len(obj.Frames) > 0 {
					positions = len(obj.Frames[0].Coords)
				}
				detail := fmt.Sprintf("%d frame(s), %d positions", len(obj.Frames), positions)
				if len(obj.Contacts) > 0 {
					detail += fmt.Sprintf(", %d contacts", len(obj.Contacts))
				}
				printKeyValue(obj.Name, detail)
			}

			if len(snap.Selection.Positions) > 0 || len(snap.Selection.Chains) > 0 || len(snap.Selection.Boxes) > 0 {
				printKeyValue("Selection", describeSelection(snap.Selection))
			}
			return nil
		},
	}
}

// newStateRenderCmd renders a saved state without re-fetching or
// re-parsing anything.
func newStateRenderCmd() *cobra.Command {
	var (
		output string
		svg    bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a saved viewer state to PNG or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := state.LoadFile(args[0])
			if err != nil {
				return err
			}
			v, err := state.Restore(snap, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}

			var data []byte
			ext := ".png"
			if svg {
				data, err = svgsink.RenderSVG(v)
				ext = ".svg"
			} else {
				data, err = rastersink.RenderPNG(v)
			}
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ext
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&svg, "svg", false, "render to SVG instead of PNG")
	return cmd
}

// describeSelection renders the selection facets compactly.
func describeSelection(sel state.SelectionState) string {
	var parts []string
	if n := len(sel.Positions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d position(s)", n))
	}
	if len(sel.Chains) > 0 {
		parts = append(parts, "chains "+strings.Join(sel.Chains, ","))
	}
	if n := len(sel.Boxes); n > 0 {
		parts = append(parts, fmt.Sprintf("%d box(es)", n))
	}
	if sel.Mode != "" {
		parts = append(parts, sel.Mode+" mode")
	}
	return strings.Join(parts, ", ")
}
