package cli

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/pkg/pipeline"
	"github.com/flatmol/flatmol/pkg/render"
	"github.com/flatmol/flatmol/pkg/render/rastersink"
)

// newPlayCmd creates the play command: an interactive terminal viewer
// that animates trajectories and lets the user rotate and zoom the
// structure.
func newPlayCmd() *cobra.Command {
	var (
		pdbID   string
		afdbID  string
		chains  []string
		color   string
		delayMs int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "play [file]",
		Short: "Interactively view a structure in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			cfg, err := loadRenderConfig()
			if err != nil {
				return err
			}
			if color != "" {
				mode, err := render.ParseColorMode(color)
				if err != nil {
					return err
				}
				cfg.ColorMode = mode
			}

			runner := newRunner(cmd.Context(), noCache)
			v, err := runner.BuildViewer(cmd.Context(), pipeline.Options{
				Input:     input,
				PDBID:     pdbID,
				UniProtID: afdbID,
				Chains:    chains,
				Align:     true,
				Config:    cfg,
			})
			if err != nil {
				return err
			}

			model := newPlayModel(v, time.Duration(delayMs)*time.Millisecond)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&pdbID, "pdb", "", "fetch this RCSB entry instead of reading a file")
	cmd.Flags().StringVar(&afdbID, "afdb", "", "fetch this AlphaFold DB accession instead of reading a file")
	cmd.Flags().StringSliceVar(&chains, "chains", nil, "restrict to these chain ids")
	cmd.Flags().StringVar(&color, "color", "", "color mode: auto, chain, plddt, rainbow, deepmind, entropy")
	cmd.Flags().IntVar(&delayMs, "delay", 100, "frame delay in milliseconds")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the download cache")

	return cmd
}

// tickMsg advances the trajectory playback clock.
type tickMsg time.Time

// rotateStep is the rotation applied per arrow key press, in radians.
const rotateStep = 0.15

// playModel is the bubbletea model driving the terminal viewer. The
// viewer itself is not safe for concurrent use, so all mutation happens
// in Update.
type playModel struct {
	viewer  *render.Viewer
	delay   time.Duration
	playing bool
	width   int
	height  int
	err     error
}

func newPlayModel(v *render.Viewer, delay time.Duration) playModel {
	return playModel{
		viewer:  v,
		delay:   delay,
		playing: v.FrameCount() > 1,
		width:   80,
		height:  24,
	}
}

func (m playModel) tick() tea.Cmd {
	return tea.Tick(m.delay, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m playModel) Init() tea.Cmd {
	if m.playing {
		return m.tick()
	}
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			if m.viewer.FrameCount() > 1 {
				m.playing = !m.playing
				if m.playing {
					return m, m.tick()
				}
			}
		case "left":
			m.playing = false
			m.stepFrame(-1)
		case "right":
			m.playing = false
			m.stepFrame(1)
		case "h":
			m.viewer.Rotate(-rotateStep, 0)
		case "l":
			m.viewer.Rotate(rotateStep, 0)
		case "k":
			m.viewer.Rotate(0, -rotateStep)
		case "j":
			m.viewer.Rotate(0, rotateStep)
		case "+", "=":
			m.setZoom(1.2)
		case "-":
			m.setZoom(1 / 1.2)
		case "r":
			m.viewer.Orient()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.playing {
			m.stepFrame(1)
			return m, m.tick()
		}
	}
	return m, nil
}

// stepFrame moves the trajectory by delta frames, wrapping around.
func (m *playModel) stepFrame(delta int) {
	n := m.viewer.FrameCount()
	if n < 2 {
		return
	}
	next := (m.viewer.FrameIndex() + delta + n) % n
	if err := m.viewer.SetFrame(next); err != nil {
		m.err = err
	}
}

func (m *playModel) setZoom(factor float64) {
	cfg := m.viewer.Config()
	m.viewer.SetZoom(cfg.Zoom * factor)
}

func (m playModel) View() string {
	var b strings.Builder

	title := "flatmol"
	if obj := m.viewer.CurrentObject(); obj != nil {
		title = obj.Name
	}
	b.WriteString(StyleTitle.Render(title))
	if n := m.viewer.FrameCount(); n > 1 {
		state := "paused"
		if m.playing {
			state = "playing"
		}
		b.WriteString(StyleDim.Render(fmt.Sprintf("  frame %d/%d  %s", m.viewer.FrameIndex()+1, n, state)))
	}
	b.WriteString("\n")

	img, err := m.renderImage()
	if err != nil {
		b.WriteString(StyleWarning.Render("render failed: " + err.Error()))
		return b.String()
	}
	b.WriteString(halfBlocks(img))

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(StyleWarning.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render("space play/pause  ←/→ step  h/j/k/l rotate  +/- zoom  r reset  q quit"))
	return b.String()
}

// renderImage renders the current view and scales it to the terminal
// cell grid. Half blocks pack two pixel rows into one text row.
func (m playModel) renderImage() (image.Image, error) {
	cols := m.width
	rows := (m.height - 3) * 2
	if cols < 8 {
		cols = 8
	}
	if rows < 8 {
		rows = 8
	}

	cfg := m.viewer.Config()
	sink := rastersink.New(cfg.Width, cfg.Height)
	if err := m.viewer.Render(sink); err != nil {
		return nil, err
	}
	return imaging.Fit(sink.Image(), cols, rows, imaging.Lanczos), nil
}

// halfBlocks converts an image to text, one "▀" per pixel pair with
// the top pixel as foreground and the bottom as background.
func halfBlocks(img image.Image) string {
	bounds := img.Bounds()
	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := hexColor(img.At(x, y))
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = hexColor(img.At(x, y+1))
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom))
			b.WriteString(style.Render("▀"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
