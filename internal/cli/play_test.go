package cli

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/render"
)

// testViewer builds a viewer holding a short three-frame trajectory.
func testViewer(t *testing.T) *render.Viewer {
	t.Helper()
	v := render.NewViewer(render.DefaultConfig(), nil)
	for i := 0; i < 3; i++ {
		frame := &mol.Frame{
			Coords: []mol.Vec3{
				{X: 0, Y: 0, Z: 0},
				{X: 3.8, Y: 0, Z: float64(i)},
				{X: 7.6, Y: 0, Z: 0},
			},
			Chains: []string{"A", "A", "A"},
		}
		v.AppendFrame("traj", frame, false)
	}
	if err := v.SetFrame(0); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestPlayModelStepsAndWraps(t *testing.T) {
	m := newPlayModel(testViewer(t), 50*time.Millisecond)

	m.stepFrame(1)
	if got := m.viewer.FrameIndex(); got != 1 {
		t.Errorf("frame = %d, want 1", got)
	}
	m.stepFrame(1)
	m.stepFrame(1)
	if got := m.viewer.FrameIndex(); got != 0 {
		t.Errorf("frame = %d after wrap, want 0", got)
	}
	m.stepFrame(-1)
	if got := m.viewer.FrameIndex(); got != 2 {
		t.Errorf("frame = %d after backward wrap, want 2", got)
	}
}

func TestPlayModelSpaceTogglesPlayback(t *testing.T) {
	m := newPlayModel(testViewer(t), 50*time.Millisecond)
	if !m.playing {
		t.Fatal("trajectory should start playing")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(playModel)
	if m.playing {
		t.Error("space should pause playback")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(playModel)
	if !m.playing {
		t.Error("space should resume playback")
	}
	if cmd == nil {
		t.Error("resuming should schedule a tick")
	}
}

func TestPlayModelArrowPausesAndSteps(t *testing.T) {
	m := newPlayModel(testViewer(t), 50*time.Millisecond)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(playModel)
	if m.playing {
		t.Error("stepping should pause playback")
	}
	if got := m.viewer.FrameIndex(); got != 1 {
		t.Errorf("frame = %d, want 1", got)
	}
}

func TestPlayModelSingleFrameStaysPaused(t *testing.T) {
	v := render.NewViewer(render.DefaultConfig(), nil)
	v.AppendFrame("single", &mol.Frame{
		Coords: []mol.Vec3{{X: 0, Y: 0, Z: 0}, {X: 3.8, Y: 0, Z: 0}},
		Chains: []string{"A", "A"},
	}, false)
	if err := v.SetFrame(0); err != nil {
		t.Fatal(err)
	}

	m := newPlayModel(v, 50*time.Millisecond)
	if m.playing {
		t.Error("single-frame structures should not autoplay")
	}
	if cmd := m.Init(); cmd != nil {
		t.Error("paused model should not schedule ticks")
	}
}

func TestHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 100), G: uint8(y * 50), B: 0, A: 255})
		}
	}

	out := halfBlocks(img)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("got %d text rows for 4 pixel rows, want 2", len(lines))
	}
	if !strings.Contains(out, "▀") {
		t.Error("output should contain half-block characters")
	}
}

func TestHexColor(t *testing.T) {
	got := hexColor(color.RGBA{R: 255, G: 128, B: 0, A: 255})
	if got != "#ff8000" {
		t.Errorf("hexColor() = %q, want %q", got, "#ff8000")
	}
}
