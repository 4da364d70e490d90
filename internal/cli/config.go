package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/flatmol/flatmol/pkg/render"
)

// fileConfig mirrors the config file layout:
//
//	[display]
//	width = 400
//	height = 400
//
//	[rendering]
//	shadow = true
//	shadow_strength = 0.5
//	outline = "full"
//	line_width = 3.0
//	projection = "orthographic"
//	depth_cue = true
//	detect_cyclic = true
//
//	[color]
//	mode = "auto"
//	colorblind = false
//	pastel = 0.0
//
// Absent keys keep their defaults; command-line flags override file
// values.
type fileConfig struct {
	Display struct {
		Width  *int `toml:"width"`
		Height *int `toml:"height"`
	} `toml:"display"`

	Rendering struct {
		Shadow         *bool    `toml:"shadow"`
		ShadowStrength *float64 `toml:"shadow_strength"`
		Outline        *string  `toml:"outline"`
		LineWidth      *float64 `toml:"line_width"`
		Projection     *string  `toml:"projection"`
		Focal          *float64 `toml:"focal"`
		DepthCue       *bool    `toml:"depth_cue"`
		DetectCyclic   *bool    `toml:"detect_cyclic"`
	} `toml:"rendering"`

	Color struct {
		Mode       *string  `toml:"mode"`
		Colorblind *bool    `toml:"colorblind"`
		Pastel     *float64 `toml:"pastel"`
	} `toml:"color"`
}

// configPath returns the config file location using the XDG convention
// (~/.config/flatmol/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadRenderConfig builds the render configuration from defaults plus
// the optional config file. A missing file is not an error; a malformed
// one is, so typos do not silently fall back to defaults.
func loadRenderConfig() (render.Config, error) {
	cfg := render.DefaultConfig()

	path, err := configPath()
	if err != nil {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return cfg, err
	}
	return applyFileConfig(cfg, &fc)
}

// applyFileConfig overlays the file values onto cfg.
func applyFileConfig(cfg render.Config, fc *fileConfig) (render.Config, error) {
	if fc.Display.Width != nil {
		cfg.Width = *fc.Display.Width
	}
	if fc.Display.Height != nil {
		cfg.Height = *fc.Display.Height
	}

	if fc.Rendering.Shadow != nil {
		cfg.Shadow = *fc.Rendering.Shadow
	}
	if fc.Rendering.ShadowStrength != nil {
		cfg.ShadowStrength = *fc.Rendering.ShadowStrength
	}
	if fc.Rendering.Outline != nil {
		outline, err := render.ParseOutline(*fc.Rendering.Outline)
		if err != nil {
			return cfg, err
		}
		cfg.Outline = outline
	}
	if fc.Rendering.LineWidth != nil {
		cfg.LineWidth = *fc.Rendering.LineWidth
	}
	if fc.Rendering.Projection != nil {
		proj, err := render.ParseProjection(*fc.Rendering.Projection)
		if err != nil {
			return cfg, err
		}
		cfg.Projection = proj
	}
	if fc.Rendering.Focal != nil {
		cfg.Focal = *fc.Rendering.Focal
	}
	if fc.Rendering.DepthCue != nil {
		cfg.DepthCue = *fc.Rendering.DepthCue
	}
	if fc.Rendering.DetectCyclic != nil {
		cfg.DetectCyclic = *fc.Rendering.DetectCyclic
	}

	if fc.Color.Mode != nil {
		mode, err := render.ParseColorMode(*fc.Color.Mode)
		if err != nil {
			return cfg, err
		}
		cfg.ColorMode = mode
	}
	if fc.Color.Colorblind != nil {
		cfg.Colorblind = *fc.Color.Colorblind
	}
	if fc.Color.Pastel != nil {
		cfg.Pastel = *fc.Color.Pastel
	}
	return cfg, nil
}
