package config

import (
	"fmt"
	"time"

	"github.com/faervan/bar-rs-sub000/pkg/colors"
)

// Anchor is the screen edge a bar attaches to.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
)

// Layer is the layer-shell layer a bar surface lives on.
type Layer string

const (
	LayerBackground Layer = "background"
	LayerBottom     Layer = "bottom"
	LayerTop        Layer = "top"
	LayerOverlay    Layer = "overlay"
)

// WindowConfig describes the geometry and module layout of one bar window.
type WindowConfig struct {
	Anchor         Anchor   `yaml:"anchor" toml:"anchor" json:"anchor"`
	Monitor        string   `yaml:"monitor" toml:"monitor" json:"monitor,omitempty"` // output name; empty means policy default
	Height         int      `yaml:"height" toml:"height" json:"height"`
	Width          int      `yaml:"width" toml:"width" json:"width"` // 0 stretches along the anchor edge
	ExclusiveZone  int      `yaml:"exclusive_zone" toml:"exclusive_zone" json:"exclusive_zone"`
	Layer          Layer    `yaml:"layer" toml:"layer" json:"layer"`
	KeyboardFocus  bool     `yaml:"keyboard_focus" toml:"keyboard_focus" json:"keyboard_focus"`
	Margin         Margin   `yaml:"margin" toml:"margin" json:"margin"`
	Modules        Modules  `yaml:"modules" toml:"modules" json:"modules"`
	ReloadInterval Duration `yaml:"reload_interval" toml:"reload_interval" json:"reload_interval"`
}

type Margin struct {
	Top    int `yaml:"top" toml:"top" json:"top"`
	Right  int `yaml:"right" toml:"right" json:"right"`
	Bottom int `yaml:"bottom" toml:"bottom" json:"bottom"`
	Left   int `yaml:"left" toml:"left" json:"left"`
}

// Modules lists module names per bar section, in display order.
type Modules struct {
	Left   []string `yaml:"left" toml:"left" json:"left,omitempty"`
	Center []string `yaml:"center" toml:"center" json:"center,omitempty"`
	Right  []string `yaml:"right" toml:"right" json:"right,omitempty"`
}

// Theme holds the global look of a bar.
type Theme struct {
	Background string  `yaml:"background" toml:"background" json:"background"`
	Foreground string  `yaml:"foreground" toml:"foreground" json:"foreground"`
	Accent     string  `yaml:"accent" toml:"accent" json:"accent"`
	FontFamily string  `yaml:"font_family" toml:"font_family" json:"font_family"`
	FontSize   float64 `yaml:"font_size" toml:"font_size" json:"font_size"`
	Spacing    int     `yaml:"spacing" toml:"spacing" json:"spacing"`
	Padding    int     `yaml:"padding" toml:"padding" json:"padding"`
}

// Style holds per-class styling, keyed by module or widget class name.
type Style struct {
	Classes map[string]ClassStyle `yaml:"classes" toml:"classes" json:"classes,omitempty"`
}

type ClassStyle struct {
	Color        string  `yaml:"color" toml:"color" json:"color,omitempty"`
	Background   string  `yaml:"background" toml:"background" json:"background,omitempty"`
	FontSize     float64 `yaml:"font_size" toml:"font_size" json:"font_size,omitempty"`
	Padding      int     `yaml:"padding" toml:"padding" json:"padding,omitempty"`
	Margin       int     `yaml:"margin" toml:"margin" json:"margin,omitempty"`
	BorderRadius int     `yaml:"border_radius" toml:"border_radius" json:"border_radius,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("3s").
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// DefaultWindowConfig is the compiled-in base for every window config.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Anchor:        AnchorTop,
		Height:        30,
		ExclusiveZone: -1,
		Layer:         LayerTop,
		Modules: Modules{
			Left:  []string{"text"},
			Right: []string{"clock"},
		},
		ReloadInterval: Duration(3 * time.Second),
	}
}

func DefaultTheme() Theme {
	return Theme{
		Background: "#1e1e2e",
		Foreground: "#cdd6f4",
		Accent:     "#89b4fa",
		FontFamily: "monospace",
		FontSize:   14,
		Spacing:    6,
		Padding:    4,
	}
}

func DefaultStyle() Style {
	return Style{Classes: map[string]ClassStyle{}}
}

// DefaultClassStyle is the starting point for a class that only appears in
// an override.
func DefaultClassStyle() ClassStyle {
	return ClassStyle{}
}

// Vertical reports whether a bar anchored to a runs along a vertical edge.
func (a Anchor) Vertical() bool {
	return a == AnchorLeft || a == AnchorRight
}

// Validate checks enum fields a preset file may have misspelled.
func (c WindowConfig) Validate() error {
	switch c.Anchor {
	case AnchorTop, AnchorBottom, AnchorLeft, AnchorRight:
	default:
		return fmt.Errorf("unknown anchor %q", c.Anchor)
	}
	switch c.Layer {
	case LayerBackground, LayerBottom, LayerTop, LayerOverlay:
	default:
		return fmt.Errorf("unknown layer %q", c.Layer)
	}
	if c.Height < 0 || c.Width < 0 {
		return fmt.Errorf("negative size %dx%d", c.Width, c.Height)
	}
	return nil
}

// Validate rejects colours that do not parse. Empty colours are allowed
// and leave the choice to the renderer.
func (t Theme) Validate() error {
	for field, c := range map[string]string{
		"background": t.Background,
		"foreground": t.Foreground,
		"accent":     t.Accent,
	} {
		if c != "" && !colors.Valid(c) {
			return fmt.Errorf("%s: invalid colour %q", field, c)
		}
	}
	if t.FontSize < 0 {
		return fmt.Errorf("negative font size %v", t.FontSize)
	}
	return nil
}

// Lint returns readability warnings for a valid theme.
func (t Theme) Lint() []string {
	var warnings []string
	if t.Background == "" || t.Foreground == "" {
		return nil
	}
	if r := colors.ContrastRatio(t.Foreground, t.Background); r < colors.MinContrast {
		warnings = append(warnings, fmt.Sprintf("foreground contrast %.1f is below %.1f, try %s",
			r, colors.MinContrast, colors.EnsureContrast(t.Foreground, t.Background, colors.MinContrast)))
	}
	return warnings
}

func (s Style) Validate() error {
	for name, c := range s.Classes {
		for _, col := range []string{c.Color, c.Background} {
			if col != "" && !colors.Valid(col) {
				return fmt.Errorf("class %s: invalid colour %q", name, col)
			}
		}
	}
	return nil
}

// Clone returns a copy of c that shares no slices with it.
func (c WindowConfig) Clone() WindowConfig {
	return WindowConfigOverride{}.Apply(c)
}

// Clone returns a copy of s with its own class map.
func (s Style) Clone() Style {
	return StyleOverride{}.Apply(s)
}
