package config

import (
	"fmt"
	"log/slog"

	"github.com/faervan/bar-rs-sub000/pkg/merge"
)

// Resolved is the fully layered settings of one window.
type Resolved struct {
	Config WindowConfig
	Theme  Theme
	Style  Style
}

// Resolver layers default, named preset and runtime override. It only reads
// the snapshot it was built with.
type Resolver struct {
	presets *Presets
}

func NewResolver(p *Presets) Resolver {
	if p == nil {
		p = EmptyPresets()
	}
	return Resolver{presets: p}
}

func (r Resolver) Presets() *Presets { return r.presets }

func (r Resolver) ResolveConfig(name string, over WindowConfigOverride) WindowConfig {
	return resolve(r.presets.Configs, "config", name, DefaultWindowConfig, over)
}

func (r Resolver) ResolveTheme(name string, over ThemeOverride) Theme {
	return resolve(r.presets.Themes, "theme", name, DefaultTheme, over)
}

func (r Resolver) ResolveStyle(name string, over StyleOverride) Style {
	return resolve(r.presets.Styles, "style", name, DefaultStyle, over)
}

// Resolve computes every settings type for a window's runtime options.
func (r Resolver) Resolve(opts RuntimeOptions) Resolved {
	return Resolved{
		Config: r.ResolveConfig(opts.Name, opts.Overrides.Config),
		Theme:  r.ResolveTheme(opts.ThemeName(), opts.Overrides.Theme),
		Style:  r.ResolveStyle(opts.StyleName(), opts.Overrides.Style),
	}
}

// Validate reports the first setting that could not be rendered.
func (r Resolved) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := r.Theme.Validate(); err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	if err := r.Style.Validate(); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	return nil
}

func resolve[V any, O merge.Override[V]](cat Catalog[V], kind, name string, defaults func() V, over O) V {
	base, ok := cat.Get(name)
	if !ok {
		if name != "" {
			slog.Warn("Preset not found, using defaults", "kind", kind, "name", name)
		}
		base = defaults()
	}
	return merge.Apply(base, over)
}
