package config

import "github.com/faervan/bar-rs-sub000/pkg/merge"

// WindowConfigOverride mirrors WindowConfig with every field optional.
type WindowConfigOverride struct {
	Anchor         *Anchor          `json:"anchor,omitempty"`
	Monitor        *string          `json:"monitor,omitempty"`
	Height         *int             `json:"height,omitempty"`
	Width          *int             `json:"width,omitempty"`
	ExclusiveZone  *int             `json:"exclusive_zone,omitempty"`
	Layer          *Layer           `json:"layer,omitempty"`
	KeyboardFocus  *bool            `json:"keyboard_focus,omitempty"`
	Margin         *MarginOverride  `json:"margin,omitempty"`
	Modules        *ModulesOverride `json:"modules,omitempty"`
	ReloadInterval *Duration        `json:"reload_interval,omitempty"`
}

type MarginOverride struct {
	Top    *int `json:"top,omitempty"`
	Right  *int `json:"right,omitempty"`
	Bottom *int `json:"bottom,omitempty"`
	Left   *int `json:"left,omitempty"`
}

type ModulesOverride struct {
	Left   *[]string `json:"left,omitempty"`
	Center *[]string `json:"center,omitempty"`
	Right  *[]string `json:"right,omitempty"`
}

type ThemeOverride struct {
	Background *string  `json:"background,omitempty"`
	Foreground *string  `json:"foreground,omitempty"`
	Accent     *string  `json:"accent,omitempty"`
	FontFamily *string  `json:"font_family,omitempty"`
	FontSize   *float64 `json:"font_size,omitempty"`
	Spacing    *int     `json:"spacing,omitempty"`
	Padding    *int     `json:"padding,omitempty"`
}

type StyleOverride struct {
	Classes map[string]ClassStyleOverride `json:"classes,omitempty"`
}

type ClassStyleOverride struct {
	Color        *string  `json:"color,omitempty"`
	Background   *string  `json:"background,omitempty"`
	FontSize     *float64 `json:"font_size,omitempty"`
	Padding      *int     `json:"padding,omitempty"`
	Margin       *int     `json:"margin,omitempty"`
	BorderRadius *int     `json:"border_radius,omitempty"`
}

func (o WindowConfigOverride) Apply(base WindowConfig) WindowConfig {
	out := base
	merge.Value(&out.Anchor, o.Anchor)
	merge.Value(&out.Monitor, o.Monitor)
	merge.Value(&out.Height, o.Height)
	merge.Value(&out.Width, o.Width)
	merge.Value(&out.ExclusiveZone, o.ExclusiveZone)
	merge.Value(&out.Layer, o.Layer)
	merge.Value(&out.KeyboardFocus, o.KeyboardFocus)
	merge.Value(&out.ReloadInterval, o.ReloadInterval)
	if o.Margin != nil {
		out.Margin = o.Margin.Apply(base.Margin)
	}
	if o.Modules != nil {
		out.Modules = o.Modules.Apply(base.Modules)
	} else {
		out.Modules = ModulesOverride{}.Apply(base.Modules)
	}
	return out
}

// Then returns one override equivalent to applying o and then next.
func (o WindowConfigOverride) Then(next WindowConfigOverride) WindowConfigOverride {
	out := WindowConfigOverride{
		Anchor:         merge.Pick(o.Anchor, next.Anchor),
		Monitor:        merge.Pick(o.Monitor, next.Monitor),
		Height:         merge.Pick(o.Height, next.Height),
		Width:          merge.Pick(o.Width, next.Width),
		ExclusiveZone:  merge.Pick(o.ExclusiveZone, next.ExclusiveZone),
		Layer:          merge.Pick(o.Layer, next.Layer),
		KeyboardFocus:  merge.Pick(o.KeyboardFocus, next.KeyboardFocus),
		ReloadInterval: merge.Pick(o.ReloadInterval, next.ReloadInterval),
	}
	switch {
	case o.Margin != nil && next.Margin != nil:
		m := o.Margin.Then(*next.Margin)
		out.Margin = &m
	case next.Margin != nil:
		m := *next.Margin
		out.Margin = &m
	case o.Margin != nil:
		m := *o.Margin
		out.Margin = &m
	}
	switch {
	case o.Modules != nil && next.Modules != nil:
		m := o.Modules.Then(*next.Modules)
		out.Modules = &m
	case next.Modules != nil:
		m := *next.Modules
		out.Modules = &m
	case o.Modules != nil:
		m := *o.Modules
		out.Modules = &m
	}
	return out
}

func (o WindowConfigOverride) IsEmpty() bool {
	return o.Anchor == nil && o.Monitor == nil && o.Height == nil && o.Width == nil &&
		o.ExclusiveZone == nil && o.Layer == nil && o.KeyboardFocus == nil &&
		o.ReloadInterval == nil && o.Margin == nil && o.Modules == nil
}

// NeedsReopen reports whether o touches a property a live surface cannot
// change.
func (o WindowConfigOverride) NeedsReopen() bool {
	return o.Anchor != nil || o.Monitor != nil || o.Height != nil || o.Width != nil ||
		o.Layer != nil || o.ExclusiveZone != nil
}

func (o MarginOverride) Apply(base Margin) Margin {
	out := base
	merge.Value(&out.Top, o.Top)
	merge.Value(&out.Right, o.Right)
	merge.Value(&out.Bottom, o.Bottom)
	merge.Value(&out.Left, o.Left)
	return out
}

func (o MarginOverride) Then(next MarginOverride) MarginOverride {
	return MarginOverride{
		Top:    merge.Pick(o.Top, next.Top),
		Right:  merge.Pick(o.Right, next.Right),
		Bottom: merge.Pick(o.Bottom, next.Bottom),
		Left:   merge.Pick(o.Left, next.Left),
	}
}

func (o ModulesOverride) Apply(base Modules) Modules {
	return Modules{
		Left:   merge.Slice(base.Left, o.Left),
		Center: merge.Slice(base.Center, o.Center),
		Right:  merge.Slice(base.Right, o.Right),
	}
}

func (o ModulesOverride) Then(next ModulesOverride) ModulesOverride {
	return ModulesOverride{
		Left:   merge.Pick(o.Left, next.Left),
		Center: merge.Pick(o.Center, next.Center),
		Right:  merge.Pick(o.Right, next.Right),
	}
}

func (o ThemeOverride) Apply(base Theme) Theme {
	out := base
	merge.Value(&out.Background, o.Background)
	merge.Value(&out.Foreground, o.Foreground)
	merge.Value(&out.Accent, o.Accent)
	merge.Value(&out.FontFamily, o.FontFamily)
	merge.Value(&out.FontSize, o.FontSize)
	merge.Value(&out.Spacing, o.Spacing)
	merge.Value(&out.Padding, o.Padding)
	return out
}

func (o ThemeOverride) Then(next ThemeOverride) ThemeOverride {
	return ThemeOverride{
		Background: merge.Pick(o.Background, next.Background),
		Foreground: merge.Pick(o.Foreground, next.Foreground),
		Accent:     merge.Pick(o.Accent, next.Accent),
		FontFamily: merge.Pick(o.FontFamily, next.FontFamily),
		FontSize:   merge.Pick(o.FontSize, next.FontSize),
		Spacing:    merge.Pick(o.Spacing, next.Spacing),
		Padding:    merge.Pick(o.Padding, next.Padding),
	}
}

func (o ThemeOverride) IsEmpty() bool {
	return o == ThemeOverride{}
}

func (o StyleOverride) Apply(base Style) Style {
	return Style{Classes: merge.Map(base.Classes, o.Classes, DefaultClassStyle)}
}

func (o StyleOverride) Then(next StyleOverride) StyleOverride {
	return StyleOverride{Classes: merge.Compose(o.Classes, next.Classes, ClassStyleOverride.Then)}
}

func (o StyleOverride) IsEmpty() bool {
	return len(o.Classes) == 0
}

func (o ClassStyleOverride) Apply(base ClassStyle) ClassStyle {
	out := base
	merge.Value(&out.Color, o.Color)
	merge.Value(&out.Background, o.Background)
	merge.Value(&out.FontSize, o.FontSize)
	merge.Value(&out.Padding, o.Padding)
	merge.Value(&out.Margin, o.Margin)
	merge.Value(&out.BorderRadius, o.BorderRadius)
	return out
}

func (o ClassStyleOverride) Then(next ClassStyleOverride) ClassStyleOverride {
	return ClassStyleOverride{
		Color:        merge.Pick(o.Color, next.Color),
		Background:   merge.Pick(o.Background, next.Background),
		FontSize:     merge.Pick(o.FontSize, next.FontSize),
		Padding:      merge.Pick(o.Padding, next.Padding),
		Margin:       merge.Pick(o.Margin, next.Margin),
		BorderRadius: merge.Pick(o.BorderRadius, next.BorderRadius),
	}
}

// Overrides bundles the per-window overrides for all three settings types.
type Overrides struct {
	Config WindowConfigOverride `json:"config"`
	Theme  ThemeOverride        `json:"theme"`
	Style  StyleOverride        `json:"style"`
}

// RuntimeOptions selects presets for a window and carries its overrides.
// Theme and Style fall back to Name when empty.
type RuntimeOptions struct {
	Name      string    `json:"name"`
	Theme     string    `json:"theme,omitempty"`
	Style     string    `json:"style,omitempty"`
	Overrides Overrides `json:"overrides"`
}

func (o RuntimeOptions) ThemeName() string {
	if o.Theme != "" {
		return o.Theme
	}
	return o.Name
}

func (o RuntimeOptions) StyleName() string {
	if o.Style != "" {
		return o.Style
	}
	return o.Name
}
