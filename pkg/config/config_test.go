package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadPresets_YAMLAndTOML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigsDir, "crabbar.yaml"), `
anchor: bottom
height: 24
margin:
  top: 4
modules:
  right: [clock, text]
reload_interval: 10s
`)
	writeFile(t, filepath.Join(root, ThemesDir, "crabbar.toml"), `
background = "#000000"
font_size = 18.0
`)
	writeFile(t, filepath.Join(root, StylesDir, "crabbar.yml"), `
classes:
  clock:
    color: "#ff0000"
`)
	writeFile(t, filepath.Join(root, ThemesDir, ".hidden.yaml"), "background: nope")
	writeFile(t, filepath.Join(root, ThemesDir, "README.md"), "not a preset")

	p, err := LoadPresets(root)
	require.NoError(t, err)

	cfg, ok := p.Configs.Get("crabbar")
	require.True(t, ok)
	assert.Equal(t, AnchorBottom, cfg.Anchor)
	assert.Equal(t, 24, cfg.Height)
	assert.Equal(t, 4, cfg.Margin.Top)
	assert.Equal(t, []string{"clock", "text"}, cfg.Modules.Right)
	assert.Equal(t, 10*time.Second, cfg.ReloadInterval.Std())
	// absent keys keep defaults
	assert.Equal(t, LayerTop, cfg.Layer)
	assert.Equal(t, -1, cfg.ExclusiveZone)
	assert.Equal(t, []string{"text"}, cfg.Modules.Left)

	theme, ok := p.Themes.Get("crabbar")
	require.True(t, ok)
	assert.Equal(t, "#000000", theme.Background)
	assert.Equal(t, 18.0, theme.FontSize)
	assert.Equal(t, DefaultTheme().Foreground, theme.Foreground)
	assert.Equal(t, []string{"crabbar"}, p.Themes.Names())

	style, ok := p.Styles.Get("crabbar")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", style.Classes["clock"].Color)
}

func TestLoadPresets_MissingDirsAreEmpty(t *testing.T) {
	p, err := LoadPresets(filepath.Join(t.TempDir(), "nothing"))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Configs.Len())
	assert.Equal(t, 0, p.Themes.Len())
	assert.Equal(t, 0, p.Styles.Len())
}

func TestLoadPresets_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "malformed yaml", file: filepath.Join(ConfigsDir, "bad.yaml"), body: "anchor: [unclosed"},
		{name: "malformed toml", file: filepath.Join(ThemesDir, "bad.toml"), body: "background = "},
		{name: "invalid anchor", file: filepath.Join(ConfigsDir, "bad.yaml"), body: "anchor: middle"},
		{name: "invalid duration", file: filepath.Join(ConfigsDir, "bad.yaml"), body: "reload_interval: soon"},
		{name: "invalid theme colour", file: filepath.Join(ThemesDir, "bad.yaml"), body: "accent: bright"},
		{name: "invalid style colour", file: filepath.Join(StylesDir, "bad.yaml"), body: "classes:\n  clock:\n    color: red\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, tt.file), tt.body)
			_, err := LoadPresets(root)
			require.Error(t, err)
		})
	}
}

func TestTheme_Lint(t *testing.T) {
	assert.Empty(t, DefaultTheme().Lint())

	low := DefaultTheme()
	low.Foreground = "#2a2a3a"
	warnings := low.Lint()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "contrast")

	transparent := DefaultTheme()
	transparent.Background = ""
	assert.NoError(t, transparent.Validate())
	assert.Empty(t, transparent.Lint())
}

func TestSavePresetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultWindowConfig()
	cfg.Height = 42
	cfg.Modules.Center = []string{"clock"}
	require.NoError(t, SavePreset(dir, "saved", cfg))

	cat, err := LoadCatalog(dir, DefaultWindowConfig)
	require.NoError(t, err)
	got, ok := cat.Get("saved")
	require.True(t, ok)
	assert.Equal(t, cfg, got)
}

func TestResolver_FallsBackToDefaults(t *testing.T) {
	r := NewResolver(nil)
	got := r.Resolve(RuntimeOptions{Name: "missing"})
	assert.Equal(t, DefaultWindowConfig(), got.Config)
	assert.Equal(t, DefaultTheme(), got.Theme)
	assert.Equal(t, DefaultStyle(), got.Style)
}

func TestResolver_LayersPresetThenOverride(t *testing.T) {
	preset := DefaultWindowConfig()
	preset.Height = 40
	preset.Anchor = AnchorBottom
	presets := &Presets{
		Configs: NewCatalog(map[string]WindowConfig{"crabbar": preset}),
		Themes:  NewCatalog(map[string]Theme{"dark": {Background: "#111111", FontSize: 12}}),
		Styles:  NewCatalog[Style](nil),
	}
	r := NewResolver(presets)

	got := r.Resolve(RuntimeOptions{
		Name:  "crabbar",
		Theme: "dark",
		Overrides: Overrides{
			Config: WindowConfigOverride{Height: ptr(50)},
			Theme:  ThemeOverride{FontSize: ptr(20.0)},
		},
	})
	assert.Equal(t, 50, got.Config.Height)
	assert.Equal(t, AnchorBottom, got.Config.Anchor)
	assert.Equal(t, "#111111", got.Theme.Background)
	assert.Equal(t, 20.0, got.Theme.FontSize)

	// the catalog entry is untouched
	again, _ := presets.Configs.Get("crabbar")
	assert.Equal(t, 40, again.Height)
}

func TestResolver_DoesNotAliasPresetSlices(t *testing.T) {
	preset := DefaultWindowConfig()
	presets := &Presets{
		Configs: NewCatalog(map[string]WindowConfig{"crabbar": preset}),
		Themes:  NewCatalog[Theme](nil),
		Styles: NewCatalog(map[string]Style{"crabbar": {Classes: map[string]ClassStyle{
			"clock": {Color: "#fff"},
		}}}),
	}
	r := NewResolver(presets)
	got := r.Resolve(RuntimeOptions{Name: "crabbar"})
	got.Config.Modules.Left[0] = "mutated"
	got.Style.Classes["clock"] = ClassStyle{Color: "#000"}

	cfg, _ := presets.Configs.Get("crabbar")
	style, _ := presets.Styles.Get("crabbar")
	assert.Equal(t, "text", cfg.Modules.Left[0])
	assert.Equal(t, "#fff", style.Classes["clock"].Color)
}

func TestOverride_IdentityLaw(t *testing.T) {
	cfg := DefaultWindowConfig()
	cfg.Margin = Margin{Top: 1, Left: 2}
	assert.Equal(t, cfg, WindowConfigOverride{}.Apply(cfg))
	assert.Equal(t, DefaultTheme(), ThemeOverride{}.Apply(DefaultTheme()))
	style := Style{Classes: map[string]ClassStyle{"clock": {Color: "#abc"}}}
	assert.Equal(t, style, StyleOverride{}.Apply(style))
}

func TestOverride_FieldIndependence(t *testing.T) {
	base := DefaultTheme()
	size := ThemeOverride{FontSize: ptr(20.0)}
	color := ThemeOverride{Foreground: ptr("red")}

	ab := color.Apply(size.Apply(base))
	ba := size.Apply(color.Apply(base))
	assert.Equal(t, ab, ba)
	assert.Equal(t, 20.0, ab.FontSize)
	assert.Equal(t, "red", ab.Foreground)
}

func TestOverride_ThenMatchesSequentialApply(t *testing.T) {
	base := DefaultWindowConfig()
	o1 := WindowConfigOverride{
		Height:  ptr(10),
		Margin:  &MarginOverride{Top: ptr(3)},
		Modules: &ModulesOverride{Left: &[]string{"a"}},
	}
	o2 := WindowConfigOverride{
		Height: ptr(20),
		Anchor: ptr(AnchorLeft),
		Margin: &MarginOverride{Left: ptr(5)},
	}

	assert.Equal(t, o2.Apply(o1.Apply(base)), o1.Then(o2).Apply(base))

	s1 := StyleOverride{Classes: map[string]ClassStyleOverride{"clock": {Color: ptr("#1")}}}
	s2 := StyleOverride{Classes: map[string]ClassStyleOverride{
		"clock": {Padding: ptr(2)},
		"text":  {Color: ptr("#2")},
	}}
	sbase := DefaultStyle()
	assert.Equal(t, s2.Apply(s1.Apply(sbase)), s1.Then(s2).Apply(sbase))
}

func TestStyleOverride_InsertsFreshClass(t *testing.T) {
	base := Style{Classes: map[string]ClassStyle{"clock": {Color: "#fff", Padding: 1}}}
	over := StyleOverride{Classes: map[string]ClassStyleOverride{
		"clock": {Padding: ptr(4)},
		"text":  {Margin: ptr(2)},
	}}
	got := over.Apply(base)
	assert.Equal(t, ClassStyle{Color: "#fff", Padding: 4}, got.Classes["clock"])
	assert.Equal(t, ClassStyle{Margin: 2}, got.Classes["text"])
	assert.Len(t, base.Classes, 1)
}

func TestOverride_NeedsReopen(t *testing.T) {
	assert.False(t, WindowConfigOverride{}.NeedsReopen())
	assert.False(t, WindowConfigOverride{KeyboardFocus: ptr(true)}.NeedsReopen())
	assert.True(t, WindowConfigOverride{Anchor: ptr(AnchorBottom)}.NeedsReopen())
	assert.True(t, WindowConfigOverride{Height: ptr(1)}.NeedsReopen())
}

func TestOverride_JSONOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(WindowConfigOverride{Height: ptr(30)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"height":30}`, string(data))

	var back WindowConfigOverride
	require.NoError(t, json.Unmarshal([]byte(`{"reload_interval":"2s","margin":{"top":1}}`), &back))
	assert.Equal(t, Duration(2*time.Second), *back.ReloadInterval)
	assert.Equal(t, 1, *back.Margin.Top)
	assert.Nil(t, back.Height)
}

func TestRuntimeOptionsPresetNames(t *testing.T) {
	o := RuntimeOptions{Name: "crabbar"}
	assert.Equal(t, "crabbar", o.ThemeName())
	assert.Equal(t, "crabbar", o.StyleName())
	o.Theme, o.Style = "dark", "minimal"
	assert.Equal(t, "dark", o.ThemeName())
	assert.Equal(t, "minimal", o.StyleName())
}
