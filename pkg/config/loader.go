package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Preset subdirectories under the config root, one file per preset.
const (
	ConfigsDir = "configs"
	ThemesDir  = "themes"
	StylesDir  = "styles"
)

var ErrUnsupportedFormat = errors.New("unsupported preset format")

// Catalog is a read-only snapshot of named presets.
type Catalog[V any] struct {
	entries map[string]V
}

func NewCatalog[V any](entries map[string]V) Catalog[V] {
	cp := make(map[string]V, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return Catalog[V]{entries: cp}
}

func (c Catalog[V]) Get(name string) (V, bool) {
	v, ok := c.entries[name]
	return v, ok
}

// Names returns preset names in sorted order.
func (c Catalog[V]) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Catalog[V]) Len() int { return len(c.entries) }

// Presets holds every catalog the daemon resolves windows against. A
// Presets value is replaced wholesale on reload and never edited.
type Presets struct {
	Configs Catalog[WindowConfig]
	Themes  Catalog[Theme]
	Styles  Catalog[Style]
}

// EmptyPresets returns catalogs with no entries, so every lookup falls back
// to the compiled-in defaults.
func EmptyPresets() *Presets {
	return &Presets{
		Configs: NewCatalog[WindowConfig](nil),
		Themes:  NewCatalog[Theme](nil),
		Styles:  NewCatalog[Style](nil),
	}
}

// LoadPresets reads every preset catalog below root.
func LoadPresets(root string) (*Presets, error) {
	configs, err := LoadCatalog(filepath.Join(root, ConfigsDir), DefaultWindowConfig)
	if err != nil {
		return nil, err
	}
	for name, cfg := range configs.entries {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config preset %s: %w", name, err)
		}
	}
	themes, err := LoadCatalog(filepath.Join(root, ThemesDir), DefaultTheme)
	if err != nil {
		return nil, err
	}
	for name, theme := range themes.entries {
		if err := theme.Validate(); err != nil {
			return nil, fmt.Errorf("theme preset %s: %w", name, err)
		}
		for _, w := range theme.Lint() {
			slog.Warn("Theme preset is hard to read", "theme", name, "warning", w)
		}
	}
	styles, err := LoadCatalog(filepath.Join(root, StylesDir), DefaultStyle)
	if err != nil {
		return nil, err
	}
	for name, style := range styles.entries {
		if err := style.Validate(); err != nil {
			return nil, fmt.Errorf("style preset %s: %w", name, err)
		}
	}
	return &Presets{Configs: configs, Themes: themes, Styles: styles}, nil
}

// LoadCatalog decodes each preset file in dir on top of a fresh default
// value. A missing directory yields an empty catalog.
func LoadCatalog[V any](dir string, defaults func() V) (Catalog[V], error) {
	entries := map[string]V{}
	items, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Catalog[V]{entries: entries}, nil
	}
	if err != nil {
		return Catalog[V]{}, fmt.Errorf("failed to read preset dir %s: %w", dir, err)
	}

	for _, item := range items {
		if item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}
		name, ok := PresetName(item.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, item.Name())
		v := defaults()
		if err := decodeFile(path, &v); err != nil {
			return Catalog[V]{}, err
		}
		entries[name] = v
	}
	return Catalog[V]{entries: entries}, nil
}

// PresetName returns the preset name for a file, or false when the
// extension is not a supported format.
func PresetName(file string) (string, bool) {
	ext := filepath.Ext(file)
	switch ext {
	case ".yaml", ".yml", ".toml":
		return strings.TrimSuffix(file, ext), true
	}
	return "", false
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preset file: %w", err)
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse yaml %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse toml %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	return nil
}

// SavePreset writes v as yaml into dir/name.yaml.
func SavePreset(dir, name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preset dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}
	return nil
}
