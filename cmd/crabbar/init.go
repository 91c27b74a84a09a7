package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/faervan/bar-rs-sub000/pkg/colors"
	"github.com/faervan/bar-rs-sub000/pkg/config"
)

const defaultPreset = "crabbar"

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing preset files."`
	Theme string `help:"Built-in palette used for the default theme." default:"catppuccin-mocha"`
}

func (c *InitCmd) Run(g *Globals) error {
	written, err := writeDefaults(g.ConfigDir, c.Theme, c.Force)
	for _, path := range written {
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "initialized %s\n", g.ConfigDir)
	return nil
}

func paletteTheme(p colors.Palette) config.Theme {
	t := config.DefaultTheme()
	t.Background = p.Background
	t.Foreground = colors.EnsureContrast(p.Foreground, p.Background, colors.MinContrast)
	t.Accent = p.Accent
	return t
}

func defaultStyle(t config.Theme) config.Style {
	s := config.DefaultStyle()
	s.Classes["clock"] = config.ClassStyle{Color: t.Accent, Padding: 4}
	s.Classes["text"] = config.ClassStyle{Color: t.Foreground, Padding: 4}
	return s
}

type presetFile struct {
	dir, name string
	value     any
}

// writeDefaults writes the default presets under root and returns the
// files it wrote. Existing files are kept unless force is set.
func writeDefaults(root, theme string, force bool) ([]string, error) {
	base, ok := colors.Get(theme)
	if !ok {
		return nil, fmt.Errorf("unknown palette %q, choose one of %v", theme, colors.Names())
	}
	primary := paletteTheme(base)

	files := []presetFile{
		{config.ConfigsDir, defaultPreset, config.DefaultWindowConfig()},
		{config.ThemesDir, defaultPreset, primary},
		{config.StylesDir, defaultPreset, defaultStyle(primary)},
	}
	for _, name := range colors.Names() {
		p, _ := colors.Get(name)
		files = append(files, presetFile{config.ThemesDir, name, paletteTheme(p)})
	}

	var written []string
	for _, f := range files {
		dir := filepath.Join(root, f.dir)
		path := filepath.Join(dir, f.name+".yaml")
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return written, err
			}
		}
		if err := config.SavePreset(dir, f.name, f.value); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
