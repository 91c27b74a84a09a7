package colors

import "sort"

// Palette is the colour set of a built-in theme.
type Palette struct {
	Name        string
	Description string
	Dark        bool
	Background  string
	Foreground  string
	Accent      string
}

// Palettes are the built-in themes written by "crabbar init".
var Palettes = map[string]Palette{
	"catppuccin-mocha": {
		Name:        "Catppuccin Mocha",
		Description: "Soothing dark theme",
		Dark:        true,
		Background:  "#1e1e2e",
		Foreground:  "#cdd6f4",
		Accent:      "#89b4fa",
	},
	"catppuccin-latte": {
		Name:        "Catppuccin Latte",
		Description: "Light pastel theme",
		Background:  "#eff1f5",
		Foreground:  "#4c4f69",
		Accent:      "#1e66f5",
	},
	"dracula": {
		Name:        "Dracula",
		Description: "Dark theme with vibrant colors",
		Dark:        true,
		Background:  "#282a36",
		Foreground:  "#f8f8f2",
		Accent:      "#ff79c6",
	},
	"nord": {
		Name:        "Nord",
		Description: "Arctic, north-bluish color palette",
		Dark:        true,
		Background:  "#2e3440",
		Foreground:  "#eceff4",
		Accent:      "#88c0d0",
	},
	"gruvbox-dark": {
		Name:        "Gruvbox Dark",
		Description: "Retro groove color scheme",
		Dark:        true,
		Background:  "#282828",
		Foreground:  "#ebdbb2",
		Accent:      "#83a598",
	},
	"gruvbox-light": {
		Name:        "Gruvbox Light",
		Description: "Light variant of Gruvbox",
		Background:  "#fbf1c7",
		Foreground:  "#3c3836",
		Accent:      "#076678",
	},
	"rose-pine": {
		Name:        "Rose Pine",
		Description: "Elegant dark theme with muted colors",
		Dark:        true,
		Background:  "#191724",
		Foreground:  "#e0def4",
		Accent:      "#9ccfd8",
	},
	"solarized-light": {
		Name:        "Solarized Light",
		Description: "Light variant of Solarized",
		Background:  "#fdf6e3",
		Foreground:  "#586e75",
		Accent:      "#268bd2",
	},
	"tokyo-night": {
		Name:        "Tokyo Night",
		Description: "A dark theme inspired by Tokyo at night",
		Dark:        true,
		Background:  "#1a1b26",
		Foreground:  "#c0caf5",
		Accent:      "#7dcfff",
	},
}

// Get returns the named palette.
func Get(name string) (Palette, bool) {
	p, ok := Palettes[name]
	return p, ok
}

// Names returns palette names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Palettes))
	for name := range Palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
