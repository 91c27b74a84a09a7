package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/faervan/bar-rs-sub000/pkg/colors"
	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/ipc"
	"github.com/faervan/bar-rs-sub000/pkg/window"
)

const maxNameWidth = 24

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	stateStyles = map[string]lipgloss.Style{
		"open":   lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		"queued": lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		"closed": lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
	}
)

// setupColor drops colors when stdout is not a terminal.
func setupColor() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// cell pads s to width display columns, truncating with an ellipsis.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func printWindows(w io.Writer, windows []window.Summary) {
	if len(windows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no windows"))
		return
	}
	nameWidth := len("NAME")
	for _, s := range windows {
		nameWidth = max(nameWidth, min(runewidth.StringWidth(s.Name), maxNameWidth))
	}
	fmt.Fprintln(w, headerStyle.Render(strings.Join([]string{
		cell("ID", 4), cell("NAME", nameWidth), cell("STATE", 7), cell("ANCHOR", 7), "MONITOR",
	}, " ")))
	for _, s := range windows {
		state := cell(s.State, 7)
		if st, ok := stateStyles[s.State]; ok {
			state = st.Render(state)
		}
		monitor := s.Monitor
		if monitor == "" {
			monitor = dimStyle.Render("-")
		}
		fmt.Fprintln(w, strings.Join([]string{
			cell(fmt.Sprint(s.ID), 4), cell(s.Name, nameWidth), state, cell(string(s.Anchor), 7), monitor,
		}, " "))
	}
}

func printNames(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, dimStyle.Render("none"))
		return
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
}

func joinIDs(ids []window.NaiveID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

// printEvent reports a window command's outcome. Getter payloads are
// handled by the get commands.
func printEvent(w io.Writer, resp *ipc.WindowResponse) {
	if resp == nil {
		return
	}
	noun := "window"
	if len(resp.IDs) != 1 {
		noun = "windows"
	}
	verb := string(resp.Event.Kind)
	switch resp.Event.Kind {
	case ipc.EventConfigApplied, ipc.EventThemeApplied, ipc.EventStyleApplied:
		verb = strings.TrimSuffix(verb, "_applied") + " applied to"
	}
	if len(resp.IDs) == 0 {
		fmt.Fprintf(w, "%s: no windows\n", verb)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", verb, noun, joinIDs(resp.IDs))
}

// printSwatches shows the theme colors with each one's contrast against
// the background.
func printSwatches(w io.Writer, t config.Theme) {
	rows := []struct{ label, hex string }{
		{"background", t.Background},
		{"foreground", t.Foreground},
		{"accent", t.Accent},
	}
	for _, row := range rows {
		if row.hex == "" {
			continue
		}
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(row.hex)).Render("    ")
		line := fmt.Sprintf("%s %s %s", swatch, cell(row.label, 10), row.hex)
		if row.label != "background" && t.Background != "" {
			ratio := colors.ContrastRatio(row.hex, t.Background)
			text := fmt.Sprintf("%.2f:1", ratio)
			if ratio < colors.MinContrast {
				text += " (low)"
			}
			line += "  " + dimStyle.Render(text)
		}
		fmt.Fprintln(w, line)
	}
}
