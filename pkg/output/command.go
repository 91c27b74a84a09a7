package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const DefaultPollInterval = 2 * time.Second

// CommandSource polls a compositor command that prints the outputs as a
// JSON array, such as "swaymsg -t get_outputs -r" or "hyprctl monitors -j",
// and emits the differences between polls.
type CommandSource struct {
	Command  []string
	Interval time.Duration
	// Exec runs the command; tests replace it.
	Exec func(ctx context.Context, argv []string) ([]byte, error)
}

// compositorOutput covers the fields sway and hyprland report.
type compositorOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Active      *bool  `json:"active"`
	Focused     bool   `json:"focused"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	CurrentMode *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"current_mode"`
}

func (o compositorOutput) info() Info {
	info := Info{Name: o.Name, Description: o.Description, Width: o.Width, Height: o.Height, Active: o.Focused}
	if info.Description == "" {
		info.Description = strings.TrimSpace(o.Make + " " + o.Model)
	}
	if o.CurrentMode != nil {
		info.Width, info.Height = o.CurrentMode.Width, o.CurrentMode.Height
	}
	return info
}

// ParseOutputs decodes the JSON printed by a compositor. Disabled outputs
// are skipped.
func ParseOutputs(data []byte) ([]Info, error) {
	var raw []compositorOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse outputs: %w", err)
	}
	out := make([]Info, 0, len(raw))
	for _, o := range raw {
		if o.Name == "" || (o.Active != nil && !*o.Active) {
			continue
		}
		out = append(out, o.info())
	}
	return out, nil
}

func execCommand(ctx context.Context, argv []string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", argv[0], err)
	}
	return out, nil
}

func (s CommandSource) Run(ctx context.Context, emit func(Event)) error {
	if len(s.Command) == 0 {
		return fmt.Errorf("output command is empty")
	}
	run := s.Exec
	if run == nil {
		run = execCommand
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	d := newDiffer()
	poll := func() {
		data, err := run(ctx, s.Command)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("Output poll failed", "command", s.Command[0], "error", err)
			}
			return
		}
		outputs, err := ParseOutputs(data)
		if err != nil {
			slog.Warn("Output poll returned garbage", "command", s.Command[0], "error", err)
			return
		}
		for _, ev := range d.diff(outputs) {
			emit(ev)
		}
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		}
	}
}

// differ assigns stable handles by output name and turns successive
// snapshots into events.
type differ struct {
	handles map[string]Handle
	last    map[string]Info
	next    Handle
}

func newDiffer() *differ {
	return &differ{handles: map[string]Handle{}, last: map[string]Info{}, next: 1}
}

func (d *differ) diff(outputs []Info) []Event {
	var events []Event
	seen := make(map[string]bool, len(outputs))
	for i := range outputs {
		info := outputs[i]
		seen[info.Name] = true
		h, known := d.handles[info.Name]
		if !known {
			h = d.next
			d.next++
			d.handles[info.Name] = h
		}
		prev, present := d.last[info.Name]
		switch {
		case !present:
			events = append(events, Event{Kind: Added, Handle: h, Info: &info})
		case prev != info:
			events = append(events, Event{Kind: Updated, Handle: h, Info: &info})
		}
		d.last[info.Name] = info
	}
	for name := range d.last {
		if !seen[name] {
			events = append(events, Event{Kind: Removed, Handle: d.handles[name]})
			delete(d.last, name)
		}
	}
	return events
}
