package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/ipc"
	"github.com/faervan/bar-rs-sub000/pkg/window"
)

// call sends req and turns an error response into an error.
func call(g *Globals, req ipc.Request) (ipc.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
	defer cancel()
	resp, err := ipc.Send(ctx, g.Socket, req)
	if err != nil {
		return ipc.Response{}, fmt.Errorf("daemon at %s: %w", g.Socket, err)
	}
	if err := resp.Err(); err != nil {
		return resp, err
	}
	return resp, nil
}

// decodeStrict parses a JSON override, rejecting unknown fields.
func decodeStrict(data string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}
	return nil
}

// Target selects a window by id, or the oldest window when ID is unset.
type Target struct {
	ID int64 `help:"Window id; defaults to the oldest window." default:"-1"`
}

func (t Target) id() *window.NaiveID {
	if t.ID < 0 {
		return nil
	}
	id := window.NaiveID(t.ID)
	return &id
}

type ListCmd struct{}

func (c *ListCmd) Run(g *Globals) error {
	resp, err := call(g, ipc.ListWindows())
	if err != nil {
		return err
	}
	setupColor()
	printWindows(stdout, resp.Windows)
	return nil
}

func listNames(g *Globals, req ipc.Request) error {
	resp, err := call(g, req)
	if err != nil {
		return err
	}
	setupColor()
	printNames(stdout, resp.Names)
	return nil
}

type ConfigsCmd struct{}

func (c *ConfigsCmd) Run(g *Globals) error { return listNames(g, ipc.Configs()) }

type ThemesCmd struct{}

func (c *ThemesCmd) Run(g *Globals) error { return listNames(g, ipc.Themes()) }

type StylesCmd struct{}

func (c *StylesCmd) Run(g *Globals) error { return listNames(g, ipc.Styles()) }

type ModulesCmd struct{}

func (c *ModulesCmd) Run(g *Globals) error { return listNames(g, ipc.Modules()) }

func windowCommand(g *Globals, id *window.NaiveID, cmd ipc.WindowCommand) (*ipc.WindowResponse, error) {
	resp, err := call(g, ipc.Window(id, cmd))
	if err != nil {
		return nil, err
	}
	if resp.Window == nil {
		return nil, fmt.Errorf("%w: expected a window response, got %s", ipc.ErrBadResponse, resp.Kind)
	}
	return resp.Window, nil
}

func runWindowCommand(g *Globals, id *window.NaiveID, cmd ipc.WindowCommand) error {
	wr, err := windowCommand(g, id, cmd)
	if err != nil {
		return err
	}
	printEvent(stdout, wr)
	return nil
}

type OpenCmd struct {
	Name      string `arg:"" help:"Config preset name."`
	Theme     string `help:"Theme preset; defaults to NAME."`
	Style     string `help:"Style preset; defaults to NAME."`
	Overrides string `name:"json" help:"Overrides as JSON: {\"config\":{},\"theme\":{},\"style\":{}}." placeholder:"JSON"`
}

func (c *OpenCmd) options() (config.RuntimeOptions, error) {
	opts := config.RuntimeOptions{Name: c.Name, Theme: c.Theme, Style: c.Style}
	if c.Overrides != "" {
		if err := decodeStrict(c.Overrides, &opts.Overrides); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (c *OpenCmd) Run(g *Globals) error {
	opts, err := c.options()
	if err != nil {
		return err
	}
	return runWindowCommand(g, nil, ipc.Open(opts))
}

type CloseCmd struct {
	Target
	All bool `help:"Close every window."`
}

func (c *CloseCmd) Run(g *Globals) error {
	return runWindowCommand(g, c.id(), ipc.Close(c.All))
}

type ReopenCmd struct {
	Target
	All bool `help:"Reopen every window."`
}

func (c *ReopenCmd) Run(g *Globals) error {
	return runWindowCommand(g, c.id(), ipc.Reopen(c.All))
}

type QuitCmd struct{}

func (c *QuitCmd) Run(g *Globals) error {
	resp, err := call(g, ipc.Shutdown())
	if err != nil {
		return err
	}
	if resp.Kind != ipc.RespClosing {
		return fmt.Errorf("%w: expected closing, got %s", ipc.ErrBadResponse, resp.Kind)
	}
	fmt.Fprintln(stdout, "daemon stopping")
	return nil
}

// Format selects how get commands print a payload.
type Format struct {
	JSON bool `help:"Print JSON instead of YAML."`
}

func (f Format) print(v any) error {
	if f.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type GetConfigCmd struct {
	Target
	Format
}

func (c *GetConfigCmd) Run(g *Globals) error {
	wr, err := windowCommand(g, c.id(), ipc.GetConfig())
	if err != nil {
		return err
	}
	if wr.Event.Config == nil {
		return fmt.Errorf("%w: response carries no config", ipc.ErrBadResponse)
	}
	return c.print(wr.Event.Config)
}

type GetThemeCmd struct {
	Target
	Format
	Swatches bool `help:"Show color swatches with contrast ratios."`
}

func (c *GetThemeCmd) Run(g *Globals) error {
	wr, err := windowCommand(g, c.id(), ipc.GetTheme())
	if err != nil {
		return err
	}
	if wr.Event.Theme == nil {
		return fmt.Errorf("%w: response carries no theme", ipc.ErrBadResponse)
	}
	if c.Swatches {
		setupColor()
		printSwatches(stdout, *wr.Event.Theme)
		return nil
	}
	return c.print(wr.Event.Theme)
}

type GetStyleCmd struct {
	Target
	Format
}

func (c *GetStyleCmd) Run(g *Globals) error {
	wr, err := windowCommand(g, c.id(), ipc.GetStyle())
	if err != nil {
		return err
	}
	if wr.Event.Style == nil {
		return fmt.Errorf("%w: response carries no style", ipc.ErrBadResponse)
	}
	return c.print(wr.Event.Style)
}

type SetConfigCmd struct {
	Target
	Override string `arg:"" help:"Config override as JSON." placeholder:"JSON"`
	Reopen   bool   `help:"Recreate the surface so geometry changes apply."`
}

func (c *SetConfigCmd) Run(g *Globals) error {
	var over config.WindowConfigOverride
	if err := decodeStrict(c.Override, &over); err != nil {
		return err
	}
	return runWindowCommand(g, c.id(), ipc.SetConfig(c.Reopen, over))
}

type SetThemeCmd struct {
	Target
	Override string `arg:"" help:"Theme override as JSON." placeholder:"JSON"`
}

func (c *SetThemeCmd) Run(g *Globals) error {
	var over config.ThemeOverride
	if err := decodeStrict(c.Override, &over); err != nil {
		return err
	}
	return runWindowCommand(g, c.id(), ipc.SetTheme(over))
}

type SetStyleCmd struct {
	Target
	Override string `arg:"" help:"Style override as JSON." placeholder:"JSON"`
}

func (c *SetStyleCmd) Run(g *Globals) error {
	var over config.StyleOverride
	if err := decodeStrict(c.Override, &over); err != nil {
		return err
	}
	return runWindowCommand(g, c.id(), ipc.SetStyle(over))
}
