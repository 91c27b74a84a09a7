// Package output tracks the display outputs reported by the topology source
// and picks the output a new window should appear on.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Handle identifies an output as reported by the display system.
type Handle uint32

// Info is the topology information known for an output. It may arrive
// after the output itself.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Active      bool   `json:"active"`
}

type EventKind string

const (
	Added   EventKind = "added"
	Updated EventKind = "updated"
	Removed EventKind = "removed"
)

type Event struct {
	Kind   EventKind
	Handle Handle
	Info   *Info
}

// Tracker is the output map owned by the daemon state. It is not safe for
// concurrent use.
type Tracker struct {
	outputs map[Handle]*Info
	seen    bool
}

func NewTracker() *Tracker {
	return &Tracker{outputs: make(map[Handle]*Info)}
}

// Apply records ev and reports whether it is the first output ever seen.
func (t *Tracker) Apply(ev Event) bool {
	switch ev.Kind {
	case Added, Updated:
		var info *Info
		if ev.Info != nil {
			cp := *ev.Info
			info = &cp
		} else if prev, ok := t.outputs[ev.Handle]; ok {
			info = prev
		}
		t.outputs[ev.Handle] = info
	case Removed:
		delete(t.outputs, ev.Handle)
		return false
	default:
		slog.Warn("Ignoring unknown output event", "kind", ev.Kind, "handle", ev.Handle)
		return false
	}
	if t.seen {
		return false
	}
	t.seen = true
	return true
}

func (t *Tracker) Len() int { return len(t.outputs) }

// Snapshot is one entry of Tracker.List.
type Snapshot struct {
	Handle Handle `json:"handle"`
	Info   *Info  `json:"info,omitempty"`
}

// List returns the known outputs ordered by handle.
func (t *Tracker) List() []Snapshot {
	out := make([]Snapshot, 0, len(t.outputs))
	for h, info := range t.outputs {
		s := Snapshot{Handle: h}
		if info != nil {
			cp := *info
			s.Info = &cp
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Selector is one step of the monitor selection fallback chain.
type Selector string

const (
	SelectNamed  Selector = "named"
	SelectActive Selector = "active"
	SelectAll    Selector = "all"
)

// Policy is the ordered fallback chain used by Select.
type Policy []Selector

// DefaultPolicy prefers the requested name, then the active output, then
// every output.
var DefaultPolicy = Policy{SelectNamed, SelectActive, SelectAll}

// ParsePolicy parses a comma separated selector list such as
// "named,active,all".
func ParsePolicy(s string) (Policy, error) {
	var p Policy
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch sel := Selector(part); sel {
		case SelectNamed, SelectActive, SelectAll:
			p = append(p, sel)
		default:
			return nil, fmt.Errorf("unknown output selector %q", part)
		}
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("empty output policy")
	}
	return p, nil
}

func (p Policy) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// Target is where a surface should be created. All means the windowing
// system picks, which for layer-shell is every output.
type Target struct {
	All    bool
	Handle Handle
	Name   string
}

func (t Target) String() string {
	if t.All {
		return "all"
	}
	return fmt.Sprintf("%s(%d)", t.Name, t.Handle)
}

// Select walks policy and returns the first matching output.
func (t *Tracker) Select(name string, policy Policy) Target {
	if len(policy) == 0 {
		policy = DefaultPolicy
	}
	for _, sel := range policy {
		switch sel {
		case SelectNamed:
			if name == "" {
				continue
			}
			if h, info, ok := t.find(func(i *Info) bool { return i.Name == name }); ok {
				return Target{Handle: h, Name: info.Name}
			}
			slog.Error("Requested output not found, falling back", "output", name, "policy", policy.String())
		case SelectActive:
			if h, info, ok := t.find(func(i *Info) bool { return i.Active }); ok {
				return Target{Handle: h, Name: info.Name}
			}
		case SelectAll:
			return Target{All: true}
		}
	}
	return Target{All: true}
}

// find scans in handle order so repeated selections are stable.
func (t *Tracker) find(match func(*Info) bool) (Handle, *Info, bool) {
	for _, s := range t.List() {
		if s.Info != nil && match(s.Info) {
			return s.Handle, s.Info, true
		}
	}
	return 0, nil, false
}

// Source delivers display-topology events until ctx is done.
type Source interface {
	Run(ctx context.Context, emit func(Event)) error
}

// StaticSource reports a fixed set of outputs once, for running without a
// display backend.
type StaticSource struct {
	Outputs []Info
}

func (s StaticSource) Run(ctx context.Context, emit func(Event)) error {
	for i := range s.Outputs {
		info := s.Outputs[i]
		emit(Event{Kind: Added, Handle: Handle(i + 1), Info: &info})
	}
	<-ctx.Done()
	return nil
}

// ParseSpec parses an output flag of the form NAME[:active].
func ParseSpec(spec string) (Info, error) {
	name, flag, hasFlag := strings.Cut(spec, ":")
	if name == "" {
		return Info{}, fmt.Errorf("empty output name in %q", spec)
	}
	info := Info{Name: name}
	if hasFlag {
		if flag != "active" {
			return Info{}, fmt.Errorf("unknown output flag %q in %q", flag, spec)
		}
		info.Active = true
	}
	return info, nil
}
