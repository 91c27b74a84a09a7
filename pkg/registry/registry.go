// Package registry holds the modules a bar can display. Modules are a
// closed set of kinds looked up by a stable name; a module that produces
// data implements Producer.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/faervan/bar-rs-sub000/pkg/subscription"
)

var ErrDuplicateModule = errors.New("module already registered")

type Kind string

const (
	KindClock Kind = "clock"
	KindText  Kind = "text"
)

// Update is the latest data a module produced.
type Update struct {
	Module string    `json:"module"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

type Module interface {
	Name() string
	Kind() Kind
}

// Producer is implemented by modules that feed the subscription hub.
type Producer interface {
	Module
	Produce(ctx context.Context, tx subscription.Sender[Update]) error
}

// Clock reports the formatted local time on an interval.
type Clock struct {
	ModuleName string
	Format     string
	Interval   time.Duration
}

func NewClock(name, format string, interval time.Duration) *Clock {
	return &Clock{ModuleName: name, Format: format, Interval: interval}
}

func (c *Clock) Name() string { return c.ModuleName }
func (c *Clock) Kind() Kind   { return KindClock }

func (c *Clock) Produce(ctx context.Context, tx subscription.Sender[Update]) error {
	run := subscription.Every(c.ModuleName, c.Interval, func(now time.Time) Update {
		return Update{Module: c.ModuleName, Text: now.Format(c.Format), At: now}
	})
	return run(ctx, tx)
}

// Text shows a fixed string. It sends once and finishes.
type Text struct {
	ModuleName string
	Value      string
}

func (t *Text) Name() string { return t.ModuleName }
func (t *Text) Kind() Kind   { return KindText }

func (t *Text) Produce(ctx context.Context, tx subscription.Sender[Update]) error {
	return tx.Immediate(ctx, Update{Module: t.ModuleName, Text: t.Value, At: time.Now()})
}

type Registry struct {
	modules map[string]Module
}

func New() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Default returns a registry with the built-in modules.
func Default() *Registry {
	r := New()
	_ = r.Register(NewClock("clock", "15:04", time.Second))
	_ = r.Register(&Text{ModuleName: "text", Value: "crabbar"})
	return r
}

func (r *Registry) Register(m Module) error {
	if _, ok := r.modules[m.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, m.Name())
	}
	r.modules[m.Name()] = m
	return nil
}

func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Names returns registered module names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe registers every producing module with hub.
func (r *Registry) Subscribe(hub *subscription.Hub[Update]) error {
	for _, name := range r.Names() {
		p, ok := r.modules[name].(Producer)
		if !ok {
			continue
		}
		if err := hub.Add(name, p.Produce); err != nil {
			return fmt.Errorf("subscribe %s: %w", name, err)
		}
	}
	return nil
}
