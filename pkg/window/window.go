// Package window manages the set of bar windows, their client-facing ids
// and whether each one is queued, open or closed.
//
// The Manager never talks to the windowing system. Every transition that
// needs a surface created or destroyed returns an Effect; the caller
// executes effects after the state change has been recorded.
package window

import (
	"errors"
	"fmt"
	"sort"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/output"
)

var (
	ErrNoWindows      = errors.New("no windows open")
	ErrNoSuchWindow   = errors.New("no such window")
	ErrTargetConflict = errors.New("a window id and all are mutually exclusive")
	ErrInvalidSetting = errors.New("invalid window setting")
)

// NaiveID is the small monotonically assigned id shown to clients.
type NaiveID uint64

// ID is the internal arena identity of a window. Slots are reused with a
// bumped generation, so an ID is never seen twice in one run.
type ID struct {
	Slot uint32
	Gen  uint32
}

func (id ID) String() string { return fmt.Sprintf("%d.%d", id.Slot, id.Gen) }

type State int

const (
	Queued State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Window struct {
	Naive   NaiveID
	ID      ID
	Options config.RuntimeOptions
	Config  config.WindowConfig
	Theme   config.Theme
	Style   config.Style
	State   State
}

// Summary is the client-facing view of a window.
type Summary struct {
	ID      NaiveID       `json:"id"`
	Name    string        `json:"name"`
	State   string        `json:"state"`
	Anchor  config.Anchor `json:"anchor"`
	Monitor string        `json:"monitor,omitempty"`
}

func (w *Window) Summary() Summary {
	return Summary{
		ID:      w.Naive,
		Name:    w.Options.Name,
		State:   w.State.String(),
		Anchor:  w.Config.Anchor,
		Monitor: w.Config.Monitor,
	}
}

// Effect is a side effect the caller must execute after a transition.
type Effect interface {
	isEffect()
}

// OpenSurface asks the windowing system for a layer-shell surface.
type OpenSurface struct {
	ID     ID
	Naive  NaiveID
	Config config.WindowConfig
	Target output.Target
}

// DestroySurface asks for the surface of ID to be torn down.
type DestroySurface struct {
	ID    ID
	Naive NaiveID
}

func (OpenSurface) isEffect()    {}
func (DestroySurface) isEffect() {}

// TargetFunc picks the output for a window about to be opened.
type TargetFunc func(cfg config.WindowConfig) output.Target

// Manager owns every window. It is not safe for concurrent use; the daemon
// state owner is its only caller.
type Manager struct {
	windows map[ID]*Window
	byNaive map[NaiveID]ID
	queue   []ID
	gens    []uint32
	free    []uint32
	next    NaiveID
	ready   bool
}

func NewManager() *Manager {
	return &Manager{
		windows: make(map[ID]*Window),
		byNaive: make(map[NaiveID]ID),
	}
}

// Ready reports whether the queue has been flushed.
func (m *Manager) Ready() bool { return m.ready }

func (m *Manager) Len() int { return len(m.windows) }

// Queued returns the ids of windows waiting for outputs, in FIFO order.
func (m *Manager) Queued() []NaiveID {
	out := make([]NaiveID, 0, len(m.queue))
	for _, id := range m.queue {
		out = append(out, m.windows[id].Naive)
	}
	return out
}

func (m *Manager) alloc() ID {
	if n := len(m.free); n > 0 {
		slot := m.free[n-1]
		m.free = m.free[:n-1]
		m.gens[slot]++
		return ID{Slot: slot, Gen: m.gens[slot]}
	}
	m.gens = append(m.gens, 0)
	return ID{Slot: uint32(len(m.gens) - 1)}
}

// Open creates a window. Before outputs are ready it is queued and no
// effect is produced.
func (m *Manager) Open(opts config.RuntimeOptions, res config.Resolved, target TargetFunc) (NaiveID, []Effect) {
	w := &Window{
		Naive:   m.next,
		ID:      m.alloc(),
		Options: opts,
		Config:  res.Config,
		Theme:   res.Theme,
		Style:   res.Style,
		State:   Queued,
	}
	m.next++
	m.windows[w.ID] = w
	m.byNaive[w.Naive] = w.ID

	if !m.ready {
		m.queue = append(m.queue, w.ID)
		return w.Naive, nil
	}
	return w.Naive, []Effect{m.open(w, target)}
}

func (m *Manager) open(w *Window, target TargetFunc) Effect {
	w.State = Open
	return OpenSurface{ID: w.ID, Naive: w.Naive, Config: w.Config, Target: target(w.Config)}
}

// MarkReady opens every queued window in creation order. Only the first
// call has an effect.
func (m *Manager) MarkReady(target TargetFunc) []Effect {
	if m.ready {
		return nil
	}
	m.ready = true
	effects := make([]Effect, 0, len(m.queue))
	for _, id := range m.queue {
		if w, ok := m.windows[id]; ok && w.State == Queued {
			effects = append(effects, m.open(w, target))
		}
	}
	m.queue = nil
	return effects
}

// Select resolves a window command target. With no id and all unset the
// oldest window is used.
func (m *Manager) Select(id *NaiveID, all bool) ([]NaiveID, error) {
	if id != nil && all {
		return nil, fmt.Errorf("%w: id %d", ErrTargetConflict, *id)
	}
	if len(m.windows) == 0 {
		return nil, ErrNoWindows
	}
	if id != nil {
		if _, ok := m.byNaive[*id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrNoSuchWindow, *id)
		}
		return []NaiveID{*id}, nil
	}
	ids := m.naiveIDs()
	if all {
		return ids, nil
	}
	return ids[:1], nil
}

func (m *Manager) naiveIDs() []NaiveID {
	ids := make([]NaiveID, 0, len(m.byNaive))
	for n := range m.byNaive {
		ids = append(ids, n)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Get returns the window with the given client id.
func (m *Manager) Get(naive NaiveID) (*Window, error) {
	id, ok := m.byNaive[naive]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchWindow, naive)
	}
	w, ok := m.windows[id]
	if !ok {
		panic(fmt.Sprintf("window: naive id %d maps to missing window %s", naive, id))
	}
	return w, nil
}

// Close removes the given windows. Windows still queued are dropped from
// the queue without an effect.
func (m *Manager) Close(ids []NaiveID) []Effect {
	var effects []Effect
	for _, naive := range ids {
		w, err := m.Get(naive)
		if err != nil {
			continue
		}
		if w.State == Open {
			effects = append(effects, DestroySurface{ID: w.ID, Naive: w.Naive})
		}
		if w.State == Queued {
			m.dequeue(w.ID)
		}
		w.State = Closed
		delete(m.windows, w.ID)
		delete(m.byNaive, w.Naive)
		m.free = append(m.free, w.ID.Slot)
	}
	return effects
}

func (m *Manager) dequeue(id ID) {
	for i, q := range m.queue {
		if q == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// Reopen re-resolves every open window in ids against r and recreates its
// surface. Queued windows are left alone; they pick up the config when the
// queue flushes.
func (m *Manager) Reopen(ids []NaiveID, r config.Resolver, target TargetFunc) []Effect {
	var effects []Effect
	for _, naive := range ids {
		w, err := m.Get(naive)
		if err != nil || w.State != Open {
			continue
		}
		res := r.Resolve(w.Options)
		w.Config, w.Theme, w.Style = res.Config, res.Theme, res.Style
		w.State = Closed
		effects = append(effects, DestroySurface{ID: w.ID, Naive: w.Naive}, m.open(w, target))
	}
	return effects
}

// SetConfig applies over to the window's resolved config and records it
// so later re-resolution keeps it. A result that fails validation leaves
// the window untouched.
func (m *Manager) SetConfig(naive NaiveID, over config.WindowConfigOverride) error {
	w, err := m.Get(naive)
	if err != nil {
		return err
	}
	merged := over.Apply(w.Config)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}
	w.Config = merged
	w.Options.Overrides.Config = w.Options.Overrides.Config.Then(over)
	return nil
}

func (m *Manager) SetTheme(naive NaiveID, over config.ThemeOverride) error {
	w, err := m.Get(naive)
	if err != nil {
		return err
	}
	merged := over.Apply(w.Theme)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}
	w.Theme = merged
	w.Options.Overrides.Theme = w.Options.Overrides.Theme.Then(over)
	return nil
}

func (m *Manager) SetStyle(naive NaiveID, over config.StyleOverride) error {
	w, err := m.Get(naive)
	if err != nil {
		return err
	}
	merged := over.Apply(w.Style)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSetting, err)
	}
	w.Style = merged
	w.Options.Overrides.Style = w.Options.Overrides.Style.Then(over)
	return nil
}

// Reresolve recomputes every window's settings against r, keeping the
// overrides each window has accumulated.
func (m *Manager) Reresolve(r config.Resolver) {
	for _, w := range m.windows {
		res := r.Resolve(w.Options)
		w.Config, w.Theme, w.Style = res.Config, res.Theme, res.Style
	}
}

// List returns every window ordered by client id.
func (m *Manager) List() []Summary {
	out := make([]Summary, 0, len(m.windows))
	for _, naive := range m.naiveIDs() {
		out = append(out, m.windows[m.byNaive[naive]].Summary())
	}
	return out
}

// CloseAll closes every window and returns the destroy effects.
func (m *Manager) CloseAll() []Effect {
	return m.Close(m.naiveIDs())
}
