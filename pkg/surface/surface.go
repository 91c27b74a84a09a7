// Package surface executes window effects against the windowing system.
//
// The daemon core only knows window.ID. The handle the windowing system
// hands out for a surface is owned here.
package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/faervan/bar-rs-sub000/pkg/window"
)

// Executor runs one effect. Errors are reported to the caller, which logs
// them; an effect is never retried.
type Executor interface {
	Execute(ctx context.Context, e window.Effect) error
}

// Surface describes one live surface.
type Surface struct {
	Handle uuid.UUID
	Window window.ID
	Naive  window.NaiveID
	Open   window.OpenSurface
}

// Table records surfaces as they are created and destroyed. It stands in
// for a layer-shell backend and is safe for concurrent use.
type Table struct {
	mu       sync.Mutex
	surfaces map[window.ID]Surface
	created  int
}

func NewTable() *Table {
	return &Table{surfaces: make(map[window.ID]Surface)}
}

func (t *Table) Execute(_ context.Context, e window.Effect) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := e.(type) {
	case window.OpenSurface:
		if prev, ok := t.surfaces[e.ID]; ok {
			return fmt.Errorf("window %s already has surface %s", e.ID, prev.Handle)
		}
		s := Surface{Handle: uuid.New(), Window: e.ID, Naive: e.Naive, Open: e}
		t.surfaces[e.ID] = s
		t.created++
		slog.Info("Surface created",
			"window", e.Naive,
			"surface", s.Handle,
			"output", e.Target.String(),
			"anchor", e.Config.Anchor,
			"size", fmt.Sprintf("%dx%d", e.Config.Width, e.Config.Height))
	case window.DestroySurface:
		s, ok := t.surfaces[e.ID]
		if !ok {
			slog.Debug("Destroy for unknown surface", "window", e.Naive)
			return nil
		}
		delete(t.surfaces, e.ID)
		slog.Info("Surface destroyed", "window", e.Naive, "surface", s.Handle)
	default:
		return fmt.Errorf("unknown effect %T", e)
	}
	return nil
}

// Handles returns the live surfaces keyed by window identity.
func (t *Table) Handles() map[window.ID]Surface {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[window.ID]Surface, len(t.surfaces))
	for k, v := range t.surfaces {
		out[k] = v
	}
	return out
}

// Created returns how many surfaces were ever created.
func (t *Table) Created() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.created
}
