// Package daemon is the state owner. Every mutation of the daemon state
// happens in Run, one inbox message at a time; other goroutines only post
// messages.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/ipc"
	"github.com/faervan/bar-rs-sub000/pkg/metrics"
	"github.com/faervan/bar-rs-sub000/pkg/output"
	"github.com/faervan/bar-rs-sub000/pkg/perf"
	"github.com/faervan/bar-rs-sub000/pkg/registry"
	"github.com/faervan/bar-rs-sub000/pkg/surface"
	"github.com/faervan/bar-rs-sub000/pkg/window"
)

const (
	DefaultReadyDelay = 500 * time.Millisecond
	DefaultInboxSize  = 256
)

var (
	ErrStopped = errors.New("daemon stopped")
	ErrRunning = errors.New("daemon already running its loop")
)

// ReloadPolicy decides what a preset reload does to existing windows.
type ReloadPolicy string

const (
	ReloadFuture    ReloadPolicy = "future"    // only windows opened afterwards
	ReloadReresolve ReloadPolicy = "reresolve" // recompute open windows in place
	ReloadReopen    ReloadPolicy = "reopen"    // recompute and recreate surfaces
)

func ParseReloadPolicy(s string) (ReloadPolicy, error) {
	switch p := ReloadPolicy(s); p {
	case ReloadFuture, ReloadReresolve, ReloadReopen:
		return p, nil
	case "":
		return ReloadReresolve, nil
	}
	return "", fmt.Errorf("unknown reload policy %q", s)
}

type Options struct {
	SocketPath   string
	PidPath      string
	ReadyDelay   time.Duration
	ReloadPolicy ReloadPolicy
	OutputPolicy output.Policy
	// Open lists config presets to open on startup.
	Open      []string
	InboxSize int
}

func (o *Options) setDefaults() {
	if o.ReadyDelay <= 0 {
		o.ReadyDelay = DefaultReadyDelay
	}
	if o.ReloadPolicy == "" {
		o.ReloadPolicy = ReloadReresolve
	}
	if len(o.OutputPolicy) == 0 {
		o.OutputPolicy = output.DefaultPolicy
	}
	if o.InboxSize <= 0 {
		o.InboxSize = DefaultInboxSize
	}
}

type Daemon struct {
	opts    Options
	state   *State
	exec    surface.Executor
	metrics *metrics.Metrics

	inbox   chan Message
	life    context.Context
	halt    context.CancelFunc
	running atomic.Bool
	timer   *time.Timer
}

// New builds a daemon around presets and reg. Effects are handed to exec;
// m may be nil.
func New(opts Options, presets *config.Presets, reg *registry.Registry, exec surface.Executor, m *metrics.Metrics) *Daemon {
	opts.setDefaults()
	life, halt := context.WithCancel(context.Background())
	return &Daemon{
		opts:    opts,
		state:   newState(opts, presets, reg),
		exec:    exec,
		metrics: m,
		inbox:   make(chan Message, opts.InboxSize),
		life:    life,
		halt:    halt,
	}
}

// Done is closed once Run has returned.
func (d *Daemon) Done() <-chan struct{} { return d.life.Done() }

func (d *Daemon) post(ctx context.Context, msg Message) error {
	select {
	case <-d.life.Done():
		return ErrStopped
	default:
	}
	select {
	case d.inbox <- msg:
		return nil
	case <-d.life.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch posts req and waits for its response.
func (d *Daemon) Dispatch(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	r := ipc.NewResponder()
	if err := d.post(ctx, IpcRequest{Request: req, Responder: r}); err != nil {
		return ipc.Response{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(d.life, cancel)
	defer stop()
	resp, err := r.Wait(ctx)
	if err != nil && d.life.Err() != nil {
		return ipc.Response{}, ErrStopped
	}
	return resp, err
}

// Query answers q from inside the loop.
func (d *Daemon) Query(ctx context.Context, q Query) (QueryResult, error) {
	reply := make(chan QueryResult, 1)
	if err := d.post(ctx, DeferredRead{Query: q, reply: reply}); err != nil {
		return QueryResult{}, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return QueryResult{}, ctx.Err()
	case <-d.life.Done():
		return QueryResult{}, ErrStopped
	}
}

// PostOutput forwards a display topology event. It matches output.Source's
// emit callback.
func (d *Daemon) PostOutput(ev output.Event) {
	if err := d.post(d.life, OutputEvent{Event: ev}); err != nil {
		slog.Debug("Dropped output event", "handle", ev.Handle, "error", err)
	}
}

// PostBatch forwards a coalesced batch. It matches the hub's deliver
// callback.
func (d *Daemon) PostBatch(updates []registry.Update) {
	if err := d.post(d.life, ApplyBatch{Updates: updates}); err != nil {
		slog.Debug("Dropped update batch", "size", len(updates), "error", err)
	}
}

func (d *Daemon) PostReload(ctx context.Context, p *config.Presets) error {
	return d.post(ctx, ReloadConfig{Presets: p})
}

// Run processes the inbox until ctx ends or a close request arrives. On
// return every window has been destroyed.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer d.halt()
	effectCtx := context.WithoutCancel(ctx)

	for _, name := range d.opts.Open {
		_, effects, err := d.state.open(config.RuntimeOptions{Name: name}, d.opts.OutputPolicy)
		if err != nil {
			slog.Error("Skipping startup window", "name", name, "error", err)
			continue
		}
		d.execute(effectCtx, effects)
	}
	d.metrics.Windows(d.state.Windows.Len())
	slog.Info("Daemon loop started", "socket", d.state.SocketPath, "windows", d.state.Windows.Len())

	for {
		select {
		case <-ctx.Done():
			d.shutdown(effectCtx, "context done")
			return nil
		case msg := <-d.inbox:
			if d.handle(effectCtx, msg) {
				d.shutdown(effectCtx, "close requested")
				return nil
			}
		}
	}
}

// handle processes one message to completion and reports whether the loop
// should stop.
func (d *Daemon) handle(ctx context.Context, msg Message) bool {
	if msg == nil {
		slog.Warn("Ignoring nil message")
		return false
	}
	timer := perf.Start(msg.kind())
	var out outcome
	var responder *ipc.Responder

	switch m := msg.(type) {
	case DeferredRead:
		m.reply <- d.state.answer(m.Query)
	case ApplyBatch:
		d.state.applyBatch(m.Updates)
		d.metrics.BatchApplied(len(m.Updates))
	case OutputEvent:
		out = d.state.outputEvent(m.Event)
	case OutputsReady:
		out = d.state.outputsReady(d.opts.OutputPolicy)
	case IpcRequest:
		responder = m.Responder
		out = d.state.request(m.Request, d.opts.OutputPolicy)
	case ReloadConfig:
		out = d.state.reload(m.Presets, d.opts.ReloadPolicy, d.opts.OutputPolicy)
		slog.Info("Presets reloaded", "policy", d.opts.ReloadPolicy, "windows", d.state.Windows.Len())
	default:
		slog.Warn("Ignoring unexpected message", "type", fmt.Sprintf("%T", msg))
	}

	if out.armed {
		d.armReadiness()
	}
	d.execute(ctx, out.effects)
	if out.resp != nil && responder != nil {
		if err := responder.Send(*out.resp); err != nil {
			slog.Warn("Failed to send response", "kind", out.resp.Kind, "error", err)
		}
	}

	d.metrics.Windows(d.state.Windows.Len())
	d.metrics.MessageHandled(msg.kind(), timer.Stop())
	return out.stop
}

// armReadiness starts the one-shot debounce after the first output.
func (d *Daemon) armReadiness() {
	slog.Debug("First output seen, waiting for the rest", "delay", d.opts.ReadyDelay)
	d.timer = time.AfterFunc(d.opts.ReadyDelay, func() {
		if err := d.post(d.life, OutputsReady{}); err != nil {
			slog.Debug("Readiness fired after stop", "error", err)
		}
	})
}

func (d *Daemon) execute(ctx context.Context, effects []window.Effect) {
	for _, e := range effects {
		if err := d.exec.Execute(ctx, e); err != nil {
			slog.Error("Failed to execute effect", "effect", fmt.Sprintf("%T", e), "error", err)
		}
	}
}

func (d *Daemon) shutdown(ctx context.Context, reason string) {
	if d.timer != nil {
		d.timer.Stop()
	}
	effects := d.state.Windows.CloseAll()
	d.execute(ctx, effects)
	d.metrics.Windows(0)

	// Requests still queued get an answer instead of a timeout.
	for {
		select {
		case msg := <-d.inbox:
			if m, ok := msg.(IpcRequest); ok {
				_ = m.Responder.Send(ipc.ErrorResponse(ErrStopped))
			}
		default:
			slog.Info("Daemon loop stopped", "reason", reason, "destroyed", len(effects))
			return
		}
	}
}
