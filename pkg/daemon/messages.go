package daemon

import (
	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/ipc"
	"github.com/faervan/bar-rs-sub000/pkg/output"
	"github.com/faervan/bar-rs-sub000/pkg/registry"
)

// Message is anything the state owner accepts on its inbox.
type Message interface {
	kind() string
}

// QueryKind names a read-only question about the daemon state.
type QueryKind string

const (
	QueryWindowCount  QueryKind = "window_count"
	QueryOutputsReady QueryKind = "outputs_ready"
	QueryOutputs      QueryKind = "outputs"
	QueryModule       QueryKind = "module" // latest update of Query.Module
)

type Query struct {
	Kind   QueryKind
	Module string
}

// QueryResult carries the answer; only the fields for the asked kind are set.
type QueryResult struct {
	Count   int
	Ready   bool
	Outputs []output.Snapshot
	Update  registry.Update
	Found   bool
}

// DeferredRead asks the state owner to answer Query on reply.
type DeferredRead struct {
	Query Query
	reply chan QueryResult
}

// ApplyBatch records coalesced module updates in arrival order.
type ApplyBatch struct {
	Updates []registry.Update
}

type OutputEvent struct {
	Event output.Event
}

// OutputsReady is posted once the readiness debounce has elapsed.
type OutputsReady struct{}

type IpcRequest struct {
	Request   ipc.Request
	Responder *ipc.Responder
}

// ReloadConfig replaces the preset snapshot.
type ReloadConfig struct {
	Presets *config.Presets
}

func (DeferredRead) kind() string { return "deferred_read" }
func (ApplyBatch) kind() string   { return "apply_batch" }
func (OutputEvent) kind() string  { return "output_event" }
func (OutputsReady) kind() string { return "outputs_ready" }
func (IpcRequest) kind() string   { return "ipc_request" }
func (ReloadConfig) kind() string { return "reload_config" }
