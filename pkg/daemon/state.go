package daemon

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/ipc"
	"github.com/faervan/bar-rs-sub000/pkg/output"
	"github.com/faervan/bar-rs-sub000/pkg/registry"
	"github.com/faervan/bar-rs-sub000/pkg/window"
)

// State is everything the state owner mutates. Only the Run loop touches it.
type State struct {
	SocketPath   string
	PidPath      string
	Outputs      *output.Tracker
	OutputsReady bool
	Windows      *window.Manager
	Resolver     config.Resolver
	Registry     *registry.Registry
	Modules      map[string]registry.Update
}

func newState(opts Options, presets *config.Presets, reg *registry.Registry) *State {
	if reg == nil {
		reg = registry.New()
	}
	return &State{
		SocketPath: opts.SocketPath,
		PidPath:    opts.PidPath,
		Outputs:    output.NewTracker(),
		Windows:    window.NewManager(),
		Resolver:   config.NewResolver(presets),
		Registry:   reg,
		Modules:    make(map[string]registry.Update),
	}
}

// outcome is what handling one message produced. Effects run before the
// response is sent.
type outcome struct {
	effects []window.Effect
	resp    *ipc.Response
	stop    bool
	armed   bool // first output seen, start the readiness debounce
}

func respond(r ipc.Response) outcome { return outcome{resp: &r} }

func (s *State) target(policy output.Policy) window.TargetFunc {
	return func(cfg config.WindowConfig) output.Target {
		return s.Outputs.Select(cfg.Monitor, policy)
	}
}

func (s *State) answer(q Query) QueryResult {
	switch q.Kind {
	case QueryWindowCount:
		return QueryResult{Count: s.Windows.Len(), Found: true}
	case QueryOutputsReady:
		return QueryResult{Ready: s.OutputsReady, Found: true}
	case QueryOutputs:
		return QueryResult{Outputs: s.Outputs.List(), Count: s.Outputs.Len(), Found: true}
	case QueryModule:
		u, ok := s.Modules[q.Module]
		return QueryResult{Update: u, Found: ok}
	}
	slog.Warn("Unknown query", "kind", q.Kind)
	return QueryResult{}
}

func (s *State) applyBatch(updates []registry.Update) {
	for _, u := range updates {
		s.Modules[u.Module] = u
	}
}

func (s *State) outputEvent(ev output.Event) outcome {
	first := s.Outputs.Apply(ev)
	slog.Debug("Output event", "kind", ev.Kind, "handle", ev.Handle, "outputs", s.Outputs.Len())
	return outcome{armed: first}
}

func (s *State) outputsReady(policy output.Policy) outcome {
	if s.OutputsReady {
		return outcome{}
	}
	s.OutputsReady = true
	effects := s.Windows.MarkReady(s.target(policy))
	slog.Info("Outputs ready", "outputs", s.Outputs.Len(), "flushed", len(effects))
	return outcome{effects: effects}
}

func (s *State) reload(p *config.Presets, policy ReloadPolicy, outputs output.Policy) outcome {
	s.Resolver = config.NewResolver(p)
	if policy == ReloadFuture {
		return outcome{}
	}
	s.Windows.Reresolve(s.Resolver)
	if policy != ReloadReopen {
		return outcome{}
	}
	ids, err := s.Windows.Select(nil, true)
	if err != nil {
		return outcome{}
	}
	return outcome{effects: s.Windows.Reopen(ids, s.Resolver, s.target(outputs))}
}

func (s *State) request(req ipc.Request, policy output.Policy) outcome {
	switch req.Kind {
	case ipc.ReqListWindows:
		return respond(ipc.Response{Kind: ipc.RespWindowList, Windows: s.Windows.List()})
	case ipc.ReqConfigs:
		return respond(ipc.Response{Kind: ipc.RespConfigList, Names: s.Resolver.Presets().Configs.Names()})
	case ipc.ReqThemes:
		return respond(ipc.Response{Kind: ipc.RespThemeList, Names: s.Resolver.Presets().Themes.Names()})
	case ipc.ReqStyles:
		return respond(ipc.Response{Kind: ipc.RespStyleList, Names: s.Resolver.Presets().Styles.Names()})
	case ipc.ReqModules:
		return respond(ipc.Response{Kind: ipc.RespModuleList, Names: s.Registry.Names()})
	case ipc.ReqWindow:
		if req.Window == nil {
			return respond(ipc.ErrorResponse(fmt.Errorf("%w: window request without body", ipc.ErrBadRequest)))
		}
		return s.window(*req.Window, policy)
	case ipc.ReqClose:
		out := respond(ipc.Response{Kind: ipc.RespClosing})
		out.stop = true
		return out
	}
	return respond(ipc.ErrorResponse(fmt.Errorf("%w: unknown request kind %q", ipc.ErrBadRequest, req.Kind)))
}

// open creates a window from opts. It is shared by IPC and startup. No
// window is created when the overrides produce invalid settings.
func (s *State) open(opts config.RuntimeOptions, policy output.Policy) (window.NaiveID, []window.Effect, error) {
	res := s.Resolver.Resolve(opts)
	if err := res.Validate(); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", window.ErrInvalidSetting, err)
	}
	naive, effects := s.Windows.Open(opts, res, s.target(policy))
	slog.Info("Window created", "window", naive, "name", opts.Name, "queued", !s.OutputsReady)
	return naive, effects, nil
}

// rejected answers a command whose payload the daemon cannot apply.
func rejected(err error) outcome {
	return respond(ipc.ErrorResponse(fmt.Errorf("%w: %w", ipc.ErrBadRequest, err)))
}

func (s *State) window(req ipc.WindowRequest, policy output.Policy) outcome {
	cmd := req.Cmd
	if cmd.Kind == ipc.CmdOpen {
		naive, effects, err := s.open(*cmd.Options, policy)
		if err != nil {
			return rejected(err)
		}
		out := respond(ipc.WindowEventResponse([]window.NaiveID{naive}, ipc.WindowEvent{Kind: ipc.EventOpened}))
		out.effects = effects
		return out
	}

	ids, err := s.Windows.Select(req.ID, cmd.All)
	if errors.Is(err, window.ErrTargetConflict) {
		return rejected(err)
	}
	if err != nil {
		return respond(ipc.ErrorResponse(err))
	}
	event := func(ev ipc.WindowEvent) ipc.Response { return ipc.WindowEventResponse(ids, ev) }
	// Commands other than close and reopen address a single window.
	w, err := s.Windows.Get(ids[0])
	if err != nil {
		return respond(ipc.ErrorResponse(err))
	}

	switch cmd.Kind {
	case ipc.CmdClose:
		out := respond(event(ipc.WindowEvent{Kind: ipc.EventClosed}))
		out.effects = s.Windows.Close(ids)
		return out
	case ipc.CmdReopen:
		out := respond(event(ipc.WindowEvent{Kind: ipc.EventReopened}))
		out.effects = s.Windows.Reopen(ids, s.Resolver, s.target(policy))
		return out
	case ipc.CmdGetConfig:
		cfg := w.Config.Clone()
		return respond(event(ipc.WindowEvent{Kind: ipc.EventConfig, Config: &cfg}))
	case ipc.CmdGetTheme:
		theme := w.Theme
		return respond(event(ipc.WindowEvent{Kind: ipc.EventTheme, Theme: &theme}))
	case ipc.CmdGetStyle:
		style := w.Style.Clone()
		return respond(event(ipc.WindowEvent{Kind: ipc.EventStyle, Style: &style}))
	case ipc.CmdSetConfig:
		if err := s.Windows.SetConfig(w.Naive, *cmd.Config); err != nil {
			return rejected(err)
		}
		out := respond(event(ipc.WindowEvent{Kind: ipc.EventConfigApplied}))
		if cmd.Reopen {
			out.effects = s.Windows.Reopen(ids, s.Resolver, s.target(policy))
		} else if cmd.Config.NeedsReopen() {
			slog.Info("Config change takes effect on reopen", "window", w.Naive)
		}
		return out
	case ipc.CmdSetTheme:
		if err := s.Windows.SetTheme(w.Naive, *cmd.Theme); err != nil {
			return rejected(err)
		}
		return respond(event(ipc.WindowEvent{Kind: ipc.EventThemeApplied}))
	case ipc.CmdSetStyle:
		if err := s.Windows.SetStyle(w.Naive, *cmd.Style); err != nil {
			return rejected(err)
		}
		return respond(event(ipc.WindowEvent{Kind: ipc.EventStyleApplied}))
	}
	return respond(ipc.ErrorResponse(fmt.Errorf("%w: unknown window command %q", ipc.ErrBadRequest, cmd.Kind)))
}
