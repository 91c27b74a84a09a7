package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/daemon"
	"github.com/faervan/bar-rs-sub000/pkg/ipc"
	"github.com/faervan/bar-rs-sub000/pkg/metrics"
	"github.com/faervan/bar-rs-sub000/pkg/output"
	"github.com/faervan/bar-rs-sub000/pkg/paths"
	"github.com/faervan/bar-rs-sub000/pkg/perf"
	"github.com/faervan/bar-rs-sub000/pkg/registry"
	"github.com/faervan/bar-rs-sub000/pkg/subscription"
	"github.com/faervan/bar-rs-sub000/pkg/surface"
	"github.com/faervan/bar-rs-sub000/pkg/watch"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Output         []string      `help:"Static output, repeatable." placeholder:"NAME[:active]"`
	OutputCommand  string        `help:"Command printing outputs as JSON, e.g. 'swaymsg -t get_outputs -r'." env:"CRABBAR_OUTPUT_COMMAND"`
	PollInterval   time.Duration `help:"Output command poll interval." default:"2s"`
	Open           []string      `help:"Config presets to open on start." default:"crabbar"`
	ReadyDelay     time.Duration `help:"Quiet period before outputs count as ready." default:"500ms"`
	ReloadPolicy   string        `help:"What a preset reload does to open windows." enum:"future,reresolve,reopen" default:"reresolve"`
	OutputPolicy   string        `help:"Ordered output fallbacks for windows without a monitor." default:"named,active,all"`
	UpdateInterval time.Duration `help:"How often buffered module updates are flushed." default:"1s"`
	NoWatch        bool          `help:"Do not reload presets when files change."`
	MetricsAddr    string        `help:"Serve Prometheus metrics on this address." placeholder:"HOST:PORT"`
	SlowThreshold  time.Duration `help:"Warn when handling one message takes longer; 0 disables." default:"50ms"`
}

func (c *DaemonCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return c.run(ctx, g)
}

func (c *DaemonCmd) source() (output.Source, error) {
	if c.OutputCommand != "" {
		argv := strings.Fields(c.OutputCommand)
		return output.CommandSource{Command: argv, Interval: c.PollInterval}, nil
	}
	specs := c.Output
	if len(specs) == 0 {
		specs = []string{"default:active"}
	}
	var src output.StaticSource
	for _, spec := range specs {
		info, err := output.ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		src.Outputs = append(src.Outputs, info)
	}
	return src, nil
}

func (c *DaemonCmd) options(g *Globals) (daemon.Options, error) {
	reload, err := daemon.ParseReloadPolicy(c.ReloadPolicy)
	if err != nil {
		return daemon.Options{}, err
	}
	policy, err := output.ParsePolicy(c.OutputPolicy)
	if err != nil {
		return daemon.Options{}, err
	}
	return daemon.Options{
		SocketPath:   g.Socket,
		PidPath:      g.Pid,
		ReadyDelay:   c.ReadyDelay,
		ReloadPolicy: reload,
		OutputPolicy: policy,
		Open:         c.Open,
	}, nil
}

// run serves until ctx is done or a client asks the daemon to stop.
func (c *DaemonCmd) run(ctx context.Context, g *Globals) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts, err := c.options(g)
	if err != nil {
		return err
	}
	src, err := c.source()
	if err != nil {
		return err
	}
	if _, err := paths.EnsureDir(g.ConfigDir); err != nil {
		return err
	}
	presets, err := config.LoadPresets(g.ConfigDir)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}

	perf.SetSlowThreshold(c.SlowThreshold)
	m := metrics.New()
	reg := registry.Default()
	d := daemon.New(opts, presets, reg, surface.NewTable(), m)

	srv := ipc.NewServer(g.Socket, g.Pid, d, ipc.WithTimeout(g.Timeout), ipc.WithObserver(m))
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start ipc server: %w", err)
	}
	defer srv.Stop()

	hub := subscription.New(c.UpdateInterval, 0, d.PostBatch)
	if err := reg.Subscribe(hub); err != nil {
		return err
	}
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Module updates stopped", "error", err)
		}
	}()

	go func() {
		if err := src.Run(ctx, d.PostOutput); err != nil {
			slog.Error("Output source stopped", "error", err)
		}
	}()

	if !c.NoWatch {
		w := watch.New(g.ConfigDir, d, watch.WithMetrics(m))
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("Preset watcher stopped", "error", err)
			}
		}()
	}

	if c.MetricsAddr != "" {
		stop := serveMetrics(c.MetricsAddr, m)
		defer stop()
	}

	slog.Info("Daemon started", "socket", srv.SocketPath(), "config_dir", g.ConfigDir,
		"reload_policy", opts.ReloadPolicy, "output_policy", opts.OutputPolicy.String())
	err = d.Run(ctx)
	slog.Info("Daemon stopped")
	return err
}

func serveMetrics(addr string, m *metrics.Metrics) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
