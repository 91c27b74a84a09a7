// Command crabbar runs the panel daemon and talks to it over its socket.
package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/faervan/bar-rs-sub000/pkg/paths"
)

var version = "dev"

// stdout is where client commands print; tests replace it.
var stdout io.Writer = os.Stdout

// Globals are shared by every command.
type Globals struct {
	Socket    string        `help:"Daemon socket path." env:"CRABBAR_SOCKET" placeholder:"PATH"`
	Pid       string        `help:"Daemon pidfile path." env:"CRABBAR_PID" placeholder:"PATH"`
	ConfigDir string        `help:"Preset directory with configs/, themes/ and styles/." env:"CRABBAR_CONFIG_DIR" placeholder:"DIR"`
	Timeout   time.Duration `help:"Request timeout." default:"5s"`
	Verbose   bool          `short:"v" help:"Enable verbose logging."`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version and exit."`

	Daemon DaemonCmd `cmd:"" help:"Run the bar daemon."`
	Init   InitCmd   `cmd:"" help:"Write default presets into the config directory."`

	List    ListCmd    `cmd:"" help:"List windows."`
	Configs ConfigsCmd `cmd:"" help:"List config presets."`
	Themes  ThemesCmd  `cmd:"" help:"List theme presets."`
	Styles  StylesCmd  `cmd:"" help:"List style presets."`
	Modules ModulesCmd `cmd:"" help:"List registered modules."`
	Open    OpenCmd    `cmd:"" help:"Open a window from a config preset."`
	Close   CloseCmd   `cmd:"" help:"Close windows."`
	Reopen  ReopenCmd  `cmd:"" help:"Recreate window surfaces from their current config."`
	Quit    QuitCmd    `cmd:"" help:"Stop the daemon."`

	GetConfig GetConfigCmd `cmd:"" help:"Print a window's resolved config."`
	GetTheme  GetThemeCmd  `cmd:"" help:"Print a window's resolved theme."`
	GetStyle  GetStyleCmd  `cmd:"" help:"Print a window's resolved style."`

	SetConfig SetConfigCmd `cmd:"" help:"Apply a config override to a window."`
	SetTheme  SetThemeCmd  `cmd:"" help:"Apply a theme override to a window."`
	SetStyle  SetStyleCmd  `cmd:"" help:"Apply a style override to a window."`
}

// AfterApply sets up logging and fills path defaults once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.Socket == "" {
		c.Socket = paths.SocketPath()
	}
	if c.Pid == "" {
		c.Pid = paths.PidPath()
	}
	if c.ConfigDir == "" {
		c.ConfigDir = paths.ConfigDir()
	}
	return nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("crabbar"),
		kong.Description("A layer-shell status bar daemon and its control client."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Bind(&cli.Globals),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
