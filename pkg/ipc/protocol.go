package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/window"
)

var (
	ErrBadRequest  = errors.New("bad request")
	ErrBadResponse = errors.New("bad response")
)

// RequestKind identifies a client request.
type RequestKind string

const (
	ReqListWindows RequestKind = "list_windows"
	ReqConfigs     RequestKind = "configs"
	ReqModules     RequestKind = "modules"
	ReqThemes      RequestKind = "themes"
	ReqStyles      RequestKind = "styles"
	ReqWindow      RequestKind = "window"
	ReqClose       RequestKind = "close" // shut the daemon down
)

// Request is one client request. Window is set only for ReqWindow.
type Request struct {
	Kind   RequestKind    `json:"kind"`
	Window *WindowRequest `json:"window,omitempty"`
}

// WindowRequest targets a window command at ID, or at the default
// selection when ID is nil.
type WindowRequest struct {
	ID  *window.NaiveID `json:"id,omitempty"`
	Cmd WindowCommand   `json:"cmd"`
}

type CommandKind string

const (
	CmdOpen      CommandKind = "open"
	CmdClose     CommandKind = "close"
	CmdReopen    CommandKind = "reopen"
	CmdGetConfig CommandKind = "get_config"
	CmdGetTheme  CommandKind = "get_theme"
	CmdGetStyle  CommandKind = "get_style"
	CmdSetConfig CommandKind = "set_config"
	CmdSetTheme  CommandKind = "set_theme"
	CmdSetStyle  CommandKind = "set_style"
)

// WindowCommand carries the payload of the command named by Kind.
type WindowCommand struct {
	Kind    CommandKind                  `json:"kind"`
	Options *config.RuntimeOptions       `json:"options,omitempty"` // open
	All     bool                         `json:"all,omitempty"`     // close, reopen
	Reopen  bool                         `json:"reopen,omitempty"`  // set_config
	Config  *config.WindowConfigOverride `json:"config,omitempty"`  // set_config
	Theme   *config.ThemeOverride        `json:"theme,omitempty"`   // set_theme
	Style   *config.StyleOverride        `json:"style,omitempty"`   // set_style
}

func ListWindows() Request { return Request{Kind: ReqListWindows} }
func Configs() Request     { return Request{Kind: ReqConfigs} }
func Modules() Request     { return Request{Kind: ReqModules} }
func Themes() Request      { return Request{Kind: ReqThemes} }
func Styles() Request      { return Request{Kind: ReqStyles} }
func Shutdown() Request    { return Request{Kind: ReqClose} }

// Window builds a window request for cmd.
func Window(id *window.NaiveID, cmd WindowCommand) Request {
	return Request{Kind: ReqWindow, Window: &WindowRequest{ID: id, Cmd: cmd}}
}

func Open(opts config.RuntimeOptions) WindowCommand {
	return WindowCommand{Kind: CmdOpen, Options: &opts}
}

func Close(all bool) WindowCommand  { return WindowCommand{Kind: CmdClose, All: all} }
func Reopen(all bool) WindowCommand { return WindowCommand{Kind: CmdReopen, All: all} }
func GetConfig() WindowCommand      { return WindowCommand{Kind: CmdGetConfig} }
func GetTheme() WindowCommand       { return WindowCommand{Kind: CmdGetTheme} }
func GetStyle() WindowCommand       { return WindowCommand{Kind: CmdGetStyle} }

func SetConfig(reopen bool, over config.WindowConfigOverride) WindowCommand {
	return WindowCommand{Kind: CmdSetConfig, Reopen: reopen, Config: &over}
}

func SetTheme(over config.ThemeOverride) WindowCommand {
	return WindowCommand{Kind: CmdSetTheme, Theme: &over}
}

func SetStyle(over config.StyleOverride) WindowCommand {
	return WindowCommand{Kind: CmdSetStyle, Style: &over}
}

// Validate checks that the payload required by Kind is present.
func (r Request) Validate() error {
	switch r.Kind {
	case ReqListWindows, ReqConfigs, ReqModules, ReqThemes, ReqStyles, ReqClose:
		return nil
	case ReqWindow:
		if r.Window == nil {
			return fmt.Errorf("%w: window request without body", ErrBadRequest)
		}
		return r.Window.Cmd.validate()
	}
	return fmt.Errorf("%w: unknown request kind %q", ErrBadRequest, r.Kind)
}

func (c WindowCommand) validate() error {
	missing := ""
	switch c.Kind {
	case CmdClose, CmdReopen, CmdGetConfig, CmdGetTheme, CmdGetStyle:
	case CmdOpen:
		if c.Options == nil {
			missing = "options"
		}
	case CmdSetConfig:
		if c.Config == nil {
			missing = "config"
		}
	case CmdSetTheme:
		if c.Theme == nil {
			missing = "theme"
		}
	case CmdSetStyle:
		if c.Style == nil {
			missing = "style"
		}
	default:
		return fmt.Errorf("%w: unknown window command %q", ErrBadRequest, c.Kind)
	}
	if missing != "" {
		return fmt.Errorf("%w: %s command without %s", ErrBadRequest, c.Kind, missing)
	}
	return nil
}

// ResponseKind identifies a daemon response.
type ResponseKind string

const (
	RespWindowList ResponseKind = "window_list"
	RespConfigList ResponseKind = "config_list"
	RespModuleList ResponseKind = "module_list"
	RespThemeList  ResponseKind = "theme_list"
	RespStyleList  ResponseKind = "style_list"
	RespWindow     ResponseKind = "window"
	RespClosing    ResponseKind = "closing"
	RespError      ResponseKind = "error"
)

type Response struct {
	Kind    ResponseKind     `json:"kind"`
	Windows []window.Summary `json:"windows"`           // window_list
	Names   []string         `json:"names,omitempty"`   // *_list
	Window  *WindowResponse  `json:"window,omitempty"`
	Message string           `json:"message,omitempty"` // error
}

type WindowResponse struct {
	IDs   []window.NaiveID `json:"ids"`
	Event WindowEvent      `json:"event"`
}

type EventKind string

const (
	EventOpened        EventKind = "opened"
	EventClosed        EventKind = "closed"
	EventReopened      EventKind = "reopened"
	EventConfig        EventKind = "config"
	EventTheme         EventKind = "theme"
	EventStyle         EventKind = "style"
	EventConfigApplied EventKind = "config_applied"
	EventThemeApplied  EventKind = "theme_applied"
	EventStyleApplied  EventKind = "style_applied"
)

type WindowEvent struct {
	Kind   EventKind            `json:"kind"`
	Config *config.WindowConfig `json:"config,omitempty"`
	Theme  *config.Theme        `json:"theme,omitempty"`
	Style  *config.Style        `json:"style,omitempty"`
}

// WindowEventResponse builds a window response for ids.
func WindowEventResponse(ids []window.NaiveID, ev WindowEvent) Response {
	return Response{Kind: RespWindow, Window: &WindowResponse{IDs: ids, Event: ev}}
}

// ErrorResponse converts a client-triggered failure into a response.
func ErrorResponse(err error) Response {
	return Response{Kind: RespError, Message: err.Error()}
}

// Err returns the daemon-reported error of an error response.
func (r Response) Err() error {
	if r.Kind != RespError {
		return nil
	}
	return &RemoteError{Message: r.Message}
}

// RemoteError is an error reported by the daemon.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return "daemon: " + e.Message }

func EncodeRequest(r Request) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

// DecodeRequest parses and validates a request payload.
func DecodeRequest(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

func EncodeResponse(r Response) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return data, nil
}

func DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if r.Kind == "" {
		return Response{}, fmt.Errorf("%w: missing kind", ErrBadResponse)
	}
	return r, nil
}
