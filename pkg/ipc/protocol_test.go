package ipc

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faervan/bar-rs-sub000/pkg/config"
	"github.com/faervan/bar-rs-sub000/pkg/window"
)

func ptr[T any](v T) *T { return &v }

func TestRequest_RoundTripThroughFrame(t *testing.T) {
	id := window.NaiveID(3)
	anchor := config.AnchorBottom
	tests := []struct {
		name string
		req  Request
	}{
		{"list windows", ListWindows()},
		{"configs", Configs()},
		{"modules", Modules()},
		{"themes", Themes()},
		{"styles", Styles()},
		{"shutdown", Shutdown()},
		{"open", Window(nil, Open(config.RuntimeOptions{Name: "crabbar"}))},
		{"open with overrides", Window(nil, Open(config.RuntimeOptions{
			Name:  "crabbar",
			Theme: "dark",
			Overrides: config.Overrides{
				Config: config.WindowConfigOverride{Height: ptr(40)},
				Theme:  config.ThemeOverride{Accent: ptr("#ff0000")},
			},
		}))},
		{"close one", Window(&id, Close(false))},
		{"close all", Window(nil, Close(true))},
		{"reopen", Window(&id, Reopen(true))},
		{"get config", Window(&id, GetConfig())},
		{"get theme", Window(nil, GetTheme())},
		{"get style", Window(nil, GetStyle())},
		{"set config", Window(&id, SetConfig(true, config.WindowConfigOverride{
			Anchor:  &anchor,
			Margin:  &config.MarginOverride{Top: ptr(4)},
			Modules: &config.ModulesOverride{Right: &[]string{"clock", "text"}},
		}))},
		{"set theme", Window(nil, SetTheme(config.ThemeOverride{FontSize: ptr(12.5)}))},
		{"set style", Window(nil, SetStyle(config.StyleOverride{
			Classes: map[string]config.ClassStyleOverride{"clock": {Color: ptr("#fff")}},
		}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := EncodeRequest(tt.req)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, WriteFrame(&buf, payload))
			framed, err := ReadFrame(&buf, MaxFrameSize)
			require.NoError(t, err)

			got, err := DecodeRequest(framed)
			require.NoError(t, err)
			assert.Equal(t, tt.req, got)
		})
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	cfg := config.DefaultWindowConfig()
	theme := config.DefaultTheme()
	style := config.Style{Classes: map[string]config.ClassStyle{"clock": {Color: "#fff", Padding: 2}}}
	tests := []struct {
		name string
		resp Response
	}{
		{"window list", Response{Kind: RespWindowList, Windows: []window.Summary{
			{ID: 0, Name: "crabbar", State: "open", Anchor: config.AnchorTop},
			{ID: 2, Name: "side", State: "queued", Anchor: config.AnchorLeft, Monitor: "DP-1"},
		}}},
		{"empty window list", Response{Kind: RespWindowList, Windows: []window.Summary{}}},
		{"config list", Response{Kind: RespConfigList, Names: []string{"crabbar", "side"}}},
		{"module list", Response{Kind: RespModuleList, Names: []string{"clock"}}},
		{"theme list", Response{Kind: RespThemeList, Names: []string{"dark"}}},
		{"style list", Response{Kind: RespStyleList, Names: []string{"minimal"}}},
		{"opened", WindowEventResponse([]window.NaiveID{0}, WindowEvent{Kind: EventOpened})},
		{"closed", WindowEventResponse([]window.NaiveID{0, 1}, WindowEvent{Kind: EventClosed})},
		{"reopened", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventReopened})},
		{"config", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventConfig, Config: &cfg})},
		{"theme", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventTheme, Theme: &theme})},
		{"style", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventStyle, Style: &style})},
		{"config applied", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventConfigApplied})},
		{"theme applied", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventThemeApplied})},
		{"style applied", WindowEventResponse([]window.NaiveID{1}, WindowEvent{Kind: EventStyleApplied})},
		{"closing", Response{Kind: RespClosing}},
		{"error", ErrorResponse(window.ErrNoWindows)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeResponse(tt.resp)
			require.NoError(t, err)
			got, err := DecodeResponse(data)
			require.NoError(t, err)
			assert.Equal(t, tt.resp, got)
		})
	}
}

func TestEncodeResponse_EmptyWindowListIsAnArray(t *testing.T) {
	data, err := EncodeResponse(Response{Kind: RespWindowList, Windows: []window.Summary{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"window_list","windows":[]}`, string(data))
}

func TestDecodeRequest_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `open please`},
		{"unknown kind", `{"kind":"dance"}`},
		{"window without body", `{"kind":"window"}`},
		{"unknown command", `{"kind":"window","window":{"cmd":{"kind":"explode"}}}`},
		{"open without options", `{"kind":"window","window":{"cmd":{"kind":"open"}}}`},
		{"set config without override", `{"kind":"window","window":{"cmd":{"kind":"set_config","reopen":true}}}`},
		{"set theme without override", `{"kind":"window","window":{"cmd":{"kind":"set_theme"}}}`},
		{"set style without override", `{"kind":"window","window":{"cmd":{"kind":"set_style"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.payload))
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func TestDecodeResponse_Rejects(t *testing.T) {
	_, err := DecodeResponse([]byte(`{}`))
	assert.ErrorIs(t, err, ErrBadResponse)
	_, err = DecodeResponse([]byte(`nope`))
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestResponse_Err(t *testing.T) {
	assert.NoError(t, Response{Kind: RespClosing}.Err())

	err := ErrorResponse(window.ErrNoWindows).Err()
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, window.ErrNoWindows.Error(), remote.Message)
}

func TestFrame_UsesNativeEndianPrefix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	raw := buf.Bytes()
	require.Len(t, raw, 9)
	assert.Equal(t, uint32(5), binary.NativeEndian.Uint32(raw[:4]))
	assert.Equal(t, "hello", string(raw[4:]))
}

func TestFrame_Errors(t *testing.T) {
	t.Run("too large to write", func(t *testing.T) {
		err := WriteFrame(io.Discard, make([]byte, MaxFrameSize+1))
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
	t.Run("declared length over limit", func(t *testing.T) {
		var prefix [4]byte
		binary.NativeEndian.PutUint32(prefix[:], 100)
		_, err := ReadFrame(bytes.NewReader(prefix[:]), 10)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
	t.Run("short payload", func(t *testing.T) {
		var buf bytes.Buffer
		var prefix [4]byte
		binary.NativeEndian.PutUint32(prefix[:], 10)
		buf.Write(prefix[:])
		buf.WriteString("abc")
		_, err := ReadFrame(&buf, MaxFrameSize)
		assert.ErrorIs(t, err, ErrShortFrame)
	})
	t.Run("empty stream", func(t *testing.T) {
		_, err := ReadFrame(bytes.NewReader(nil), MaxFrameSize)
		assert.ErrorIs(t, err, io.EOF)
	})
	t.Run("empty payload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFrame(&buf, nil))
		got, err := ReadFrame(&buf, MaxFrameSize)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
