package output

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swayOutputs = `[
  {"name": "eDP-1", "make": "BOE", "model": "0x0BCA", "active": true, "focused": true,
   "current_mode": {"width": 2256, "height": 1504}},
  {"name": "DP-2", "make": "Dell", "model": "U2720Q", "active": false, "focused": false}
]`

const hyprOutputs = `[
  {"name": "DP-1", "description": "LG 27GL850", "width": 2560, "height": 1440, "focused": false},
  {"name": "HDMI-A-1", "description": "", "width": 1920, "height": 1080, "focused": true}
]`

func TestParseOutputs(t *testing.T) {
	got, err := ParseOutputs([]byte(swayOutputs))
	require.NoError(t, err)
	assert.Equal(t, []Info{{Name: "eDP-1", Description: "BOE 0x0BCA", Width: 2256, Height: 1504, Active: true}}, got,
		"disabled outputs are skipped")

	got, err = ParseOutputs([]byte(hyprOutputs))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Info{Name: "DP-1", Description: "LG 27GL850", Width: 2560, Height: 1440}, got[0])
	assert.True(t, got[1].Active)

	_, err = ParseOutputs([]byte(`{"not": "a list"}`))
	assert.Error(t, err)
}

func TestDiffer(t *testing.T) {
	d := newDiffer()

	events := d.diff([]Info{{Name: "DP-1"}, {Name: "eDP-1", Active: true}})
	require.Len(t, events, 2)
	assert.Equal(t, Added, events[0].Kind)
	assert.Equal(t, Handle(1), events[0].Handle)
	assert.Equal(t, Handle(2), events[1].Handle)

	assert.Empty(t, d.diff([]Info{{Name: "DP-1"}, {Name: "eDP-1", Active: true}}), "no change, no events")

	events = d.diff([]Info{{Name: "eDP-1"}})
	require.Len(t, events, 2)
	assert.Equal(t, Event{Kind: Updated, Handle: 2, Info: &Info{Name: "eDP-1"}}, events[0])
	assert.Equal(t, Event{Kind: Removed, Handle: 1}, events[1])

	events = d.diff([]Info{{Name: "eDP-1"}, {Name: "DP-1"}})
	require.Len(t, events, 1)
	assert.Equal(t, Event{Kind: Added, Handle: 1, Info: &Info{Name: "DP-1"}}, events[0], "a returning output keeps its handle")
}

func TestCommandSource_Polls(t *testing.T) {
	var mu sync.Mutex
	replies := [][]byte{[]byte(hyprOutputs), nil, []byte(`[{"name": "DP-1", "description": "LG 27GL850", "width": 2560, "height": 1440}]`)}
	calls := 0
	src := CommandSource{
		Command:  []string{"hyprctl", "monitors", "-j"},
		Interval: 5 * time.Millisecond,
		Exec: func(_ context.Context, argv []string) ([]byte, error) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "hyprctl", argv[0])
			i := calls
			calls++
			if i >= len(replies) {
				i = len(replies) - 1
			}
			if replies[i] == nil {
				return nil, errors.New("compositor busy")
			}
			return replies[i], nil
		},
	}

	var evMu sync.Mutex
	var events []Event
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(ev Event) {
			evMu.Lock()
			events = append(events, ev)
			evMu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		evMu.Lock()
		defer evMu.Unlock()
		return len(events) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	evMu.Lock()
	defer evMu.Unlock()
	assert.Equal(t, Added, events[0].Kind)
	assert.Equal(t, Added, events[1].Kind)
	assert.Equal(t, Event{Kind: Removed, Handle: 2}, events[2], "HDMI-A-1 disappeared")
}

func TestCommandSource_EmptyCommand(t *testing.T) {
	err := CommandSource{}.Run(context.Background(), func(Event) {})
	assert.Error(t, err)
}
