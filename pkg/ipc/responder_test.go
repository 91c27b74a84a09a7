package ipc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponder_SendOnce(t *testing.T) {
	r := NewResponder()
	require.NoError(t, r.Send(Response{Kind: RespClosing}))
	assert.ErrorIs(t, r.Send(Response{Kind: RespError}), ErrResponded)

	resp, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RespClosing, resp.Kind)
}

func TestResponder_ClientGone(t *testing.T) {
	r := NewResponder()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, r.Send(Response{Kind: RespClosing}), ErrClientGone)
	assert.ErrorIs(t, r.Send(Response{Kind: RespClosing}), ErrResponded)
}

func TestResponder_SentBeforeCancelIsDelivered(t *testing.T) {
	r := NewResponder()
	require.NoError(t, r.Send(Response{Kind: RespThemeList}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := r.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, RespThemeList, resp.Kind)
}
