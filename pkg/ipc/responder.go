package ipc

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrResponded  = errors.New("response already sent")
	ErrClientGone = errors.New("client no longer waiting for a response")
)

// Responder carries exactly one response from the state owner back to
// the connection handler waiting on it.
type Responder struct {
	mu   sync.Mutex
	sent bool
	gone bool
	ch   chan Response
}

func NewResponder() *Responder {
	return &Responder{ch: make(chan Response, 1)}
}

// Send delivers resp. It never blocks.
func (r *Responder) Send(resp Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return ErrResponded
	}
	r.sent = true
	if r.gone {
		return ErrClientGone
	}
	r.ch <- resp
	return nil
}

// Wait blocks for the response. Once ctx ends the responder is abandoned
// and later sends report ErrClientGone.
func (r *Responder) Wait(ctx context.Context) (Response, error) {
	select {
	case resp := <-r.ch:
		return resp, nil
	case <-ctx.Done():
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gone = true
	select {
	case resp := <-r.ch:
		return resp, nil
	default:
		return Response{}, ctx.Err()
	}
}
