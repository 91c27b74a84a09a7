package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultTimeout bounds one request from connect to response.
const DefaultTimeout = 5 * time.Second

// Dispatcher answers a decoded request. An error means no response can
// be produced and the connection is dropped.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (Response, error)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, req Request) (Response, error)

func (f DispatchFunc) Dispatch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Observer is notified about served requests. Metrics implement it.
type Observer interface {
	IPCRequest(kind string)
	IPCError(stage string)
}

type nopObserver struct{}

func (nopObserver) IPCRequest(string) {}
func (nopObserver) IPCError(string)   {}

// Server accepts one request per connection on a unix socket and hands
// it to a Dispatcher.
type Server struct {
	socketPath string
	pidPath    string
	pidFile    *PidFile
	dispatcher Dispatcher
	observer   Observer
	timeout    time.Duration

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type ServerOption func(*Server)

func WithTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithObserver(o Observer) ServerOption {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

func NewServer(socketPath, pidPath string, d Dispatcher, opts ...ServerOption) *Server {
	s := &Server{
		socketPath: socketPath,
		pidPath:    pidPath,
		dispatcher: d,
		observer:   nopObserver{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start claims the pidfile, replaces any stale socket and begins
// accepting connections.
func (s *Server) Start() error {
	pf, err := ClaimPidFile(s.pidPath)
	if err != nil {
		return err
	}
	s.pidFile = pf

	// Safe to remove now that the pidfile is ours.
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		pf.Release()
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	slog.Info("IPC server listening", "socket", s.socketPath)
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener, waits for in-flight connections and removes
// the socket and pidfile.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.listener == nil {
			return
		}
		s.cancel()
		_ = s.listener.Close()
		s.wg.Wait()
		_ = os.Remove(s.socketPath)
		s.pidFile.Release()
		slog.Info("IPC server stopped", "socket", s.socketPath)
	})
}

func (s *Server) SocketPath() string { return s.socketPath }

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("Failed to accept connection", "error", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleClient(conn)
		}()
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(s.timeout))

	payload, err := ReadFrame(conn, MaxFrameSize)
	if err != nil {
		s.observer.IPCError("read")
		slog.Warn("Failed to read request", "error", err)
		return
	}
	req, err := DecodeRequest(payload)
	if err != nil {
		s.observer.IPCError("decode")
		slog.Error("Failed to parse request", "error", err, "payload", string(payload))
		return
	}
	s.observer.IPCRequest(string(req.Kind))
	slog.Debug("IPC request", "kind", req.Kind)

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	resp, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		s.observer.IPCError("dispatch")
		slog.Warn("Request not answered", "kind", req.Kind, "error", err)
		return
	}

	data, err := EncodeResponse(resp)
	if err != nil {
		s.observer.IPCError("encode")
		slog.Error("Failed to encode response", "error", err)
		return
	}
	if _, err := conn.Write(data); err != nil {
		s.observer.IPCError("write")
		slog.Error("Failed to write response", "kind", resp.Kind, "error", err)
	}
}
