package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

var ErrNoResponse = errors.New("daemon closed the connection without responding")

// Send delivers req to the daemon at socketPath and waits for its
// response. The daemon replies with an unprefixed payload and closes the
// connection.
func Send(ctx context.Context, socketPath string, req Request) (Response, error) {
	payload, err := EncodeRequest(req)
	if err != nil {
		return Response{}, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return Response{}, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := WriteFrame(conn, payload); err != nil {
		return Response{}, fmt.Errorf("failed to send request: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	data, err := io.ReadAll(io.LimitReader(conn, MaxFrameSize*16))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) == 0 {
		return Response{}, ErrNoResponse
	}
	return DecodeResponse(data)
}
