package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a request payload.
const MaxFrameSize = 1 << 20

const prefixSize = 4

var (
	ErrFrameTooLarge = errors.New("ipc: frame exceeds size limit")
	ErrShortFrame    = errors.New("ipc: frame shorter than declared length")
)

// WriteFrame writes payload behind a native-endian u32 length prefix.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, prefixSize+len(payload))
	binary.NativeEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[prefixSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed payload of at most max bytes.
func ReadFrame(r io.Reader, max uint32) ([]byte, error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.NativeEndian.Uint32(prefix[:])
	if n > max {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, max)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrShortFrame
		}
		return nil, err
	}
	return payload, nil
}
