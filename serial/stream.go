package serial

import (
	"bufio"
	"context"
	"io"
)

var _ Stream = &IOStream{}

// IOStream adapts any io.ReadWriter (a tty handle, a pipe, a network
// connection) to the Stream contract. Reads go through a buffered reader so
// Peek and Available have somewhere to look.
type IOStream struct {
	rw io.ReadWriter
	r  *bufio.Reader
}

// NewIOStream wraps rw. The underlying handle owns timeouts; a blocked Read
// here blocks until the handle yields bytes or errors.
func NewIOStream(rw io.ReadWriter) *IOStream {
	return &IOStream{rw: rw, r: bufio.NewReader(rw)}
}

func (s *IOStream) Write(ctx context.Context, data []byte) (int, error) {
	return s.rw.Write(data)
}

func (s *IOStream) Read(ctx context.Context, buf []byte) (int, error) {
	return io.ReadFull(s.r, buf)
}

func (s *IOStream) Available(ctx context.Context) (int, error) {
	return s.r.Buffered(), nil
}

func (s *IOStream) Peek(ctx context.Context) (byte, error) {
	b, err := s.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Flush is a no-op: io.ReadWriter has no transmit queue to drain. Handles
// that buffer writes should be wrapped before they get here.
func (s *IOStream) Flush(ctx context.Context) error { return nil }
