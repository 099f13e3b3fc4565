package serial

import (
	"context"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// Bus maps the toolkit register protocol onto a Stream. "Write register X"
// becomes "write the address bytes, then the data bytes"; "read register X"
// becomes "write the address bytes, then read". There is no stop/restart
// concept on a stream, so no framing choice applies.
type Bus struct {
	toolkit.RegisterBus

	stream Stream
}

// NewBus returns a register bus over stream.
func NewBus(stream Stream) *Bus {
	b := &Bus{stream: stream}
	b.RegisterBus = toolkit.NewRegisterBus(b)
	return b
}

// Type returns the stream-adapter capability tag.
func (b *Bus) Type() uint8 { return toolkit.BusTypeSerial }

func (b *Bus) WriteRaw(ctx context.Context, reg []byte, data []byte) error {
	if b.stream == nil {
		return ErrNotInit
	}
	if len(reg) > 0 {
		if _, err := b.stream.Write(ctx, reg); err != nil {
			return toolkit.ErrFail
		}
	}
	if _, err := b.stream.Write(ctx, data); err != nil {
		return toolkit.ErrFail
	}
	return nil
}

func (b *Bus) ReadRaw(ctx context.Context, reg []byte, buf []byte) (int, error) {
	if b.stream == nil {
		return 0, ErrNotInit
	}
	if buf == nil {
		return 0, ErrNullBuffer
	}
	if len(reg) > 0 {
		if _, err := b.stream.Write(ctx, reg); err != nil {
			return 0, toolkit.ErrFail
		}
	}
	n, err := b.stream.Read(ctx, buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, ErrUnderRead
	}
	return n, nil
}
