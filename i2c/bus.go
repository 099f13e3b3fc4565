// Package i2c binds the toolkit register protocol to a two-wire bus. The
// Port interface models the underlying controller; Bus adds the device
// address, stop/restart framing and the chunked read needed by controllers
// with a bounded receive FIFO.
package i2c

import (
	"context"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// NoAddress marks a bus with no device address configured.
const NoAddress uint8 = 0

// DefaultChunkSize bounds a single read request. 32 bytes is the classic
// two-wire controller buffer depth and a safe default everywhere.
const DefaultChunkSize = 32

// Port models the two-wire controller a Bus drives. A write transaction is
// framed by BeginTransmission/EndTransmission; EndTransmission(false) issues
// a restart instead of a stop so the bus is held for a continued read.
// RequestFrom reads up to len(buf) bytes, reporting how many arrived.
type Port interface {
	BeginTransmission(ctx context.Context, addr uint8) error
	Write(ctx context.Context, data []byte) (int, error)
	EndTransmission(ctx context.Context, stop bool) error
	RequestFrom(ctx context.Context, addr uint8, buf []byte, stop bool) (int, error)
}

// Bus is a two-wire register bus. The zero value is unusable; construct
// with New. Not safe for concurrent use: the address-then-data read
// protocol is not atomic, callers hold one transaction in flight at a time.
type Bus struct {
	toolkit.RegisterBus

	port      Port
	addr      uint8
	stop      bool
	chunkSize int
}

// New returns a bus bound to port, addressing the device at addr. A nil
// port leaves the bus unbound; every operation then fails with
// toolkit.ErrBusNotInit until Init is called.
func New(port Port, addr uint8) *Bus {
	b := &Bus{port: port, addr: addr, stop: true, chunkSize: DefaultChunkSize}
	b.RegisterBus = toolkit.NewRegisterBus(b)
	return b
}

// Init binds the bus to a port after construction. The first port bound
// wins; rebinding a live bus is not supported.
func (b *Bus) Init(port Port, addr uint8) error {
	if b.port == nil {
		b.port = port
	}
	b.SetAddress(addr)
	return nil
}

// SetAddress sets the device address. Stored verbatim.
func (b *Bus) SetAddress(addr uint8) { b.addr = addr }

// Address returns the configured device address.
func (b *Bus) Address() uint8 { return b.addr }

// SetStop selects stop (true) or restart (false) framing between the
// address phase and the data phase of a read.
func (b *Bus) SetStop(stop bool) { b.stop = stop }

// Stop reports the configured framing.
func (b *Bus) Stop() bool { return b.stop }

// SetChunkSize bounds how many bytes one RequestFrom may move. Values < 1
// are ignored.
func (b *Bus) SetChunkSize(size int) {
	if size > 0 {
		b.chunkSize = size
	}
}

// ChunkSize returns the configured chunk size.
func (b *Bus) ChunkSize() int { return b.chunkSize }

// Type returns the two-wire capability tag.
func (b *Bus) Type() uint8 { return toolkit.BusTypeI2C }

// Ping probes the device with an empty transaction.
func (b *Bus) Ping(ctx context.Context) error {
	if b.port == nil {
		return toolkit.ErrBusNotInit
	}
	if err := b.port.BeginTransmission(ctx, b.addr); err != nil {
		return toolkit.ErrFail
	}
	if err := b.port.EndTransmission(ctx, true); err != nil {
		return toolkit.ErrFail
	}
	return nil
}

// WriteRaw sends the register address (when present) and the data as one
// contiguous transaction, so the device sees a single frame.
func (b *Bus) WriteRaw(ctx context.Context, reg []byte, data []byte) error {
	if b.port == nil {
		return toolkit.ErrBusNotInit
	}
	if err := b.port.BeginTransmission(ctx, b.addr); err != nil {
		return toolkit.ErrFail
	}
	if len(reg) > 0 {
		if _, err := b.port.Write(ctx, reg); err != nil {
			return toolkit.ErrFail
		}
	}
	if len(data) > 0 {
		if _, err := b.port.Write(ctx, data); err != nil {
			return toolkit.ErrFail
		}
	}
	if err := b.port.EndTransmission(ctx, true); err != nil {
		return toolkit.ErrFail
	}
	return nil
}

// ReadRaw reads len(buf) bytes from reg, chunking requests to the
// configured chunk size. The address phase uses the bus's stop/restart
// framing; each chunk uses that framing too except the final one, which
// always stops. A zero-byte chunk aborts with the under-read advisory and
// the count collected so far; callers compare the count against len(buf)
// to detect partial data they can still use.
func (b *Bus) ReadRaw(ctx context.Context, reg []byte, buf []byte) (int, error) {
	if b.port == nil {
		return 0, toolkit.ErrBusNotInit
	}
	if buf == nil {
		return 0, toolkit.ErrBusNullBuffer
	}
	if len(reg) == 0 {
		return 0, toolkit.ErrInvalidParam
	}

	orig := len(buf)
	remaining := orig
	pos := 0
	first := true

	for remaining > 0 {
		if first {
			// Address phase. A failed termination is fatal: no data was
			// moved, so no partial count is reported.
			if err := b.port.BeginTransmission(ctx, b.addr); err != nil {
				return 0, toolkit.ErrFail
			}
			if _, err := b.port.Write(ctx, reg); err != nil {
				return 0, toolkit.ErrFail
			}
			if err := b.port.EndTransmission(ctx, b.stop); err != nil {
				return 0, toolkit.ErrFail
			}
			first = false
		}

		chunk := remaining
		if chunk > b.chunkSize {
			chunk = b.chunkSize
		}

		// The final chunk always stops; earlier chunks follow the
		// configured framing.
		stop := b.stop
		if chunk == remaining {
			stop = true
		}

		n, err := b.port.RequestFrom(ctx, b.addr, buf[pos:pos+chunk], stop)
		if err != nil || n == 0 {
			// Zero bytes on any chunk is never "done early".
			return orig - remaining, toolkit.ErrBusUnderRead
		}

		pos += n
		remaining -= n
	}

	n := orig - remaining
	if n != orig {
		return n, toolkit.ErrBusUnderRead
	}
	return n, nil
}
