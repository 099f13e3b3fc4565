// Package spi binds the toolkit register protocol to a clocked synchronous
// serial bus with a chip-select line. Register reads set a read bit on the
// leading address byte, the convention shared by the sensor families this
// toolkit targets.
package spi

import (
	"context"
	"strconv"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// NoCSPin marks a bus with no chip-select line configured, distinguishing
// "unconfigured" from an explicitly selected line.
const NoCSPin uint8 = 0

// ReadBit is ORed into the leading register byte of a read transfer.
const ReadBit uint8 = 0x80

// Port models the SPI controller a Bus drives. Begin and End frame one bus
// transaction (settings applied, clock held); Transfer moves tx out while
// filling rx, either side may be nil for half-duplex use.
type Port interface {
	Begin(ctx context.Context) error
	Transfer(ctx context.Context, tx, rx []byte) error
	End(ctx context.Context) error
}

// PinWriter drives the chip-select line. Gobot adaptors satisfy this.
type PinWriter interface {
	DigitalWrite(pin string, level byte) error
}

// Bus is an SPI register bus. Not safe for concurrent use.
type Bus struct {
	toolkit.RegisterBus

	port Port
	pins PinWriter
	cs   uint8
}

// New returns a bus bound to port, toggling cs through pins around each
// transaction. pins may be nil when the port asserts chip select itself
// (as gobot connections do); cs then stays informational.
func New(port Port, pins PinWriter, cs uint8) *Bus {
	b := &Bus{port: port, pins: pins, cs: cs}
	b.RegisterBus = toolkit.NewRegisterBus(b)
	return b
}

// SetCS sets the chip-select line.
func (b *Bus) SetCS(cs uint8) { b.cs = cs }

// CS returns the configured chip-select line.
func (b *Bus) CS() uint8 { return b.cs }

// Type returns the SPI capability tag.
func (b *Bus) Type() uint8 { return toolkit.BusTypeSPI }

func (b *Bus) select_(low bool) error {
	if b.pins == nil || b.cs == NoCSPin {
		return nil
	}
	level := byte(1)
	if low {
		level = 0
	}
	return b.pins.DigitalWrite(strconv.Itoa(int(b.cs)), level)
}

// WriteRaw clocks out the register address (when present) followed by the
// data within a single chip-select window. Ports that stage bytes until End
// report their failure there, so the End error is part of the result.
func (b *Bus) WriteRaw(ctx context.Context, reg []byte, data []byte) error {
	if b.port == nil {
		return toolkit.ErrBusNotInit
	}
	if err := b.port.Begin(ctx); err != nil {
		return toolkit.ErrFail
	}
	if err := b.select_(true); err != nil {
		_ = b.port.End(ctx)
		return toolkit.ErrFail
	}

	tx := make([]byte, 0, len(reg)+len(data))
	tx = append(tx, reg...)
	tx = append(tx, data...)
	err := b.port.Transfer(ctx, tx, nil)
	_ = b.select_(false)
	if end := b.port.End(ctx); err == nil {
		err = end
	}
	if err != nil {
		return toolkit.ErrFail
	}
	return nil
}

// ReadRaw clocks out the register address with ReadBit set on its leading
// byte, then clocks in len(buf) bytes. SPI transfers are full length by
// construction, so the returned count always equals len(buf) on success.
func (b *Bus) ReadRaw(ctx context.Context, reg []byte, buf []byte) (int, error) {
	if b.port == nil {
		return 0, toolkit.ErrBusNotInit
	}
	if buf == nil {
		return 0, toolkit.ErrBusNullBuffer
	}
	if err := b.port.Begin(ctx); err != nil {
		return 0, toolkit.ErrFail
	}
	if err := b.select_(true); err != nil {
		_ = b.port.End(ctx)
		return 0, toolkit.ErrFail
	}

	var err error
	if len(reg) > 0 {
		addr := make([]byte, len(reg))
		copy(addr, reg)
		addr[0] |= ReadBit
		err = b.port.Transfer(ctx, addr, nil)
	}
	if err == nil {
		err = b.port.Transfer(ctx, nil, buf)
	}
	_ = b.select_(false)
	if end := b.port.End(ctx); err == nil {
		err = end
	}
	if err != nil {
		return 0, toolkit.ErrFail
	}
	return len(buf), nil
}
