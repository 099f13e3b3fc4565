// Package m24c64 implements a driver for the ST M24C64 8 KiB two-wire
// EEPROM. Memory locations are addressed with 16 bit registers, making this
// the canonical consumer of the bus's 16-bit address accessors.
package m24c64

import (
	"context"
	"fmt"
	"time"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// DefaultAddress is the device's two-wire address with E2..E0 low.
const DefaultAddress = 0x50

const (
	// Capacity in bytes (64 Kbit).
	Capacity = 8192
	// PageSize bounds one write cycle.
	PageSize = 32
)

// writeCycle is the datasheet's maximum self-timed write cycle.
const writeCycle = 5 * time.Millisecond

var ErrOutOfRange = fmt.Errorf("address out of range")

// M24C64 reads and writes EEPROM memory through a generic register bus.
type M24C64 struct {
	bus toolkit.Bus
}

// New returns a driver over bus. The device expects memory addresses MSB
// first, so the bus byte order is set to big-endian.
func New(bus toolkit.Bus) *M24C64 {
	bus.SetByteOrder(toolkit.BigEndian)
	return &M24C64{bus: bus}
}

// Read fills buf starting at memory address addr. The device's internal
// pointer rolls over sequential reads, so one addressed transfer suffices;
// transport-level chunking is handled below the bus.
func (m *M24C64) Read(ctx context.Context, addr uint16, buf []byte) (int, error) {
	if int(addr)+len(buf) > Capacity {
		return 0, ErrOutOfRange
	}
	n, err := m.bus.ReadRegister16Bytes(ctx, addr, buf)
	if err != nil {
		return n, fmt.Errorf("could not read %d bytes at %#04x: %w", len(buf), addr, err)
	}
	return n, nil
}

// Write stores data starting at memory address addr, splitting the transfer
// on the device's page boundaries and waiting out each self-timed write
// cycle.
func (m *M24C64) Write(ctx context.Context, addr uint16, data []byte) error {
	if int(addr)+len(data) > Capacity {
		return ErrOutOfRange
	}
	for len(data) > 0 {
		// a page write must not cross a page boundary or the address
		// counter wraps within the page
		space := PageSize - int(addr)%PageSize
		if space > len(data) {
			space = len(data)
		}
		if err := m.bus.WriteRegister16Bytes(ctx, addr, data[:space]); err != nil {
			return fmt.Errorf("could not write page at %#04x: %w", addr, err)
		}
		time.Sleep(writeCycle)
		addr += uint16(space)
		data = data[space:]
	}
	return nil
}
