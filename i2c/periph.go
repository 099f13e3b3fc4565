package i2c

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var _ Port = &PeriphPort{}

// PeriphPort drives a kernel i2c device through periph.io. The controller
// only exposes combined write/read transactions, so restart framing is
// realized by holding the written bytes until the following RequestFrom and
// issuing both as one Tx.
type PeriphPort struct {
	bus      i2c.BusCloser
	pending  []byte
	held     bool
	lastAddr uint16
}

// OpenPeriph initializes the periph host and opens the named i2c bus
// (e.g. "/dev/i2c-1", or "" for the first available).
func OpenPeriph(dev string) (*PeriphPort, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &PeriphPort{bus: bus}, nil
}

func (p *PeriphPort) BeginTransmission(ctx context.Context, addr uint8) error {
	p.pending = p.pending[:0]
	p.held = false
	p.lastAddr = uint16(addr)
	return nil
}

func (p *PeriphPort) Write(ctx context.Context, data []byte) (int, error) {
	p.pending = append(p.pending, data...)
	return len(data), nil
}

func (p *PeriphPort) EndTransmission(ctx context.Context, stop bool) error {
	if !stop {
		// Restart requested: keep the bytes for a combined write/read.
		p.held = true
		return nil
	}
	p.held = false
	buf := p.pending
	p.pending = nil
	// An empty transaction is still issued so Ping gets an ack probe.
	if err := p.bus.Tx(p.lastAddr, buf, nil); err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", p.lastAddr, err)
	}
	return nil
}

func (p *PeriphPort) RequestFrom(ctx context.Context, addr uint8, buf []byte, stop bool) (int, error) {
	var w []byte
	if p.held {
		w = p.pending
		p.pending = nil
		p.held = false
	}
	if err := p.bus.Tx(uint16(addr), w, buf); err != nil {
		return 0, fmt.Errorf("could not read from i2c bus %x: %w", addr, err)
	}
	return len(buf), nil
}

// Close releases the underlying bus handle.
func (p *PeriphPort) Close() error { return p.bus.Close() }
