package spi

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/spi"
)

var _ Port = &GobotPort{}

// GobotPort drives an SPI device through a Gobot adaptor. Gobot connections
// assert chip select around each call, so outgoing bytes are buffered
// between Begin and End and shipped as one connection call; a Bus over this
// port is normally constructed with a nil PinWriter.
//
// Tested on boards exposing a sysfs SPI adaptor, but any compliant
// spi.Connection should work.
type GobotPort struct {
	driver  *spi.Driver
	pending []byte
}

// NewGobotPort binds a port to a Gobot SPI adaptor. bus is the board's bus
// name. Mode 0 and a conservative 1 MHz default are applied unless options
// override them.
func NewGobotPort(adaptor spi.Connector, bus string, opts ...func(spi.Config)) *GobotPort {
	d := spi.NewDriver(adaptor, bus, opts...)
	d.SetMode(0)
	if d.GetSpeedOrDefault(0) == 0 {
		d.SetSpeed(1_000_000)
	}
	return &GobotPort{driver: d}
}

// Start establishes the SPI connection.
func (p *GobotPort) Start() error { return p.driver.Start() }

// Halt releases the connection.
func (p *GobotPort) Halt() error { return p.driver.Halt() }

// Begin opens a transaction window.
func (p *GobotPort) Begin(ctx context.Context) error {
	p.pending = p.pending[:0]
	return nil
}

// Transfer stages tx when no response is wanted; with rx set, the staged
// bytes become the command header of a single command/read connection call,
// keeping the whole exchange inside one chip-select assertion.
func (p *GobotPort) Transfer(ctx context.Context, tx, rx []byte) error {
	if len(rx) == 0 {
		p.pending = append(p.pending, tx...)
		return nil
	}
	ops, err := p.ops()
	if err != nil {
		return err
	}
	cmd := append(p.pending, tx...)
	p.pending = nil
	return ops.ReadCommandData(cmd, rx)
}

// End flushes staged write bytes as one frame.
func (p *GobotPort) End(ctx context.Context) error {
	if len(p.pending) == 0 {
		return nil
	}
	ops, err := p.ops()
	if err != nil {
		return err
	}
	buf := p.pending
	p.pending = nil
	return ops.WriteBytes(buf)
}

// ops narrows the gobot connection to the raw write and command/read
// operations every SPI connection provides.
func (p *GobotPort) ops() (spiOps, error) {
	conn := p.driver.Connection()
	ops, ok := conn.(spiOps)
	if !ok {
		return nil, fmt.Errorf("spi connection does not support required operations")
	}
	return ops, nil
}

type spiOps interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}
