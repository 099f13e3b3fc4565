// Package adapter contains USB bridge devices that expose a physical bus to
// a host machine. The MCP2221 implements the i2c.Port contract over USB HID.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
	"github.com/sparkfun/SparkFun-Toolkit/cmd/sftk/console"
	"github.com/sparkfun/SparkFun-Toolkit/i2c"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MaxTransfer is the largest data payload one 64-byte HID report can carry.
// Bus chunk sizes above this are clamped by the engine itself.
const MaxTransfer = 60

// MCP2221 I2C engine commands.
const (
	cmdStatus          = 0x10
	cmdGetData         = 0x40
	cmdWriteData       = 0x90 // start ... stop
	cmdReadData        = 0x91 // start ... stop
	cmdReadRepStart    = 0x93 // repeated start ... stop
	cmdWriteNoStop     = 0x94 // start ..., bus held
	flagCancelTransfer = 0x10
)

var ErrCommandFailed = errors.New("command failed")
var ErrEngineBusy = errors.New("I2C engine is busy (command not completed)")

var _ i2c.Port = &MCP2221{}

// MCP2221 drives the Microchip MCP2221 USB-to-I2C bridge. It implements
// i2c.Port: writes are buffered between BeginTransmission and
// EndTransmission and shipped as one engine command, so the destination
// chip sees a single contiguous frame; EndTransmission(false) leaves the
// bus held and the following RequestFrom issues a repeated start.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration

	addr    uint8
	pending []byte
	held    bool
}

// MCP2221Status reflects the state of the bridge's I2C engine.
type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

//---------------------------------------------------------------------------
// i2c.Port
//---------------------------------------------------------------------------

func (d *MCP2221) BeginTransmission(ctx context.Context, addr uint8) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.addr = addr
	d.pending = d.pending[:0]
	d.held = false
	return nil
}

func (d *MCP2221) Write(ctx context.Context, data []byte) (int, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if len(d.pending)+len(data) > MaxTransfer {
		return 0, toolkit.ErrBusDataTooLong
	}
	d.pending = append(d.pending, data...)
	return len(data), nil
}

func (d *MCP2221) EndTransmission(ctx context.Context, stop bool) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	cmd := byte(cmdWriteData)
	if !stop {
		cmd = cmdWriteNoStop
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(d.pending)))
	d.request[3] = d.addr << 1
	copy(d.request[4:], d.pending)
	d.pending = d.pending[:0]
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", d.addr, err)
	}
	if d.response[1] == 0x01 {
		console.Debug("adapter busy")
		return ErrEngineBusy
	}
	d.held = !stop
	return nil
}

func (d *MCP2221) RequestFrom(ctx context.Context, addr uint8, buf []byte, stop bool) (int, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	count := len(buf)
	if count > MaxTransfer {
		count = MaxTransfer
	}
	cmd := byte(cmdReadData)
	if d.held {
		cmd = cmdReadRepStart
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(count))
	d.request[3] = addr<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("bus read from %x failed: %w", addr, err)
	}

	// Fetch the engine's receive buffer.
	d.request[0] = cmdGetData
	resetBuffer(d.response)
	err = d.send(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return 0, fmt.Errorf("%w: engine rejected the slave read", ErrCommandFailed)
	}
	got := int(d.response[3])
	if got == 127 || got > count {
		return 0, fmt.Errorf("invalid data size byte; expected up to %d, got %d", count, got)
	}
	copy(buf, d.response[4:4+got])
	d.held = false
	return got, nil
}

//---------------------------------------------------------------------------
// engine management
//---------------------------------------------------------------------------

// Status queries the I2C engine state.
func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// ReleaseBus cancels any in-flight transfer and frees the bus lines.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = flagCancelTransfer
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	d.held = false
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := console.IsVerbose(ctx)
	if verbose {
		console.Printf("sending message to adapter:\n%s\n", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	time.Sleep(d.responseWait)
	console.Debug("reading response from adapter")
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		console.Printf("read message from adapter:\n%s\n", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}
