package spi

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

type transfer struct {
	tx []byte
	rx int
}

// mockPort records transfers and feeds sequential bytes into rx buffers.
type mockPort struct {
	begins    int
	ends      int
	transfers []transfer
	source    byte
	beginErr  error
}

func (p *mockPort) Begin(_ context.Context) error {
	p.begins++
	return p.beginErr
}

func (p *mockPort) Transfer(_ context.Context, tx, rx []byte) error {
	p.transfers = append(p.transfers, transfer{tx: append([]byte(nil), tx...), rx: len(rx)})
	for i := range rx {
		rx[i] = p.source
		p.source++
	}
	return nil
}

func (p *mockPort) End(_ context.Context) error {
	p.ends++
	return nil
}

// mockPins records chip-select line transitions.
type mockPins struct {
	pins   []string
	levels []byte
	err    error
}

func (p *mockPins) DigitalWrite(pin string, level byte) error {
	p.pins = append(p.pins, pin)
	p.levels = append(p.levels, level)
	return p.err
}

func TestBus_Defaults(t *testing.T) {
	b := New(nil, nil, NoCSPin)
	assert.Equal(t, NoCSPin, b.CS())
	assert.Equal(t, toolkit.BusTypeSPI, b.Type())
	b.SetCS(10)
	assert.Equal(t, uint8(10), b.CS())
}

func TestBus_NotInitialized(t *testing.T) {
	b := New(nil, nil, NoCSPin)
	err := b.WriteRaw(context.Background(), []byte{0x26}, []byte{0x01})
	assert.Equal(t, toolkit.ErrBusNotInit, toolkit.CodeOf(err))
	n, err := b.ReadRaw(context.Background(), []byte{0x26}, make([]byte, 2))
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrBusNotInit, toolkit.CodeOf(err))
}

func TestBus_WriteRaw_SingleTransfer(t *testing.T) {
	port := &mockPort{}
	b := New(port, nil, NoCSPin)
	require.NoError(t, b.WriteRaw(context.Background(), []byte{0x26}, []byte{0xAA, 0xBB}))

	require.Len(t, port.transfers, 1)
	assert.Equal(t, []byte{0x26, 0xAA, 0xBB}, port.transfers[0].tx)
	assert.Equal(t, 1, port.begins)
	assert.Equal(t, 1, port.ends)
}

func TestBus_ReadRaw_SetsReadBit(t *testing.T) {
	port := &mockPort{}
	b := New(port, nil, NoCSPin)

	buf := make([]byte, 3)
	n, err := b.ReadRaw(context.Background(), []byte{0x26}, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, port.transfers, 2)
	assert.Equal(t, []byte{0x26 | ReadBit}, port.transfers[0].tx)
	assert.Equal(t, 3, port.transfers[1].rx)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, buf)
}

func TestBus_ReadRaw_ReadBitOnLeadingByteOnly(t *testing.T) {
	port := &mockPort{}
	b := New(port, nil, NoCSPin)

	buf := make([]byte, 1)
	_, err := b.ReadRaw(context.Background(), []byte{0x12, 0x34}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12 | ReadBit, 0x34}, port.transfers[0].tx)
}

func TestBus_ReadRaw_NoRegister(t *testing.T) {
	port := &mockPort{}
	b := New(port, nil, NoCSPin)

	buf := make([]byte, 2)
	n, err := b.ReadRaw(context.Background(), nil, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	// no address transfer, straight to the data clock-in
	require.Len(t, port.transfers, 1)
	assert.Equal(t, 2, port.transfers[0].rx)
}

func TestBus_ReadRaw_NilBuffer(t *testing.T) {
	b := New(&mockPort{}, nil, NoCSPin)
	n, err := b.ReadRaw(context.Background(), []byte{0x26}, nil)
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrBusNullBuffer, toolkit.CodeOf(err))
}

func TestBus_ChipSelectToggles(t *testing.T) {
	port := &mockPort{}
	pins := &mockPins{}
	b := New(port, pins, 8)

	require.NoError(t, b.WriteRaw(context.Background(), []byte{0x26}, []byte{0x01}))
	// asserted low for the transaction, released high after
	assert.Equal(t, []string{"8", "8"}, pins.pins)
	assert.Equal(t, []byte{0, 1}, pins.levels)
}

func TestBus_ChipSelectSkippedWithoutPin(t *testing.T) {
	pins := &mockPins{}
	b := New(&mockPort{}, pins, NoCSPin)
	require.NoError(t, b.WriteRaw(context.Background(), []byte{0x26}, []byte{0x01}))
	assert.Empty(t, pins.pins)
}

func TestBus_ChipSelectFailure(t *testing.T) {
	pins := &mockPins{err: fmt.Errorf("gpio busy")}
	b := New(&mockPort{}, pins, 8)
	err := b.WriteRaw(context.Background(), []byte{0x26}, []byte{0x01})
	assert.Equal(t, toolkit.ErrFail, toolkit.CodeOf(err))
}

func TestBus_BeginFailure(t *testing.T) {
	port := &mockPort{beginErr: fmt.Errorf("bus claimed")}
	b := New(port, nil, NoCSPin)
	err := b.WriteRaw(context.Background(), []byte{0x26}, []byte{0x01})
	assert.Equal(t, toolkit.ErrFail, toolkit.CodeOf(err))
	assert.Empty(t, port.transfers)
}

func TestBus_TypedThroughTransport(t *testing.T) {
	port := &mockPort{}
	b := New(port, nil, NoCSPin)
	require.NoError(t, b.WriteRegisterUint8(context.Background(), 0x20, 0x57))
	require.Len(t, port.transfers, 1)
	assert.Equal(t, []byte{0x20, 0x57}, port.transfers[0].tx)
}
