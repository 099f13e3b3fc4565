// Package toolkit provides a register-oriented communication bus abstraction
// for embedded peripherals. Drivers talk to a device through the Bus
// interface; concrete transports (i2c, spi, serial) only implement the two
// raw Transport primitives and inherit the rest of the protocol from
// RegisterBus, including byte-order normalization and width bookkeeping.
package toolkit

import (
	"context"
	"encoding/binary"
)

// Bus capability tags returned by Type. A driver holding a generic Bus can
// discover the concrete transport without type assertions.
const (
	BusTypeUnknown uint8 = 0x00
	BusTypeI2C     uint8 = 0x01
	BusTypeSPI     uint8 = 0x02
	BusTypeSerial  uint8 = 0x03
)

// Transport is the minimal surface a concrete bus binding must implement.
// Every other register operation is derived from these two primitives.
type Transport interface {
	// WriteRaw writes data to the device. When reg is non-empty it is sent
	// first, as the register address phase of the same transaction.
	WriteRaw(ctx context.Context, reg []byte, data []byte) error
	// ReadRaw reads len(buf) bytes from the device after an optional
	// register address phase, returning the number of bytes actually read.
	// A short count comes back with the ErrBusUnderRead advisory.
	ReadRaw(ctx context.Context, reg []byte, buf []byte) (int, error)
}

// Bus is the full register read/write protocol exposed to device drivers.
type Bus interface {
	Transport

	// Unaddressed operations: no register phase is sent.
	WriteUint8(ctx context.Context, value uint8) error
	WriteUint16(ctx context.Context, value uint16) error
	WriteUint32(ctx context.Context, value uint32) error
	WriteBytes(ctx context.Context, data []byte) error
	ReadUint8(ctx context.Context) (uint8, error)
	ReadUint16(ctx context.Context) (uint16, error)
	ReadUint32(ctx context.Context) (uint32, error)
	ReadBytes(ctx context.Context, buf []byte) (int, error)

	// 8-bit register address operations.
	WriteRegisterUint8(ctx context.Context, reg uint8, value uint8) error
	WriteRegisterUint16(ctx context.Context, reg uint8, value uint16) error
	WriteRegisterUint32(ctx context.Context, reg uint8, value uint32) error
	WriteRegisterBytes(ctx context.Context, reg uint8, data []byte) error
	ReadRegisterUint8(ctx context.Context, reg uint8) (uint8, error)
	ReadRegisterUint16(ctx context.Context, reg uint8) (uint16, error)
	ReadRegisterUint32(ctx context.Context, reg uint8) (uint32, error)
	ReadRegisterBytes(ctx context.Context, reg uint8, buf []byte) (int, error)

	// 16-bit register address operations. The address, and any 16/32 bit
	// data, is byte swapped when the configured order differs from the host.
	WriteRegister16Uint8(ctx context.Context, reg uint16, value uint8) error
	WriteRegister16Uint16(ctx context.Context, reg uint16, value uint16) error
	WriteRegister16Uint32(ctx context.Context, reg uint16, value uint32) error
	WriteRegister16Bytes(ctx context.Context, reg uint16, data []byte) error
	WriteRegister16Uint16s(ctx context.Context, reg uint16, data []uint16) error
	ReadRegister16Uint8(ctx context.Context, reg uint16) (uint8, error)
	ReadRegister16Uint16(ctx context.Context, reg uint16) (uint16, error)
	ReadRegister16Uint32(ctx context.Context, reg uint16) (uint32, error)
	ReadRegister16Bytes(ctx context.Context, reg uint16, buf []byte) (int, error)
	ReadRegister16Uint16s(ctx context.Context, reg uint16, buf []uint16) (int, error)

	SetByteOrder(order ByteOrder)
	ByteOrder() ByteOrder
	Type() uint8
}

// RegisterBus implements every derived Bus operation on top of a Transport.
// Concrete bindings embed it and pass themselves as the transport:
//
//	type Bus struct {
//		toolkit.RegisterBus
//		...
//	}
//
//	b := &Bus{...}
//	b.RegisterBus = toolkit.NewRegisterBus(b)
//
// The configured byte order defaults to the host order, so no swapping
// occurs until a driver asks for the device's order explicitly.
type RegisterBus struct {
	tk    Transport
	order ByteOrder
}

func NewRegisterBus(t Transport) RegisterBus {
	return RegisterBus{tk: t, order: SystemByteOrder()}
}

// SetByteOrder sets the byte order used for multi-byte data transfers.
func (b *RegisterBus) SetByteOrder(order ByteOrder) { b.order = order }

// ByteOrder returns the configured byte order.
func (b *RegisterBus) ByteOrder() ByteOrder { return b.order }

// Type returns the bus capability tag. Concrete bindings shadow this.
func (b *RegisterBus) Type() uint8 { return BusTypeUnknown }

//---------------------------------------------------------------------------
// Unaddressed operations
//---------------------------------------------------------------------------

func (b *RegisterBus) WriteUint8(ctx context.Context, value uint8) error {
	return b.tk.WriteRaw(ctx, nil, []byte{value})
}

func (b *RegisterBus) WriteUint16(ctx context.Context, value uint16) error {
	if SystemByteOrder() != b.order {
		value = SwapUint16(value)
	}
	var data [2]byte
	binary.NativeEndian.PutUint16(data[:], value)
	return b.tk.WriteRaw(ctx, nil, data[:])
}

func (b *RegisterBus) WriteUint32(ctx context.Context, value uint32) error {
	if SystemByteOrder() != b.order {
		value = SwapUint32(value)
	}
	var data [4]byte
	binary.NativeEndian.PutUint32(data[:], value)
	return b.tk.WriteRaw(ctx, nil, data[:])
}

func (b *RegisterBus) WriteBytes(ctx context.Context, data []byte) error {
	return b.tk.WriteRaw(ctx, nil, data)
}

func (b *RegisterBus) ReadUint8(ctx context.Context) (uint8, error) {
	var buf [1]byte
	n, err := b.tk.ReadRaw(ctx, nil, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, ErrBusUnderRead
	}
	return buf[0], nil
}

func (b *RegisterBus) ReadUint16(ctx context.Context) (uint16, error) {
	var buf [2]byte
	n, err := b.tk.ReadRaw(ctx, nil, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 2 {
		return 0, ErrBusUnderRead
	}
	value := binary.NativeEndian.Uint16(buf[:])
	if SystemByteOrder() != b.order {
		value = SwapUint16(value)
	}
	return value, nil
}

func (b *RegisterBus) ReadUint32(ctx context.Context) (uint32, error) {
	var buf [4]byte
	n, err := b.tk.ReadRaw(ctx, nil, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 4 {
		return 0, ErrBusUnderRead
	}
	value := binary.NativeEndian.Uint32(buf[:])
	if SystemByteOrder() != b.order {
		value = SwapUint32(value)
	}
	return value, nil
}

func (b *RegisterBus) ReadBytes(ctx context.Context, buf []byte) (int, error) {
	return b.tk.ReadRaw(ctx, nil, buf)
}

//---------------------------------------------------------------------------
// 8-bit register address operations
//---------------------------------------------------------------------------

func (b *RegisterBus) WriteRegisterUint8(ctx context.Context, reg uint8, value uint8) error {
	return b.tk.WriteRaw(ctx, []byte{reg}, []byte{value})
}

func (b *RegisterBus) WriteRegisterUint16(ctx context.Context, reg uint8, value uint16) error {
	if SystemByteOrder() != b.order {
		value = SwapUint16(value)
	}
	var data [2]byte
	binary.NativeEndian.PutUint16(data[:], value)
	return b.tk.WriteRaw(ctx, []byte{reg}, data[:])
}

func (b *RegisterBus) WriteRegisterUint32(ctx context.Context, reg uint8, value uint32) error {
	if SystemByteOrder() != b.order {
		value = SwapUint32(value)
	}
	var data [4]byte
	binary.NativeEndian.PutUint32(data[:], value)
	return b.tk.WriteRaw(ctx, []byte{reg}, data[:])
}

func (b *RegisterBus) WriteRegisterBytes(ctx context.Context, reg uint8, data []byte) error {
	return b.tk.WriteRaw(ctx, []byte{reg}, data)
}

func (b *RegisterBus) ReadRegisterUint8(ctx context.Context, reg uint8) (uint8, error) {
	var buf [1]byte
	n, err := b.tk.ReadRaw(ctx, []byte{reg}, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, ErrBusUnderRead
	}
	return buf[0], nil
}

func (b *RegisterBus) ReadRegisterUint16(ctx context.Context, reg uint8) (uint16, error) {
	var buf [2]byte
	n, err := b.tk.ReadRaw(ctx, []byte{reg}, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 2 {
		return 0, ErrBusUnderRead
	}
	value := binary.NativeEndian.Uint16(buf[:])
	if SystemByteOrder() != b.order {
		value = SwapUint16(value)
	}
	return value, nil
}

func (b *RegisterBus) ReadRegisterUint32(ctx context.Context, reg uint8) (uint32, error) {
	var buf [4]byte
	n, err := b.tk.ReadRaw(ctx, []byte{reg}, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 4 {
		return 0, ErrBusUnderRead
	}
	value := binary.NativeEndian.Uint32(buf[:])
	if SystemByteOrder() != b.order {
		value = SwapUint32(value)
	}
	return value, nil
}

func (b *RegisterBus) ReadRegisterBytes(ctx context.Context, reg uint8, buf []byte) (int, error) {
	return b.tk.ReadRaw(ctx, []byte{reg}, buf)
}

//---------------------------------------------------------------------------
// 16-bit register address operations
//---------------------------------------------------------------------------

// reg16 encodes a 16 bit register address for transmission, swapping it when
// the configured order differs from the host order.
func (b *RegisterBus) reg16(reg uint16) []byte {
	if SystemByteOrder() != b.order {
		reg = SwapUint16(reg)
	}
	buf := make([]byte, 2)
	binary.NativeEndian.PutUint16(buf, reg)
	return buf
}

func (b *RegisterBus) WriteRegister16Uint8(ctx context.Context, reg uint16, value uint8) error {
	return b.tk.WriteRaw(ctx, b.reg16(reg), []byte{value})
}

func (b *RegisterBus) WriteRegister16Uint16(ctx context.Context, reg uint16, value uint16) error {
	if SystemByteOrder() != b.order {
		value = SwapUint16(value)
	}
	var data [2]byte
	binary.NativeEndian.PutUint16(data[:], value)
	return b.tk.WriteRaw(ctx, b.reg16(reg), data[:])
}

func (b *RegisterBus) WriteRegister16Uint32(ctx context.Context, reg uint16, value uint32) error {
	if SystemByteOrder() != b.order {
		value = SwapUint32(value)
	}
	var data [4]byte
	binary.NativeEndian.PutUint32(data[:], value)
	return b.tk.WriteRaw(ctx, b.reg16(reg), data[:])
}

func (b *RegisterBus) WriteRegister16Bytes(ctx context.Context, reg uint16, data []byte) error {
	return b.tk.WriteRaw(ctx, b.reg16(reg), data)
}

// WriteRegister16Uint16s writes an array of 16 bit values. Each element is
// swapped individually when the configured order differs from the host.
func (b *RegisterBus) WriteRegister16Uint16s(ctx context.Context, reg uint16, data []uint16) error {
	raw := make([]byte, len(data)*2)
	swap := SystemByteOrder() != b.order
	for i, v := range data {
		if swap {
			v = SwapUint16(v)
		}
		binary.NativeEndian.PutUint16(raw[i*2:], v)
	}
	return b.tk.WriteRaw(ctx, b.reg16(reg), raw)
}

func (b *RegisterBus) ReadRegister16Uint8(ctx context.Context, reg uint16) (uint8, error) {
	var buf [1]byte
	n, err := b.tk.ReadRaw(ctx, b.reg16(reg), buf[:])
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, ErrBusUnderRead
	}
	return buf[0], nil
}

func (b *RegisterBus) ReadRegister16Uint16(ctx context.Context, reg uint16) (uint16, error) {
	var buf [2]byte
	n, err := b.tk.ReadRaw(ctx, b.reg16(reg), buf[:])
	if err != nil {
		return 0, err
	}
	if n != 2 {
		return 0, ErrBusUnderRead
	}
	value := binary.NativeEndian.Uint16(buf[:])
	if SystemByteOrder() != b.order {
		value = SwapUint16(value)
	}
	return value, nil
}

func (b *RegisterBus) ReadRegister16Uint32(ctx context.Context, reg uint16) (uint32, error) {
	var buf [4]byte
	n, err := b.tk.ReadRaw(ctx, b.reg16(reg), buf[:])
	if err != nil {
		return 0, err
	}
	if n != 4 {
		return 0, ErrBusUnderRead
	}
	value := binary.NativeEndian.Uint32(buf[:])
	if SystemByteOrder() != b.order {
		value = SwapUint32(value)
	}
	return value, nil
}

func (b *RegisterBus) ReadRegister16Bytes(ctx context.Context, reg uint16, buf []byte) (int, error) {
	return b.tk.ReadRaw(ctx, b.reg16(reg), buf)
}

// ReadRegister16Uint16s reads an array of 16 bit values, swapping each
// element when the configured order differs from the host. The returned
// count is in 16 bit elements; an odd raw byte count truncates down.
func (b *RegisterBus) ReadRegister16Uint16s(ctx context.Context, reg uint16, buf []uint16) (int, error) {
	raw := make([]byte, len(buf)*2)
	n, err := b.tk.ReadRaw(ctx, b.reg16(reg), raw)
	if err != nil && !CodeOf(err).Advisory() {
		return 0, err
	}
	swap := SystemByteOrder() != b.order
	words := n / 2
	for i := 0; i < words; i++ {
		v := binary.NativeEndian.Uint16(raw[i*2:])
		if swap {
			v = SwapUint16(v)
		}
		buf[i] = v
	}
	return words, err
}
