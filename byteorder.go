package toolkit

import (
	"encoding/binary"
	"math/bits"
)

// ByteOrder identifies the byte order a device expects for multi-byte
// quantities. Each bus instance carries its own configured order, defaulting
// to the host order detected at runtime.
type ByteOrder uint8

const (
	BigEndian    ByteOrder = 0x01
	LittleEndian ByteOrder = 0x02
)

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "big-endian"
	case LittleEndian:
		return "little-endian"
	}
	return "unknown"
}

// SystemByteOrder detects the host byte order at runtime.
func SystemByteOrder() ByteOrder {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)
	if probe[0] == 0 {
		return BigEndian
	}
	return LittleEndian
}

// SwapUint8 exists to catch 8 bit calls for a byte swap. It is the identity.
func SwapUint8(v uint8) uint8 { return v }

// SwapUint16 swaps the bytes of a 16 bit value.
func SwapUint16(v uint16) uint16 { return bits.ReverseBytes16(v) }

// SwapUint32 swaps the bytes of a 32 bit value.
func SwapUint32(v uint32) uint32 { return bits.ReverseBytes32(v) }

// SwapInt16 swaps the bytes of a signed 16 bit value.
func SwapInt16(v int16) int16 { return int16(bits.ReverseBytes16(uint16(v))) }

// SwapInt32 swaps the bytes of a signed 32 bit value.
func SwapInt32(v int32) int32 { return int32(bits.ReverseBytes32(uint32(v))) }
