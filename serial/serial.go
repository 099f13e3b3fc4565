// Package serial adapts address-less byte streams (UARTs and the like) to
// the toolkit register protocol. A Stream is the raw read/write contract; a
// Bus maps register operations onto it with no address framing, so driver
// code written against toolkit.Bus runs unchanged over a plain serial link.
package serial

import (
	"context"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// BaseSerial is the offset from which serial status codes are derived.
const BaseSerial toolkit.Code = 0x2000

// Serial codes. Negative values are errors, positive values are advisories.
const (
	ErrNotInit      toolkit.Code = -1 * (BaseSerial + 1)
	ErrTimeout      toolkit.Code = -1 * (BaseSerial + 2)
	ErrNoResponse   toolkit.Code = -1 * (BaseSerial + 3)
	ErrDataTooLong  toolkit.Code = -1 * (BaseSerial + 4)
	ErrNullSettings toolkit.Code = -1 * (BaseSerial + 5)
	ErrNullBuffer   toolkit.Code = -1 * (BaseSerial + 6)
	ErrUnderRead    toolkit.Code = BaseSerial + 7
)

// Stream is the contract an asynchronous byte stream must satisfy.
type Stream interface {
	// Write sends data, returning the number of bytes accepted.
	Write(ctx context.Context, data []byte) (int, error)
	// Read fills buf with available bytes, blocking for at least one.
	Read(ctx context.Context, buf []byte) (int, error)
	// Available reports how many bytes can be read without blocking.
	Available(ctx context.Context) (int, error)
	// Peek returns the next byte without consuming it.
	Peek(ctx context.Context) (byte, error)
	// Flush blocks until buffered output has been transmitted.
	Flush(ctx context.Context) error
}

// Parity of a UART frame. Values follow the conventional wire encodings.
type Parity uint8

const (
	ParityEven  Parity = 0x1
	ParityOdd   Parity = 0x2
	ParityNone  Parity = 0x3
	ParityMark  Parity = 0x4
	ParitySpace Parity = 0x5
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "Even"
	case ParityOdd:
		return "Odd"
	case ParityNone:
		return "None"
	case ParityMark:
		return "Mark"
	case ParitySpace:
		return "Space"
	}
	return "Unknown"
}

// StopBits of a UART frame.
type StopBits uint8

const (
	StopBitsOne        StopBits = 0x10
	StopBitsOneAndHalf StopBits = 0x20
	StopBitsTwo        StopBits = 0x30
)

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "One"
	case StopBitsOneAndHalf:
		return "OneAndHalf"
	case StopBitsTwo:
		return "Two"
	}
	return "Unknown"
}

// DataBits per UART frame.
type DataBits uint8

const (
	DataBitsFive  DataBits = 5
	DataBitsSix   DataBits = 6
	DataBitsSeven DataBits = 7
	DataBitsEight DataBits = 8
)

// DefaultBaudRate is the conventional default line speed.
const DefaultBaudRate uint32 = 115200

// Config describes a UART line.
type Config struct {
	BaudRate uint32
	DataBits DataBits
	Parity   Parity
	StopBits StopBits
}

// DefaultConfig returns the conventional 115200 8N1 configuration.
func DefaultConfig() Config {
	return Config{
		BaudRate: DefaultBaudRate,
		DataBits: DataBitsEight,
		Parity:   ParityNone,
		StopBits: StopBitsOne,
	}
}
