package toolkit

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransport records every raw transaction and serves canned read data.
type mockTransport struct {
	writes []rawWrite
	reads  []rawRead

	readData []byte
	readN    int // -1 means fill the whole buffer
	readErr  error
}

type rawWrite struct {
	reg  []byte
	data []byte
}

type rawRead struct {
	reg []byte
	n   int
}

func newMockTransport() *mockTransport {
	return &mockTransport{readN: -1}
}

func (m *mockTransport) WriteRaw(_ context.Context, reg []byte, data []byte) error {
	m.writes = append(m.writes, rawWrite{
		reg:  append([]byte(nil), reg...),
		data: append([]byte(nil), data...),
	})
	return nil
}

func (m *mockTransport) ReadRaw(_ context.Context, reg []byte, buf []byte) (int, error) {
	n := len(buf)
	if m.readN >= 0 && m.readN < n {
		n = m.readN
	}
	copy(buf[:n], m.readData)
	m.reads = append(m.reads, rawRead{reg: append([]byte(nil), reg...), n: n})
	return n, m.readErr
}

func newTestBus(order ByteOrder) (*RegisterBus, *mockTransport) {
	tk := newMockTransport()
	b := NewRegisterBus(tk)
	b.SetByteOrder(order)
	return &b, tk
}

func TestRegisterBus_Defaults(t *testing.T) {
	b, _ := newTestBus(SystemByteOrder())
	assert.Equal(t, SystemByteOrder(), b.ByteOrder())
	assert.Equal(t, BusTypeUnknown, b.Type())
}

func TestRegisterBus_WriteRegisterUint16_Order(t *testing.T) {
	tests := []struct {
		order ByteOrder
		wire  []byte
	}{
		{LittleEndian, []byte{0x34, 0x12}},
		{BigEndian, []byte{0x12, 0x34}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			b, tk := newTestBus(tt.order)
			require.NoError(t, b.WriteRegisterUint16(context.Background(), 0x10, 0x1234))
			require.Len(t, tk.writes, 1)
			assert.Equal(t, []byte{0x10}, tk.writes[0].reg)
			assert.Equal(t, tt.wire, tk.writes[0].data)
		})
	}
}

func TestRegisterBus_WriteRegisterUint32_Order(t *testing.T) {
	tests := []struct {
		order ByteOrder
		wire  []byte
	}{
		{LittleEndian, []byte{0x78, 0x56, 0x34, 0x12}},
		{BigEndian, []byte{0x12, 0x34, 0x56, 0x78}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			b, tk := newTestBus(tt.order)
			require.NoError(t, b.WriteRegisterUint32(context.Background(), 0x20, 0x12345678))
			require.Len(t, tk.writes, 1)
			assert.Equal(t, tt.wire, tk.writes[0].data)
		})
	}
}

func TestRegisterBus_ReadRegisterUint16_Order(t *testing.T) {
	tests := []struct {
		order ByteOrder
		wire  []byte
		want  uint16
	}{
		{LittleEndian, []byte{0x34, 0x12}, 0x1234},
		{BigEndian, []byte{0x12, 0x34}, 0x1234},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			b, tk := newTestBus(tt.order)
			tk.readData = tt.wire
			v, err := b.ReadRegisterUint16(context.Background(), 0x10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestRegisterBus_ReadWriteSymmetry(t *testing.T) {
	// a value written with one order reads back unchanged with the same order
	for _, order := range []ByteOrder{LittleEndian, BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			b, tk := newTestBus(order)
			require.NoError(t, b.WriteRegisterUint32(context.Background(), 0x00, 0xDEADBEEF))
			tk.readData = tk.writes[0].data
			v, err := b.ReadRegisterUint32(context.Background(), 0x00)
			require.NoError(t, err)
			assert.Equal(t, uint32(0xDEADBEEF), v)
		})
	}
}

func TestRegisterBus_HostOrderIsPassthrough(t *testing.T) {
	b, tk := newTestBus(SystemByteOrder())
	require.NoError(t, b.WriteUint16(context.Background(), 0xA55A))
	require.Len(t, tk.writes, 1)
	assert.Nil(t, tk.writes[0].reg)

	// the opposite order must produce the reversed layout
	bSwap, tkSwap := newTestBus(oppositeOrder(SystemByteOrder()))
	require.NoError(t, bSwap.WriteUint16(context.Background(), 0xA55A))
	assert.Equal(t, []byte{tk.writes[0].data[1], tk.writes[0].data[0]}, tkSwap.writes[0].data)
}

func oppositeOrder(o ByteOrder) ByteOrder {
	if o == LittleEndian {
		return BigEndian
	}
	return LittleEndian
}

func TestRegisterBus_ShortReadIsUnderRead(t *testing.T) {
	tests := []struct {
		name  string
		avail int
		read  func(b *RegisterBus) error
	}{
		{"uint8", 0, func(b *RegisterBus) error {
			_, err := b.ReadRegisterUint8(context.Background(), 0x01)
			return err
		}},
		{"uint16", 1, func(b *RegisterBus) error {
			_, err := b.ReadRegisterUint16(context.Background(), 0x01)
			return err
		}},
		{"uint32", 3, func(b *RegisterBus) error {
			_, err := b.ReadRegisterUint32(context.Background(), 0x01)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, tk := newTestBus(SystemByteOrder())
			tk.readN = tt.avail
			err := tt.read(b)
			assert.Equal(t, ErrBusUnderRead, CodeOf(err))
		})
	}
}

func TestRegisterBus_Register16AddressEncoding(t *testing.T) {
	tests := []struct {
		order ByteOrder
		reg   []byte
	}{
		{LittleEndian, []byte{0xCD, 0xAB}},
		{BigEndian, []byte{0xAB, 0xCD}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			b, tk := newTestBus(tt.order)
			require.NoError(t, b.WriteRegister16Uint8(context.Background(), 0xABCD, 0xFF))
			require.Len(t, tk.writes, 1)
			assert.Equal(t, tt.reg, tk.writes[0].reg)
		})
	}
}

func TestRegisterBus_Uint16ArrayRoundTrip(t *testing.T) {
	words := []uint16{0x0102, 0x0304, 0xFFFE}
	for _, order := range []ByteOrder{LittleEndian, BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			b, tk := newTestBus(order)
			require.NoError(t, b.WriteRegister16Uint16s(context.Background(), 0x0100, words))
			require.Len(t, tk.writes, 1)
			require.Len(t, tk.writes[0].data, 6)

			tk.readData = tk.writes[0].data
			got := make([]uint16, 3)
			n, err := b.ReadRegister16Uint16s(context.Background(), 0x0100, got)
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			assert.Equal(t, words, got)
		})
	}
}

func TestRegisterBus_Uint16ArrayWireLayout(t *testing.T) {
	b, tk := newTestBus(BigEndian)
	require.NoError(t, b.WriteRegister16Uint16s(context.Background(), 0x0000, []uint16{0x1234, 0x5678}))
	assert.Equal(t, "12345678", hex.EncodeToString(tk.writes[0].data))

	b.SetByteOrder(LittleEndian)
	require.NoError(t, b.WriteRegister16Uint16s(context.Background(), 0x0000, []uint16{0x1234, 0x5678}))
	assert.Equal(t, "34127856", hex.EncodeToString(tk.writes[1].data))
}

func TestRegisterBus_Uint16ArrayOddCountTruncates(t *testing.T) {
	b, tk := newTestBus(SystemByteOrder())
	tk.readData = []byte{0x01, 0x02, 0x03}
	tk.readN = 3
	tk.readErr = ErrBusUnderRead

	buf := make([]uint16, 2)
	n, err := b.ReadRegister16Uint16s(context.Background(), 0x0000, buf)
	assert.Equal(t, 1, n)
	assert.Equal(t, ErrBusUnderRead, CodeOf(err))
}

func TestRegisterBus_Uint16ArrayHardFailure(t *testing.T) {
	b, tk := newTestBus(SystemByteOrder())
	tk.readN = 0
	tk.readErr = ErrBusNotInit

	buf := make([]uint16, 4)
	n, err := b.ReadRegister16Uint16s(context.Background(), 0x0000, buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, ErrBusNotInit, CodeOf(err))
}

func TestRegisterBus_ZeroLengthTransfers(t *testing.T) {
	b, tk := newTestBus(SystemByteOrder())
	require.NoError(t, b.WriteBytes(context.Background(), nil))
	n, err := b.ReadBytes(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, tk.writes, 1)
}
