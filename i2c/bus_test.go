package i2c

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// mockPort records the full transaction sequence a Bus drives it through.
type mockPort struct {
	begins   []uint8
	writes   [][]byte
	ends     []bool
	requests []request

	// supply overrides the per-request byte count; empty means fill every
	// request completely.
	supply []int

	beginErr error
	endErr   error
	source   byte
}

type request struct {
	addr uint8
	n    int
	stop bool
}

func (p *mockPort) BeginTransmission(_ context.Context, addr uint8) error {
	p.begins = append(p.begins, addr)
	return p.beginErr
}

func (p *mockPort) Write(_ context.Context, data []byte) (int, error) {
	p.writes = append(p.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (p *mockPort) EndTransmission(_ context.Context, stop bool) error {
	p.ends = append(p.ends, stop)
	return p.endErr
}

func (p *mockPort) RequestFrom(_ context.Context, addr uint8, buf []byte, stop bool) (int, error) {
	n := len(buf)
	if len(p.supply) > 0 {
		n = p.supply[0]
		p.supply = p.supply[1:]
	}
	for i := 0; i < n; i++ {
		buf[i] = p.source
		p.source++
	}
	p.requests = append(p.requests, request{addr: addr, n: len(buf), stop: stop})
	return n, nil
}

func TestBus_Defaults(t *testing.T) {
	b := New(nil, NoAddress)
	assert.Equal(t, NoAddress, b.Address())
	assert.True(t, b.Stop())
	assert.Equal(t, DefaultChunkSize, b.ChunkSize())
	assert.Equal(t, toolkit.BusTypeI2C, b.Type())
}

func TestBus_NotInitialized(t *testing.T) {
	b := New(nil, 0x42)
	err := b.WriteRaw(context.Background(), []byte{0x00}, []byte{0x01})
	assert.Equal(t, toolkit.ErrBusNotInit, toolkit.CodeOf(err))

	n, err := b.ReadRaw(context.Background(), []byte{0x00}, make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrBusNotInit, toolkit.CodeOf(err))

	assert.Equal(t, toolkit.ErrBusNotInit, toolkit.CodeOf(b.Ping(context.Background())))
}

func TestBus_Init(t *testing.T) {
	port := &mockPort{}
	b := New(nil, NoAddress)
	require.NoError(t, b.Init(port, 0x50))
	assert.Equal(t, uint8(0x50), b.Address())
	require.NoError(t, b.Ping(context.Background()))

	// the first bound port wins
	other := &mockPort{}
	require.NoError(t, b.Init(other, 0x51))
	require.NoError(t, b.Ping(context.Background()))
	assert.Len(t, port.begins, 2)
	assert.Empty(t, other.begins)
}

func TestBus_Ping(t *testing.T) {
	port := &mockPort{}
	b := New(port, 0x36)
	require.NoError(t, b.Ping(context.Background()))
	assert.Equal(t, []uint8{0x36}, port.begins)
	assert.Empty(t, port.writes)
	assert.Equal(t, []bool{true}, port.ends)

	port.endErr = fmt.Errorf("nack")
	assert.Equal(t, toolkit.ErrFail, toolkit.CodeOf(b.Ping(context.Background())))
}

func TestBus_WriteRaw_SingleFrame(t *testing.T) {
	port := &mockPort{}
	b := New(port, 0x48)
	err := b.WriteRaw(context.Background(), []byte{0x10}, []byte{0x34, 0x12})
	require.NoError(t, err)

	require.Len(t, port.begins, 1)
	require.Len(t, port.ends, 1)
	assert.True(t, port.ends[0])

	// register then data inside the same begin/end window
	var frame []byte
	for _, w := range port.writes {
		frame = append(frame, w...)
	}
	assert.Equal(t, []byte{0x10, 0x34, 0x12}, frame)
}

func TestBus_ReadRaw_Chunking(t *testing.T) {
	const chunkSize = 8
	tests := []struct {
		n        int
		requests int
	}{
		{1, 1},
		{chunkSize - 1, 1},
		{chunkSize, 1},
		{chunkSize + 1, 2},
		{5 * chunkSize, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dbytes", tt.n), func(t *testing.T) {
			port := &mockPort{}
			b := New(port, 0x48)
			b.SetChunkSize(chunkSize)
			b.SetStop(false)

			buf := make([]byte, tt.n)
			n, err := b.ReadRaw(context.Background(), []byte{0x10}, buf)
			require.NoError(t, err)
			assert.Equal(t, tt.n, n)
			require.Len(t, port.requests, tt.requests)

			total := 0
			for i, r := range port.requests {
				assert.Equal(t, uint8(0x48), r.addr)
				assert.Equal(t, i == len(port.requests)-1, r.stop,
					"only the final chunk stops")
				assert.LessOrEqual(t, r.n, chunkSize)
				total += r.n
			}
			assert.Equal(t, tt.n, total)

			// address phase happened exactly once, before any data moved
			assert.Equal(t, [][]byte{{0x10}}, port.writes)
			assert.Equal(t, []bool{false}, port.ends)
		})
	}
}

func TestBus_ReadRaw_ZeroLength(t *testing.T) {
	port := &mockPort{}
	b := New(port, 0x48)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, []byte{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, port.begins)
	assert.Empty(t, port.requests)
}

func TestBus_ReadRaw_NilBuffer(t *testing.T) {
	b := New(&mockPort{}, 0x48)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, nil)
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrBusNullBuffer, toolkit.CodeOf(err))
}

func TestBus_ReadRaw_EmptyRegister(t *testing.T) {
	b := New(&mockPort{}, 0x48)
	n, err := b.ReadRaw(context.Background(), nil, make([]byte, 2))
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrInvalidParam, toolkit.CodeOf(err))
}

func TestBus_ReadRaw_RestartFraming(t *testing.T) {
	port := &mockPort{}
	b := New(port, 0x48)
	b.SetStop(false)
	b.SetChunkSize(4)

	buf := make([]byte, 8)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	// address phase held the bus with a restart
	assert.Equal(t, []bool{false}, port.ends)
	// intermediate chunk restarts, final chunk stops
	require.Len(t, port.requests, 2)
	assert.False(t, port.requests[0].stop)
	assert.True(t, port.requests[1].stop)
}

func TestBus_ReadRaw_AddressPhaseFailure(t *testing.T) {
	port := &mockPort{endErr: fmt.Errorf("nack")}
	b := New(port, 0x48)
	buf := make([]byte, 16)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrFail, toolkit.CodeOf(err))
	assert.Empty(t, port.requests)
}

func TestBus_ReadRaw_ShortChunkAborts(t *testing.T) {
	port := &mockPort{supply: []int{4, 0}}
	b := New(port, 0x48)
	b.SetChunkSize(4)

	buf := make([]byte, 12)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, buf)
	assert.Equal(t, 4, n)
	assert.Equal(t, toolkit.ErrBusUnderRead, toolkit.CodeOf(err))
	assert.True(t, toolkit.CodeOf(err).Advisory())
	// no third request after the dead chunk
	assert.Len(t, port.requests, 2)
}

func TestBus_ReadRaw_FirstChunkDead(t *testing.T) {
	port := &mockPort{supply: []int{0}}
	b := New(port, 0x48)
	b.SetChunkSize(8)

	buf := make([]byte, 8)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, toolkit.ErrBusUnderRead, toolkit.CodeOf(err))
}

func TestBus_ReadRaw_DataOrder(t *testing.T) {
	port := &mockPort{}
	b := New(port, 0x48)
	b.SetChunkSize(4)

	buf := make([]byte, 10)
	n, err := b.ReadRaw(context.Background(), []byte{0x10}, buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	// chunks land in order, no gaps or overlap
	for i, v := range buf {
		assert.Equal(t, byte(i), v)
	}
}

func TestBus_SetChunkSizeIgnoresInvalid(t *testing.T) {
	b := New(&mockPort{}, 0x48)
	b.SetChunkSize(0)
	assert.Equal(t, DefaultChunkSize, b.ChunkSize())
	b.SetChunkSize(-3)
	assert.Equal(t, DefaultChunkSize, b.ChunkSize())
	b.SetChunkSize(16)
	assert.Equal(t, 16, b.ChunkSize())
}

func TestBus_TypedThroughTransport(t *testing.T) {
	// the embedded register protocol drives the two-wire primitives
	port := &mockPort{}
	b := New(port, 0x77)
	require.NoError(t, b.WriteRegisterUint8(context.Background(), 0xF4, 0x23))

	var frame []byte
	for _, w := range port.writes {
		frame = append(frame, w...)
	}
	assert.Equal(t, []byte{0xF4, 0x23}, frame)
}
