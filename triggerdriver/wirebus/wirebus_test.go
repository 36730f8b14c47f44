package wirebus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxplot/go-pdtrigger"
)

// fakeWire records every call as a short string and serves reads from rx.
type fakeWire struct {
	log      []string
	rx       []byte
	short    int // bytes withheld from RequestFrom
	endCode  uint8
	writeErr error
}

func (f *fakeWire) BeginTransmission(addr uint8) {
	f.log = append(f.log, fmt.Sprintf("begin 0x%02x", addr))
}

func (f *fakeWire) WriteByte(b byte) error {
	f.log = append(f.log, fmt.Sprintf("write 0x%02x", b))
	return f.writeErr
}

func (f *fakeWire) EndTransmission(stop bool) uint8 {
	f.log = append(f.log, fmt.Sprintf("end stop=%t", stop))
	return f.endCode
}

func (f *fakeWire) RequestFrom(addr uint8, n int) int {
	f.log = append(f.log, fmt.Sprintf("request 0x%02x %d", addr, n))
	if n > len(f.rx) {
		n = len(f.rx)
	}
	return n - f.short
}

func (f *fakeWire) ReadByte() (byte, error) {
	f.log = append(f.log, "read")
	if len(f.rx) == 0 {
		return 0, errors.New("rx empty")
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func TestProbe(t *testing.T) {
	w := &fakeWire{}
	require.NoError(t, New(w).Tx(0x22, nil, nil))
	assert.Equal(t, []string{"begin 0x22", "end stop=true"}, w.log)
}

func TestWrite(t *testing.T) {
	w := &fakeWire{}
	require.NoError(t, New(w).Tx(0x22, []byte{0x0a, 0x01}, nil))
	assert.Equal(t, []string{"begin 0x22", "write 0x0a", "write 0x01", "end stop=true"}, w.log)
}

func TestWriteThenReadUsesRepeatedStart(t *testing.T) {
	w := &fakeWire{rx: []byte{0x5a}}
	r := make([]byte, 1)
	require.NoError(t, New(w).Tx(0x23, []byte{0x53}, r))
	assert.Equal(t, []byte{0x5a}, r)
	assert.Equal(t, []string{"begin 0x23", "write 0x53", "end stop=false", "request 0x23 1", "read"}, w.log)
}

func TestReadOnly(t *testing.T) {
	w := &fakeWire{rx: []byte{1, 2}}
	r := make([]byte, 2)
	require.NoError(t, New(w).Tx(0x22, nil, r))
	assert.Equal(t, []byte{1, 2}, r)
	assert.Equal(t, []string{"request 0x22 2", "read", "read"}, w.log)
}

func TestBusError(t *testing.T) {
	w := &fakeWire{endCode: 2}
	err := New(w).Tx(0x22, []byte{0x09}, make([]byte, 1))

	var be pdtrigger.BusError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, uint8(2), be.Code)
	assert.NotContains(t, w.log, "request 0x22 1")
}

func TestShortRead(t *testing.T) {
	w := &fakeWire{rx: []byte{1}, short: 1}
	r := []byte{0xee}
	err := New(w).Tx(0x22, []byte{0x09}, r)
	assert.ErrorIs(t, err, pdtrigger.ErrShortRead)
	assert.Equal(t, []byte{0xee}, r)
	assert.NotContains(t, w.log, "read")
}

func TestWriteByteError(t *testing.T) {
	w := &fakeWire{writeErr: errors.New("buffer full")}
	err := New(w).Tx(0x22, []byte{0x0a, 0x01}, nil)
	assert.EqualError(t, err, "buffer full")
	assert.Equal(t, []string{"begin 0x22", "write 0x0a", "end stop=true"}, w.log)
}

func TestAddressRange(t *testing.T) {
	w := &fakeWire{}
	assert.ErrorIs(t, New(w).Tx(0x80, nil, nil), ErrAddress)
	assert.Empty(t, w.log)
}
