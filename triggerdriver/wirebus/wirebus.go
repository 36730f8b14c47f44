// Package wirebus adapts transaction style I2C controllers, as exposed by most
// microcontroller SDKs, to triggerdriver.I2C.
//
// Such controllers are driven one byte at a time: a transmission is opened to
// an address, bytes are queued, and ending the transmission returns a
// completion code. Reads are requested separately and then drained byte by
// byte.
package wirebus

import (
	"errors"
	"fmt"

	"github.com/oxplot/go-pdtrigger"
)

// Wire is a transaction style I2C controller.
type Wire interface {

	// BeginTransmission starts queuing a write to the 7-bit address addr.
	BeginTransmission(addr uint8)

	// WriteByte queues a single byte.
	WriteByte(b byte) error

	// EndTransmission sends the queued bytes. If stop is false, the bus is not
	// released so that a read can follow with a repeated start. A nonzero
	// return value indicates failure (NACK, arbitration lost, etc).
	EndTransmission(stop bool) uint8

	// RequestFrom reads up to n bytes from addr and returns how many were
	// received.
	RequestFrom(addr uint8, n int) int

	// ReadByte returns the next received byte.
	ReadByte() (byte, error)
}

// ErrAddress is returned for addresses that do not fit in 7 bits.
var ErrAddress = errors.New("wirebus: address must be 7-bit")

// Bus implements triggerdriver.I2C on top of a Wire.
type Bus struct {
	w Wire
}

// New returns a bus driving w.
func New(w Wire) *Bus {
	return &Bus{w: w}
}

// Tx writes w then reads into r, with a repeated start in between.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrAddress
	}
	a := uint8(addr)

	// Write phase. With nothing to read or write, the empty transmission
	// probes the address.

	if len(w) > 0 || len(r) == 0 {
		b.w.BeginTransmission(a)
		for _, c := range w {
			if err := b.w.WriteByte(c); err != nil {
				b.w.EndTransmission(true)
				return err
			}
		}
		if code := b.w.EndTransmission(len(r) == 0); code != 0 {
			return pdtrigger.BusError{Code: code}
		}
	}
	if len(r) == 0 {
		return nil
	}

	// Read phase

	if n := b.w.RequestFrom(a, len(r)); n != len(r) {
		return fmt.Errorf("%w: got %d of %d bytes", pdtrigger.ErrShortRead, n, len(r))
	}
	for i := range r {
		c, err := b.w.ReadByte()
		if err != nil {
			return err
		}
		r[i] = c
	}
	return nil
}
