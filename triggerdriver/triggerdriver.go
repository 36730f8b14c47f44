// Package triggerdriver defines interfaces and helper functions for implementing
// USB PD trigger chip drivers.
//
// The interfaces are either copied or derived from TinyGo source code with
// minor modifications.
package triggerdriver

// I2C defines a minimum interface to I2C hardware with a single Tx method
// which allows a single driver implementation to work across many different
// µControllers and host platforms. TinyGo's machine.I2C and periph.io's
// i2c.Bus both satisfy it as is. This interface was originally defined in
// TinyGo.
type I2C interface {

	// Tx performs a write and then a read transfer placing the result in r.
	// The read follows the write with a repeated start, without releasing the
	// bus in between.
	//
	// Passing a nil value for w or r skips the transfer corresponding to write
	// or read, respectively. Passing nil for both addresses the device without
	// transferring any data, which is used to probe for its presence.
	//
	//  i2c.Tx(addr, nil, r)
	// Performs only a read transfer.
	//
	//  i2c.Tx(addr, w, nil)
	// Performs only a write transfer.
	Tx(addr uint16, w, r []byte) error
}
