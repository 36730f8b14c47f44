// Package ch224a implements a driver for the CH224A USB PD trigger chip from
// WCH.
//
// The chip negotiates with the power source by itself. The driver only writes
// the requested mode, and the magnitude for PPS and AVS, into the chip's
// registers. It keeps no copy of the output state: the chip is the only
// source of truth.
//
// A Device is not safe for concurrent use.
package ch224a

import (
	"errors"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
	"github.com/oxplot/go-pdtrigger/triggerdriver"
)

// Address is the 7-bit I2C address of the chip, selected by strapping.
type Address uint8

// I2C addresses.
const (
	AddressDefault Address = 0x22
	AddressAlt     Address = 0x23
)

// DefaultSettleDelay is how long the chip is given to apply a register write
// before the next bus operation. Shorter delays make the next operation
// observe the previous configuration.
const DefaultSettleDelay = 50 * time.Millisecond

// Device represents a CH224A chip at a fixed address.
type Device struct {
	bus  triggerdriver.I2C
	addr Address

	settle time.Duration
	sleep  func(time.Duration)

	// Buffer used for tx and rx, defined once here instead to avoid heap
	// allocations in each method used.
	buf [2]byte
}

var _ pdtrigger.Source = (*Device)(nil)

// New creates a device handle at the given address. The handle is unbound
// until Begin is called.
func New(addr Address) *Device {
	return &Device{
		addr:   addr,
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
	}
}

// Begin attaches the bus and checks the chip acknowledges its address. It may
// be called again to attach a different bus.
func (d *Device) Begin(bus triggerdriver.I2C) error {
	d.bus = bus
	if err := d.probe(); err != nil {
		return fmt.Errorf("ch224a: %w: %w", pdtrigger.ErrNotConnected, err)
	}
	return nil
}

// Address returns the I2C address of the device.
func (d *Device) Address() Address {
	return d.addr
}

// SetSettleDelay sets the delay after each register write. Zero disables it.
func (d *Device) SetSettleDelay(t time.Duration) {
	d.settle = t
}

// SetSleepFunc replaces time.Sleep as the function used to wait for the
// settle delay.
func (d *Device) SetSleepFunc(f func(time.Duration)) {
	d.sleep = f
}

// IsConnected returns true if a bus is attached and the chip acknowledges a
// zero length transfer to its address.
func (d *Device) IsConnected() bool {
	return d.probe() == nil
}

func (d *Device) probe() error {
	if d.bus == nil {
		return pdtrigger.ErrUnbound
	}
	return d.bus.Tx(uint16(d.addr), nil, nil)
}

// WriteRegister writes a single byte register. The settle delay is observed
// after the transfer whether it succeeded or not.
func (d *Device) WriteRegister(reg, v uint8) error {
	if d.bus == nil {
		return pdtrigger.ErrUnbound
	}
	d.buf[0] = reg
	d.buf[1] = v
	err := d.bus.Tx(uint16(d.addr), d.buf[:2], nil)
	if d.settle > 0 {
		d.sleep(d.settle)
	}
	if err != nil {
		return fmt.Errorf("ch224a: write 0x%02x: %w", reg, err)
	}
	return nil
}

// WriteRegister16 writes v little endian to the register pair starting at
// reg: the low byte to reg, then the high byte to reg+1. Each byte is a
// separate write with its own settle delay. The high byte is written even if
// the low byte failed.
func (d *Device) WriteRegister16(reg uint8, v uint16) error {
	if d.bus == nil {
		return pdtrigger.ErrUnbound
	}
	lo := d.WriteRegister(reg, uint8(v&0xff))
	hi := d.WriteRegister(reg+1, uint8((v>>8)&0xff))
	return errors.Join(lo, hi)
}

// ReadRegister reads a single byte register.
func (d *Device) ReadRegister(reg uint8) (uint8, error) {
	if d.bus == nil {
		return 0, pdtrigger.ErrUnbound
	}
	d.buf[0] = reg
	if err := d.bus.Tx(uint16(d.addr), d.buf[:1], d.buf[1:2]); err != nil {
		return 0, fmt.Errorf("ch224a: read 0x%02x: %w", reg, err)
	}
	return d.buf[1], nil
}

// ReadRegister16 reads the little endian register pair starting at reg. It
// returns 0 if either byte can not be read.
func (d *Device) ReadRegister16(reg uint8) (uint16, error) {
	if d.bus == nil {
		return 0, pdtrigger.ErrUnbound
	}
	lo, errLo := d.ReadRegister(reg)
	hi, errHi := d.ReadRegister(reg + 1)
	if err := errors.Join(errLo, errHi); err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// SetFixedVoltage writes the mode code to the voltage control register.
func (d *Device) SetFixedVoltage(m pdtrigger.Mode) error {
	return d.WriteRegister(regVoltageCtrl, uint8(m))
}

// SetVoltage5V requests 5V.
func (d *Device) SetVoltage5V() error { return d.SetFixedVoltage(pdtrigger.Mode5V) }

// SetVoltage9V requests 9V.
func (d *Device) SetVoltage9V() error { return d.SetFixedVoltage(pdtrigger.Mode9V) }

// SetVoltage12V requests 12V.
func (d *Device) SetVoltage12V() error { return d.SetFixedVoltage(pdtrigger.Mode12V) }

// SetVoltage15V requests 15V.
func (d *Device) SetVoltage15V() error { return d.SetFixedVoltage(pdtrigger.Mode15V) }

// SetVoltage20V requests 20V.
func (d *Device) SetVoltage20V() error { return d.SetFixedVoltage(pdtrigger.Mode20V) }

// SetVoltage28V requests 28V. Only EPR capable chargers supply it, which the
// driver does not check.
func (d *Device) SetVoltage28V() error { return d.SetFixedVoltage(pdtrigger.Mode28V) }

// SetPPSVoltage requests a PPS voltage, rounded half up to the nearest 0.1V.
// Volts must be within 0 and 25.5.
func (d *Device) SetPPSVoltage(volts float64) error {
	raw, err := tenthsOfVolt(volts, math.MaxUint8)
	if err != nil {
		return err
	}
	return d.SetPPSVoltageRaw(uint8(raw))
}

// SetPPSVoltageRaw stages the PPS magnitude in 0.1V units, then switches to
// PPS mode. The mode is written even if staging failed and nothing is undone
// on failure: there is no way to update both registers atomically, so the
// chip may briefly run PPS with the previous magnitude.
func (d *Device) SetPPSVoltageRaw(raw uint8) error {
	if d.bus == nil {
		return pdtrigger.ErrUnbound
	}
	mag := d.WriteRegister(regPPSVoltage, raw)
	mode := d.SetFixedVoltage(pdtrigger.ModePPS)
	return errors.Join(mag, mode)
}

// SetAVSVoltage requests an AVS voltage, rounded half up to the nearest 0.1V.
func (d *Device) SetAVSVoltage(volts float64) error {
	raw, err := tenthsOfVolt(volts, math.MaxUint16)
	if err != nil {
		return err
	}
	return d.SetAVSVoltageRaw(uint16(raw))
}

// SetAVSVoltageRaw stages the 16 bit AVS magnitude in 0.1V units, then
// switches to AVS mode, with the same caveats as SetPPSVoltageRaw.
func (d *Device) SetAVSVoltageRaw(raw uint16) error {
	if d.bus == nil {
		return pdtrigger.ErrUnbound
	}
	mag := d.WriteRegister16(regAVSVoltageL, raw)
	mode := d.SetFixedVoltage(pdtrigger.ModeAVS)
	return errors.Join(mag, mode)
}

// SetPPSPotential is like SetPPSVoltage for a physic.ElectricPotential.
func (d *Device) SetPPSPotential(v physic.ElectricPotential) error {
	raw, err := potentialTenths(v, math.MaxUint8)
	if err != nil {
		return err
	}
	return d.SetPPSVoltageRaw(uint8(raw))
}

// SetAVSPotential is like SetAVSVoltage for a physic.ElectricPotential.
func (d *Device) SetAVSPotential(v physic.ElectricPotential) error {
	raw, err := potentialTenths(v, math.MaxUint16)
	if err != nil {
		return err
	}
	return d.SetAVSVoltageRaw(uint16(raw))
}

// Status returns the protocols the chip reports as active.
func (d *Device) Status() (pdtrigger.Status, error) {
	v, err := d.ReadRegister(regStatus)
	return pdtrigger.Status(v), err
}

// MaxCurrent returns the maximum current the source offers at the current
// PD profile.
func (d *Device) MaxCurrent() (physic.ElectricCurrent, error) {
	v, err := d.ReadRegister(regCurrentData)
	if err != nil {
		return 0, err
	}
	return physic.ElectricCurrent(v) * currentUnit, nil
}

// PowerData returns the raw PD power data block, which holds the last source
// capabilities message received by the chip.
func (d *Device) PowerData() ([]byte, error) {
	if d.bus == nil {
		return nil, pdtrigger.ErrUnbound
	}
	b := make([]byte, powerDataLen)
	d.buf[0] = regPDDataStart
	if err := d.bus.Tx(uint16(d.addr), d.buf[:1], b); err != nil {
		return nil, fmt.Errorf("ch224a: read power data: %w", err)
	}
	return b, nil
}

// SourceCapabilities decodes the power profiles from the PD power data block.
func (d *Device) SourceCapabilities() ([]pdmsg.PDO, error) {
	b, err := d.PowerData()
	if err != nil {
		return nil, err
	}
	_, pdos, err := pdmsg.ParsePowerData(b)
	if err != nil {
		return nil, fmt.Errorf("ch224a: %w", err)
	}
	return pdos, nil
}

// tenthsOfVolt converts volts to 0.1V units rounding half up, and rejects
// values that do not fit within max.
func tenthsOfVolt(volts float64, max uint16) (uint16, error) {
	if math.IsNaN(volts) || volts < 0 {
		return 0, fmt.Errorf("ch224a: %w: %v V", pdtrigger.ErrVoltageRange, volts)
	}
	x := volts*10 + 0.5
	if x >= float64(max)+1 {
		return 0, fmt.Errorf("ch224a: %w: %v V", pdtrigger.ErrVoltageRange, volts)
	}
	return uint16(x), nil
}

func potentialTenths(v physic.ElectricPotential, max uint16) (uint16, error) {
	if v < 0 {
		return 0, fmt.Errorf("ch224a: %w: %s", pdtrigger.ErrVoltageRange, v)
	}
	x := (v + voltageUnit/2) / voltageUnit
	if x > physic.ElectricPotential(max) {
		return 0, fmt.Errorf("ch224a: %w: %s", pdtrigger.ErrVoltageRange, v)
	}
	return uint16(x), nil
}

const (
	voltageUnit = 100 * physic.MilliVolt
	currentUnit = 50 * physic.MilliAmpere

	regStatus      = 0x09
	regVoltageCtrl = 0x0A
	regCurrentData = 0x50
	regAVSVoltageL = 0x51
	regAVSVoltageH = 0x52
	regPPSVoltage  = 0x53
	regPDDataStart = 0x60
	regPDDataEnd   = 0x8F

	powerDataLen = regPDDataEnd - regPDDataStart + 1
)
