// Package pdtrigger defines high level types and interfaces for driving USB
// Power Delivery trigger chips. Trigger chips negotiate with the power source
// on their own and only expose the requested voltage as a handful of
// registers over I2C.
package pdtrigger

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the output mode requested from the power source. The numeric value
// of each mode is the code written to the chip's voltage control register.
type Mode uint8

// Output modes. Mode28V is only honoured by chargers supporting Extended
// Power Range (EPR).
const (
	Mode5V  Mode = 0
	Mode9V  Mode = 1
	Mode12V Mode = 2
	Mode15V Mode = 3
	Mode20V Mode = 4
	Mode28V Mode = 5
	ModePPS Mode = 6 // Programmable Power Supply, magnitude in 0.1V steps
	ModeAVS Mode = 7 // Adjustable Voltage Supply, magnitude in 0.1V steps
)

func (m Mode) String() string {
	switch m {
	case Mode5V:
		return "5V"
	case Mode9V:
		return "9V"
	case Mode12V:
		return "12V"
	case Mode15V:
		return "15V"
	case Mode20V:
		return "20V"
	case Mode28V:
		return "28V"
	case ModePPS:
		return "PPS"
	case ModeAVS:
		return "AVS"
	default:
		return "INVALID"
	}
}

// IsFixed returns true if the mode selects one of the fixed voltages.
func (m Mode) IsFixed() bool {
	return m <= Mode28V
}

// Voltage returns the output voltage in millivolts of a fixed mode. It returns
// 0 for PPS, AVS and invalid modes.
func (m Mode) Voltage() uint16 {
	switch m {
	case Mode5V:
		return 5000
	case Mode9V:
		return 9000
	case Mode12V:
		return 12000
	case Mode15V:
		return 15000
	case Mode20V:
		return 20000
	case Mode28V:
		return 28000
	default:
		return 0
	}
}

// ParseMode is the inverse of Mode.String. It is case insensitive and the V
// suffix of fixed modes is optional, so "9", "9v" and "9V" all yield Mode9V.
func ParseMode(s string) (Mode, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if u != "" && u[len(u)-1] != 'V' && u != "PPS" && u != "AVS" {
		u += "V"
	}
	for m := Mode5V; m <= ModeAVS; m++ {
		if m.String() == u {
			return m, nil
		}
	}
	return 0, fmt.Errorf("pdtrigger: unknown mode %q", s)
}

// Status is the set of protocols a trigger chip reports as active.
type Status uint8

// Status bits as laid out in the status register.
const (
	StatusBC  Status = 1 << iota // BC 1.2
	StatusQC2                    // Quick Charge 2.0
	StatusQC3                    // Quick Charge 3.0
	StatusPD                     // USB Power Delivery
	StatusEPR                    // PD Extended Power Range
)

// Has returns true if all bits of v are set.
func (s Status) Has(v Status) bool {
	return s&v == v
}

func (s Status) String() string {
	if s&0b11111 == 0 {
		return "None"
	}
	var names []string
	for _, b := range []struct {
		bit  Status
		name string
	}{
		{StatusBC, "BC"},
		{StatusQC2, "QC2"},
		{StatusQC3, "QC3"},
		{StatusPD, "PD"},
		{StatusEPR, "EPR"},
	} {
		if s&b.bit != 0 {
			names = append(names, b.name)
		}
	}
	return strings.Join(names, "|")
}

// Source is implemented by anything that can request an output voltage from
// the power source.
type Source interface {

	// SetFixedVoltage requests one of the fixed modes. Passing ModePPS or
	// ModeAVS switches mode without touching the staged magnitude.
	SetFixedVoltage(Mode) error

	// SetPPSVoltage stages a PPS magnitude, rounded to 0.1V, and switches to
	// ModePPS.
	SetPPSVoltage(volts float64) error

	// SetAVSVoltage stages an AVS magnitude, rounded to 0.1V, and switches to
	// ModeAVS.
	SetAVSVoltage(volts float64) error
}

var (
	// ErrUnbound is returned by every bus operation of a device that has no bus
	// attached.
	ErrUnbound = errors.New("pdtrigger: no bus attached")

	// ErrNotConnected is returned when the chip does not acknowledge its
	// address.
	ErrNotConnected = errors.New("pdtrigger: device not responding")

	// ErrShortRead is returned when the bus returns a different number of
	// bytes than requested.
	ErrShortRead = errors.New("pdtrigger: short read")

	// ErrVoltageRange is returned when a requested voltage can not be encoded
	// in the chip's magnitude register.
	ErrVoltageRange = errors.New("pdtrigger: voltage out of range")
)

// BusError reports a nonzero completion code of a bus transaction.
type BusError struct {
	Code uint8
}

func (e BusError) Error() string {
	return fmt.Sprintf("pdtrigger: bus transaction failed with code %d", e.Code)
}
