// Package pdmsg defines types to decode USB-C Power Delivery messages as
// mirrored by trigger chips in their power data registers.
package pdmsg

import (
	"errors"
	"fmt"
)

const (
	// MaxDataObjects is the maximum number of data objects that can be stored in
	// a non-extended message, as set by the standard.
	MaxDataObjects = 7

	// MaxEPRDataObjects is the maximum number of power data objects in an EPR
	// source capabilities message: 7 SPR positions followed by 4 EPR ones.
	MaxEPRDataObjects = 11
)

// ErrShortMessage is returned when there are not enough bytes to hold a
// message header.
var ErrShortMessage = errors.New("pdmsg: message too short")

// Message represents a power delivery message header.
type Message struct {
	Header uint16

	// ExtendedHeader is only meaningful if IsExtended returns true.
	ExtendedHeader uint16
}

// IsExtended returns true if the message has its extended flag set.
func (m Message) IsExtended() bool {
	return m.Header&(1<<15) != 0
}

// ID returns the message ID.
func (m Message) ID() uint8 {
	return uint8((m.Header >> 9) & 0b111)
}

// DataObjectCount returns the number of data objects in the message.
func (m Message) DataObjectCount() uint8 {
	return uint8((m.Header >> 12) & 0b111)
}

// DataSize returns the payload size in bytes of an extended message.
func (m Message) DataSize() uint16 {
	return m.ExtendedHeader & (1<<9 - 1)
}

// IsData returns true of the message is a data message, otherwise it's a
// control message.
func (m Message) IsData() bool {
	return m.DataObjectCount() > 0
}

// Type returns the message type. Control, data and extended messages share
// type values, so IsData and IsExtended must be checked too.
func (m Message) Type() Type {
	return Type(m.Header & 0b11111)
}

// Type represents the PD message type.
type Type uint8

// Data message types
const (
	TypeSourceCap Type = 0b00001
)

// Extended message types
const (
	TypeEPRSourceCap Type = 0b10001
)

// Revision returns the power delivery revision number of the message.
func (m Message) Revision() Revision {
	return Revision((m.Header >> 6) & 0b11)
}

// Revision represents the power delivery revision number of a message.
type Revision uint8

// Power delivery revision numbers.
const (
	Revision10 Revision = 0b00
	Revision20 Revision = 0b01
	Revision30 Revision = 0b10
)

// PowerRole returns the power role of the sender of the message.
func (m Message) PowerRole() PowerRole {
	return PowerRole((m.Header >> 8) & 1)
}

// PowerRole represents the power role of the sender of a message.
type PowerRole uint8

// Power roles of the sender of a message.
const (
	PowerRoleSink   PowerRole = 0
	PowerRoleSource PowerRole = 1
)

// DataRole returns the data role of the sender of the message.
func (m Message) DataRole() DataRole {
	return DataRole((m.Header >> 5) & 1)
}

// DataRole represents the data role of the sender of a message.
type DataRole uint8

// Data roles of the sender of a message.
const (
	DataRoleUFP DataRole = 0
	DataRoleDFP DataRole = 1
)

// ParsePowerData decodes a source capabilities message laid out as on the
// wire: little endian header, extended header for extended messages, then the
// power data objects. Objects that do not fit in b are dropped, as are any
// beyond MaxEPRDataObjects. Empty (zero) positions are kept so that object
// positions match those of the source.
func ParsePowerData(b []byte) (Message, []PDO, error) {
	var m Message
	if len(b) < 2 {
		return m, nil, ErrShortMessage
	}
	m.Header = uint16(b[0]) | uint16(b[1])<<8
	off := 2
	n := int(m.DataObjectCount())
	if m.IsExtended() {
		if len(b) < 4 {
			return m, nil, fmt.Errorf("%w: missing extended header", ErrShortMessage)
		}
		m.ExtendedHeader = uint16(b[2]) | uint16(b[3])<<8
		off = 4
		n = int(m.DataSize()) / 4
	}
	if n > MaxEPRDataObjects {
		n = MaxEPRDataObjects
	}
	if max := (len(b) - off) / 4; n > max {
		n = max
	}
	pdos := make([]PDO, n)
	for i := range pdos {
		s := off + i*4
		pdos[i] = PDO(uint32(b[s]) | uint32(b[s+1])<<8 | uint32(b[s+2])<<16 | uint32(b[s+3])<<24)
	}
	return m, pdos, nil
}

// PDO is a generic Power Data Object. Based on its type, it should be
// converted to specific PDO type to allow extracting various fields.
type PDO uint32

// Type returns the type of the power data object.
func (o PDO) Type() PDOType {
	h := (o >> 30) & 0b11
	if h == 0b11 {
		return PDOType((((o >> 28) & 0b11) << 3) | 0b100 | h)
	}
	return PDOType(h)
}

// PDOType represents the type of a power data object.
type PDOType uint8

// Power data object types.
const (
	PDOTypeFixedSupply    PDOType = 0b00
	PDOTypeBattery        PDOType = 0b01
	PDOTypeVariableSupply PDOType = 0b10
	PDOTypePPS            PDOType = 0b00111 // This value is specific to our library
	PDOTypeEPRAVS         PDOType = 0b01111 // This value is specific to our library
	PDOTypeSPRAVS         PDOType = 0b10111 // This value is specific to our library
)

// FixedSupplyPDO represents a Fixed Supply Power Data Object
type FixedSupplyPDO uint32

// Voltage returns voltage in millivolts.
func (o FixedSupplyPDO) Voltage() uint16 {
	return uint16(((o >> 10) & (1<<10 - 1)) * 50)
}

// MaxCurrent returns maximum current in milliamps
func (o FixedSupplyPDO) MaxCurrent() uint16 {
	return uint16((o & (1<<10 - 1)) * 10)
}

// PPSPDO represents a Programmable Power Supply Power Data Object
type PPSPDO uint32

// MinVoltage returns minimum voltage in millivolts.
func (o PPSPDO) MinVoltage() uint16 {
	return uint16((o>>8)&(1<<8-1)) * 100
}

// MaxVoltage returns maximum voltage in millivolts.
func (o PPSPDO) MaxVoltage() uint16 {
	return uint16((o>>17)&(1<<8-1)) * 100
}

// MaxCurrent returns maximum current in milliamps.
func (o PPSPDO) MaxCurrent() uint16 {
	return uint16(o&(1<<7-1)) * 50
}

// IsPowerLimited returns true if the source can not supply the maximum
// current over the whole voltage range.
func (o PPSPDO) IsPowerLimited() bool {
	return o&(1<<27) != 0
}

// EPRAVSPDO represents an EPR Adjustable Voltage Supply Power Data Object.
type EPRAVSPDO uint32

// MinVoltage returns minimum voltage in millivolts.
func (o EPRAVSPDO) MinVoltage() uint16 {
	return uint16((o>>8)&(1<<8-1)) * 100
}

// MaxVoltage returns maximum voltage in millivolts.
func (o EPRAVSPDO) MaxVoltage() uint16 {
	return uint16((o>>17)&(1<<9-1)) * 100
}

// PDP returns the PD power rating in watts.
func (o EPRAVSPDO) PDP() uint8 {
	return uint8(o & 0xff)
}
