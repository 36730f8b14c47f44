// Package pdlog provides textual logging of voltage requests and power
// profiles, mostly for debugging purposes.
package pdlog

import (
	"fmt"
	"io"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdmsg"
)

// Logger is a passthrough source that writes a line for every request and its
// outcome to a given io.Writer.
type Logger struct {
	w    io.Writer
	sep  string
	base pdtrigger.Source
}

var _ pdtrigger.Source = (*Logger)(nil)

// NewLogger creates a new logger which will write to the given writer and
// passes requests on to base. If no base is provided, requests are only
// logged and always succeed. Line separator is written to the writer after
// each line of output. Some common values are "\n", "\r", "\r\n".
func NewLogger(w io.Writer, lineSep string, base pdtrigger.Source) *Logger {
	return &Logger{
		w:    w,
		sep:  lineSep,
		base: base,
	}
}

// SetFixedVoltage logs and passes through the request.
func (l *Logger) SetFixedVoltage(m pdtrigger.Mode) error {
	fmt.Fprintf(l.w, "Requesting mode %s%s", m, l.sep)
	if l.base == nil {
		return nil
	}
	return l.result(l.base.SetFixedVoltage(m))
}

// SetPPSVoltage logs and passes through the request.
func (l *Logger) SetPPSVoltage(volts float64) error {
	fmt.Fprintf(l.w, "Requesting PPS %.1fV%s", volts, l.sep)
	if l.base == nil {
		return nil
	}
	return l.result(l.base.SetPPSVoltage(volts))
}

// SetAVSVoltage logs and passes through the request.
func (l *Logger) SetAVSVoltage(volts float64) error {
	fmt.Fprintf(l.w, "Requesting AVS %.1fV%s", volts, l.sep)
	if l.base == nil {
		return nil
	}
	return l.result(l.base.SetAVSVoltage(volts))
}

func (l *Logger) result(err error) error {
	if err != nil {
		fmt.Fprintf(l.w, "  failed: %s%s", err, l.sep)
	} else {
		fmt.Fprintf(l.w, "  ok%s", l.sep)
	}
	return err
}

// DescribePDOs writes out the textual description of the provided power data
// objects, one per line. Empty positions are skipped but keep their number.
func DescribePDOs(w io.Writer, lineSep string, pdos []pdmsg.PDO) {
	n := 0
	for _, p := range pdos {
		if p != 0 {
			n++
		}
	}
	fmt.Fprintf(w, "Received %d profiles:%s", n, lineSep)
	for i, p := range pdos {
		if p == 0 {
			continue
		}
		fmt.Fprintf(w, "  %d) ", i+1)
		switch p.Type() {
		case pdmsg.PDOTypeFixedSupply:
			fs := pdmsg.FixedSupplyPDO(p)
			fmt.Fprintf(w, "Fixed %.1fV @ max. %.1fA", float32(fs.Voltage())/1000, float32(fs.MaxCurrent())/1000)
		case pdmsg.PDOTypeVariableSupply:
			fmt.Fprint(w, "Variable (not supported)")
		case pdmsg.PDOTypePPS:
			pps := pdmsg.PPSPDO(p)
			var powerLimited string
			if pps.IsPowerLimited() {
				powerLimited = " (power limited)"
			}
			minV, maxV, maxC := float32(pps.MinVoltage())/1000, float32(pps.MaxVoltage())/1000, float32(pps.MaxCurrent())/1000
			fmt.Fprintf(w, "Programmable %.1f-%.1fV @ max. %.1fA%s", minV, maxV, maxC, powerLimited)
		case pdmsg.PDOTypeBattery:
			fmt.Fprint(w, "Battery (not supported)")
		case pdmsg.PDOTypeEPRAVS:
			avs := pdmsg.EPRAVSPDO(p)
			fmt.Fprintf(w, "AVS %.1f-%.1fV @ %dW", float32(avs.MinVoltage())/1000, float32(avs.MaxVoltage())/1000, avs.PDP())
		case pdmsg.PDOTypeSPRAVS:
			fmt.Fprint(w, "SPR AVS (not supported)")
		default:
			fmt.Fprint(w, "INVALID!")
		}
		fmt.Fprint(w, lineSep)
	}
}
