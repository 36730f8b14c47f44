package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/pdlog"
	"github.com/oxplot/go-pdtrigger/triggerdriver/ch224a"
)

var errUsage = errors.New("invalid arguments")

// potentialSource is implemented by sources that take voltages as
// physic.ElectricPotential, such as *ch224a.Device.
type potentialSource interface {
	SetPPSPotential(v physic.ElectricPotential) error
	SetAVSPotential(v physic.ElectricPotential) error
}

// control binds a device at cfg.Address on b and runs args. The probe command
// runs even if the chip does not answer, so it can report it. Voltage requests
// are logged to logw if it is not nil.
func control(b i2c.Bus, cfg Config, logw io.Writer, args []string, out io.Writer) error {
	f, err := cfg.Frequency()
	if err != nil {
		return err
	}
	if f != 0 {
		if err := b.SetSpeed(f); err != nil {
			return err
		}
	}

	dev := ch224a.New(ch224a.Address(cfg.Address))
	dev.SetSettleDelay(cfg.SettleDelay)
	if err := dev.Begin(b); err != nil && (len(args) == 0 || args[0] != "probe") {
		return err
	}

	var src pdtrigger.Source = dev
	if logw != nil {
		src = pdlog.NewLogger(logw, "\n", dev)
	}
	return run(dev, src, args, out)
}

// run executes a single command. Voltage requests go through src so they can
// be logged; register access goes to dev directly.
func run(dev *ch224a.Device, src pdtrigger.Source, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {

	case "probe":
		if !dev.IsConnected() {
			return fmt.Errorf("no response at 0x%02x", dev.Address())
		}
		fmt.Fprintf(out, "CH224A at 0x%02x connected\n", dev.Address())
		return nil

	case "fixed":
		if len(args) != 1 {
			return errUsage
		}
		m, err := pdtrigger.ParseMode(args[0])
		if err != nil {
			return err
		}
		if !m.IsFixed() {
			return fmt.Errorf("%s is not a fixed voltage, use the %s command", m, strings.ToLower(m.String()))
		}
		return src.SetFixedVoltage(m)

	case "pps", "avs":
		if len(args) != 1 {
			return errUsage
		}
		v, err := parseVolts(args[0])
		if err != nil {
			return err
		}
		if ps, ok := src.(potentialSource); ok {
			if cmd == "pps" {
				return ps.SetPPSPotential(v)
			}
			return ps.SetAVSPotential(v)
		}
		volts := float64(v) / float64(physic.Volt)
		if cmd == "pps" {
			return src.SetPPSVoltage(volts)
		}
		return src.SetAVSVoltage(volts)

	case "status":
		s, err := dev.Status()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
		return nil

	case "current":
		c, err := dev.MaxCurrent()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, c)
		return nil

	case "caps":
		pdos, err := dev.SourceCapabilities()
		if err != nil {
			return err
		}
		pdlog.DescribePDOs(out, "\n", pdos)
		return nil

	case "read":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		reg, err := parseUint(args[0], 8)
		if err != nil {
			return err
		}
		wide, err := parseWidth(args[1:])
		if err != nil {
			return err
		}
		if wide {
			v, err := dev.ReadRegister16(uint8(reg))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "0x%02x = 0x%04x\n", reg, v)
			return nil
		}
		v, err := dev.ReadRegister(uint8(reg))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "0x%02x = 0x%02x\n", reg, v)
		return nil

	case "write":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		reg, err := parseUint(args[0], 8)
		if err != nil {
			return err
		}
		wide, err := parseWidth(args[2:])
		if err != nil {
			return err
		}
		if wide {
			v, err := parseUint(args[1], 16)
			if err != nil {
				return err
			}
			return dev.WriteRegister16(uint8(reg), uint16(v))
		}
		v, err := parseUint(args[1], 8)
		if err != nil {
			return err
		}
		return dev.WriteRegister(uint8(reg), uint8(v))

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseVolts accepts plain numbers in volts or values with a unit such as
// "12500mV".
func parseVolts(s string) (physic.ElectricPotential, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.Abs(v) > maxVolts {
			return 0, fmt.Errorf("voltage %q: out of range", s)
		}
		return physic.ElectricPotential(math.Round(v * float64(physic.Volt))), nil
	}
	var p physic.ElectricPotential
	if err := p.Set(s); err != nil {
		return 0, fmt.Errorf("voltage %q: %w", s, err)
	}
	return p, nil
}

const maxVolts = float64(math.MaxInt64/int64(physic.Volt)) - 1

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return v, nil
}

func parseWidth(args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "8":
		return false, nil
	case "16":
		return true, nil
	}
	return false, fmt.Errorf("register width must be 8 or 16, got %q", args[0])
}
