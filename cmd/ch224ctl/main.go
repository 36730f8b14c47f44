// Command ch224ctl requests voltages from a CH224A USB PD trigger chip wired
// to a host I2C bus, such as the header of a Raspberry Pi.
//
// Usage:
//
//	ch224ctl [flags] <command> [args]
//
// Commands:
//
//	probe                      Check the chip acknowledges its address
//	fixed <5|9|12|15|20|28>    Request a fixed voltage
//	pps <voltage>              Request a PPS voltage, e.g. 9 or 9.2V
//	avs <voltage>              Request an AVS voltage, e.g. 36 or 36500mV
//	status                     Print the active protocols
//	current                    Print the maximum current of the PD profile
//	caps                       Print the source capabilities
//	read <reg> [8|16]          Read a register
//	write <reg> <value> [8|16] Write a register
//
// Board settings are read from the YAML file given with -config:
//
//	bus: "1"
//	address: 0x22
//	settle_delay: 50ms
//	speed: 400kHz
//
// Flags override settings from the file.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func main() {
	log.SetFlags(0)

	fs := flag.NewFlagSet("ch224ctl", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML board configuration file")
	busName := fs.String("bus", "", "I2C bus name or number")
	addr := fs.String("addr", "", "I2C address of the chip (0x22 or 0x23)")
	settle := fs.Duration("settle", 0, "delay after each register write")
	speed := fs.String("speed", "", "I2C bus clock, e.g. 400kHz")
	verbose := fs.Bool("v", false, "log voltage requests to stderr")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ch224ctl [flags] <command> [args]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Bus = *busName
		case "addr":
			a, err := strconv.ParseUint(*addr, 0, 8)
			if err != nil {
				flagErr = fmt.Errorf("-addr: %w", err)
			}
			cfg.Address = uint8(a)
		case "settle":
			cfg.SettleDelay = *settle
		case "speed":
			cfg.Speed = *speed
		}
	})
	if flagErr != nil {
		log.Fatal(flagErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	b, err := i2creg.Open(cfg.Bus)
	if err != nil {
		log.Fatal(err)
	}
	var logw io.Writer
	if *verbose {
		logw = os.Stderr
	}
	err = control(b, cfg, logw, fs.Args(), os.Stdout)
	b.Close()
	if err == errUsage {
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}
