package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/oxplot/go-pdtrigger/triggerdriver/ch224a"
)

// Config describes how the chip is wired to the host.
type Config struct {

	// Bus is the periph.io name or number of the I2C bus. Empty selects the
	// first bus found.
	Bus string `yaml:"bus"`

	// Address is the chip's I2C address, 0x22 or 0x23 depending on strapping.
	Address uint8 `yaml:"address"`

	// SettleDelay is the delay after each register write.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// Speed is the bus clock such as "100kHz" or "400kHz". Empty leaves the
	// bus at its current speed.
	Speed string `yaml:"speed"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Address:     uint8(ch224a.AddressDefault),
		SettleDelay: ch224a.DefaultSettleDelay,
	}
}

// LoadConfig reads a YAML configuration file. Fields missing from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var (
	errBadAddress = errors.New("config: address must be 0x22 or 0x23")
	errBadSettle  = errors.New("config: settle delay must be >= 0")
)

// Validate returns an error if the configuration can not be used.
func (c Config) Validate() error {
	if a := ch224a.Address(c.Address); a != ch224a.AddressDefault && a != ch224a.AddressAlt {
		return errBadAddress
	}
	if c.SettleDelay < 0 {
		return errBadSettle
	}
	if _, err := c.Frequency(); err != nil {
		return err
	}
	return nil
}

// Frequency parses Speed. It returns 0 if Speed is empty.
func (c Config) Frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if c.Speed == "" {
		return 0, nil
	}
	if err := f.Set(c.Speed); err != nil {
		return 0, fmt.Errorf("config: speed %q: %w", c.Speed, err)
	}
	return f, nil
}
