package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfig(t *testing.T) {
	p := writeConfig(t, "bus: \"1\"\naddress: 0x23\nsettle_delay: 20ms\nspeed: 400kHz\n")
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Bus:         "1",
		Address:     0x23,
		SettleDelay: 20 * time.Millisecond,
		Speed:       "400kHz",
	}, cfg)
	require.NoError(t, cfg.Validate())

	f, err := cfg.Frequency()
	require.NoError(t, err)
	assert.Equal(t, 400*physic.KiloHertz, f)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "bus: I2C1\n"))
	require.NoError(t, err)
	assert.Equal(t, "I2C1", cfg.Bus)
	assert.Equal(t, uint8(0x22), cfg.Address)
	assert.Equal(t, 50*time.Millisecond, cfg.SettleDelay)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "adress: 0x22\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Address = 0x40
	assert.ErrorIs(t, cfg.Validate(), errBadAddress)

	cfg = DefaultConfig()
	cfg.SettleDelay = -time.Millisecond
	assert.ErrorIs(t, cfg.Validate(), errBadSettle)

	cfg = DefaultConfig()
	cfg.Speed = "fast"
	assert.Error(t, cfg.Validate())

	f, err := DefaultConfig().Frequency()
	require.NoError(t, err)
	assert.Zero(t, f)
}
