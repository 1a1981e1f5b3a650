package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "GPIB0::5::INSTR", cfg.Connection.Resource)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Connection.AdapterPort)
	assert.Equal(t, 5*time.Second, cfg.Connection.Timeout)
	assert.Equal(t, 4, cfg.Supply.Channels)
	assert.Equal(t, float64(100), cfg.Supply.MaxVoltage)
	assert.Equal(t, float64(10), cfg.Supply.MaxCurrent)
	assert.Equal(t, time.Second, cfg.Polling.Period)
	assert.Equal(t, time.Minute, cfg.Polling.Window)
	assert.Equal(t, 4, cfg.Mock.Channels)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "GPIB0::5::INSTR", cfg.Connection.Resource)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
connection:
  resource: "TCPIP0::psu.lab.local::5025::SOCKET"
  adapter_port: "COM3"
  timeout: 2s

supply:
  channels: 2
  max_voltage: 30
  max_current: 5

polling:
  period: 500ms
  window: 2m

mock:
  identity: "ACME,PSU2,0,0.1"
  channels: 2
  noise_level: 0.01
  load_ohms: 4
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "TCPIP0::psu.lab.local::5025::SOCKET", cfg.Connection.Resource)
	assert.Equal(t, "COM3", cfg.Connection.AdapterPort)
	assert.Equal(t, 2*time.Second, cfg.Connection.Timeout)
	assert.Equal(t, 2, cfg.Supply.Channels)
	assert.Equal(t, float64(30), cfg.Supply.MaxVoltage)
	assert.Equal(t, float64(5), cfg.Supply.MaxCurrent)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.Period)
	assert.Equal(t, 2*time.Minute, cfg.Polling.Window)
	assert.Equal(t, "ACME,PSU2,0,0.1", cfg.Mock.Identity)
	assert.Equal(t, float64(4), cfg.Mock.LoadOhms)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
connection:
  resource: "GPIB0::7::INSTR"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "GPIB0::7::INSTR", cfg.Connection.Resource)
	assert.Equal(t, 5*time.Second, cfg.Connection.Timeout) // default
	assert.Equal(t, 4, cfg.Supply.Channels)                // default
	assert.Equal(t, time.Second, cfg.Polling.Period)       // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Connection.Resource = "GPIB0::12::INSTR"
	cfg.Polling.Period = 250 * time.Millisecond

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "GPIB0::12::INSTR", loaded.Connection.Resource)
	assert.Equal(t, 250*time.Millisecond, loaded.Polling.Period)
}
