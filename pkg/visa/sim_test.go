package visa

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopsu/pkg/config"
)

// simRead drains whatever response the simulator has queued.
func simRead(t *testing.T, s *Sim) string {
	t.Helper()
	buf := make([]byte, 256)
	n, err := s.Read(buf)
	require.NoError(t, err)
	return strings.TrimSpace(string(buf[:n]))
}

func simReadFloat(t *testing.T, s *Sim) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(simRead(t, s), 64)
	require.NoError(t, err)
	return v
}

func send(t *testing.T, s *Sim, cmd string) {
	t.Helper()
	_, err := s.Write([]byte(cmd + "\n"))
	require.NoError(t, err)
}

func TestSim_Identify(t *testing.T) {
	s := quietSim()
	send(t, s, "*IDN?")
	assert.Equal(t, "gopsu,SIM4,0,1.0", simRead(t, s))
}

func TestSim_EchoesSetpoints(t *testing.T) {
	s := quietSim()

	send(t, s, "VOLT 6.5, (@2)")
	send(t, s, "CURR 1.25, (@2)")

	send(t, s, "MEAS:VOLT? (@2)")
	assert.InDelta(t, 6.5, simReadFloat(t, s), 1e-9)

	send(t, s, "CURR? (@2)")
	assert.InDelta(t, 1.25, simReadFloat(t, s), 1e-9)

	// Other channels are untouched.
	send(t, s, "MEAS:VOLT? (@1)")
	assert.InDelta(t, 0, simReadFloat(t, s), 1e-9)
}

func TestSim_LongFormSpellings(t *testing.T) {
	s := quietSim()
	send(t, s, "VOLT 3, (@1)")

	// MEASure:VOLTage? is the same instruction as MEAS:VOLT?.
	send(t, s, "MEASure:VOLTage? (@1)")
	assert.InDelta(t, 3, simReadFloat(t, s), 1e-9)

	send(t, s, "MEASure:CURRent? (@1)")
	assert.InDelta(t, 0, simReadFloat(t, s), 1e-9)
}

func TestSim_MeasuredCurrentFollowsLoad(t *testing.T) {
	s := NewSim(&config.MockConfig{Identity: "x", Channels: 4, LoadOhms: 8})

	send(t, s, "VOLT 8, (@1)")
	send(t, s, "CURR 2, (@1)")
	send(t, s, "MEAS:CURR? (@1)")
	assert.InDelta(t, 1.0, simReadFloat(t, s), 1e-9, "I = V/R under the limit")

	// Limit engages when the load would draw more.
	send(t, s, "CURR 0.5, (@1)")
	send(t, s, "MEAS:CURR? (@1)")
	assert.InDelta(t, 0.5, simReadFloat(t, s), 1e-9)
}

func TestSim_OutputToggle(t *testing.T) {
	s := quietSim()

	// Outputs start enabled.
	send(t, s, "OUTP? (@1)")
	assert.Equal(t, "1", simRead(t, s))

	send(t, s, "VOLT 5, (@1)")
	send(t, s, "OUTP OFF, (@1)")
	send(t, s, "OUTP? (@1)")
	assert.Equal(t, "0", simRead(t, s))

	// A disabled output measures nothing even with a setpoint programmed.
	send(t, s, "MEAS:VOLT? (@1)")
	assert.InDelta(t, 0, simReadFloat(t, s), 1e-9)

	send(t, s, "OUTP ON, (@1)")
	send(t, s, "MEAS:VOLT? (@1)")
	assert.InDelta(t, 5, simReadFloat(t, s), 1e-9)
}

func TestSim_ChunkedWrites(t *testing.T) {
	s := quietSim()

	// A command split across Write calls is still one line.
	_, err := s.Write([]byte("*ID"))
	require.NoError(t, err)
	_, err = s.Write([]byte("N?\n"))
	require.NoError(t, err)

	assert.Equal(t, "gopsu,SIM4,0,1.0", simRead(t, s))
}

func TestSim_UnknownQueryStaysQuiet(t *testing.T) {
	s := quietSim()

	send(t, s, "SYST:ERR? (@1)")
	buf := make([]byte, 16)
	_, err := s.Read(buf)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSim_ChannelOutOfRangeStaysQuiet(t *testing.T) {
	s := quietSim()

	send(t, s, "MEAS:VOLT? (@9)")
	buf := make([]byte, 16)
	_, err := s.Read(buf)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSim_Closed(t *testing.T) {
	s := quietSim()
	require.NoError(t, s.Close())

	_, err := s.Write([]byte("*IDN?\n"))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSim_NoiseIsBounded(t *testing.T) {
	s := NewSim(&config.MockConfig{Identity: "x", Channels: 1, NoiseLevel: 0.01})

	send(t, s, "VOLT 5, (@1)")
	for i := 0; i < 10; i++ {
		send(t, s, "MEAS:VOLT? (@1)")
		assert.InDelta(t, 5, simReadFloat(t, s), 0.011)
	}
}
