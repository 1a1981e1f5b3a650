// Package supply translates power-supply intents into the SCPI commands the
// instrument firmware mandates and parses the answers. Every command is
// scoped to exactly one output channel through the "(@n)" channel-list group.
package supply

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gotmc/query"

	"github.com/itohio/gopsu/pkg/visa"
)

// Bus is the instrument connection the driver talks through.
type Bus interface {
	Write(cmd string) (err error)
	Query(cmd string) (value string, err error)
}

// Ensure the VISA session satisfies Bus.
var _ Bus = (*visa.Session)(nil)

// Measurement is one reading cycle of a channel. It is ephemeral: produced
// per poll, displayed, then dropped.
type Measurement struct {
	Voltage float64 // measured output voltage (V)
	Current float64 // measured output current (A)
	Limit   float64 // programmed current limit (A), not a measurement
}

// Supply drives a multi-channel bench power supply over a shared bus. All
// operations, including the composite Apply and Snapshot, hold one mutex so
// multiple controllers (four GUI panels, a poll tick racing a button press)
// never interleave their commands on the wire.
type Supply struct {
	mu       sync.Mutex
	bus      Bus
	channels int
}

// New creates a driver for a supply with the given number of output channels.
func New(bus Bus, channels int) *Supply {
	if channels <= 0 {
		channels = 1
	}
	return &Supply{bus: bus, channels: channels}
}

// Channels returns the number of output channels.
func (s *Supply) Channels() int { return s.channels }

// SetVoltage programs the voltage setpoint on a channel. The write is
// fire-and-forget; the device does not confirm it.
func (s *Supply) SetVoltage(channel int, volts float64) error {
	if err := s.check(channel, volts, "voltage"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Write(setVoltageCmd(channel, volts))
}

// SetCurrentLimit programs the current limit on a channel.
func (s *Supply) SetCurrentLimit(channel int, amps float64) error {
	if err := s.check(channel, amps, "current limit"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Write(setCurrentLimitCmd(channel, amps))
}

// MeasureVoltage reads the actual output voltage of a channel.
func (s *Supply) MeasureVoltage(channel int) (float64, error) {
	if err := s.checkChannel(channel); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(measureVoltageCmd(channel))
}

// MeasureCurrent reads the actual output current of a channel.
func (s *Supply) MeasureCurrent(channel int) (float64, error) {
	if err := s.checkChannel(channel); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(measureCurrentCmd(channel))
}

// CurrentLimit reads the programmed current limit of a channel. This queries
// the setpoint, not the measured current; the two use different commands.
func (s *Supply) CurrentLimit(channel int) (float64, error) {
	if err := s.checkChannel(channel); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(currentLimitCmd(channel))
}

// Apply programs both the voltage and the current limit of a channel as one
// bus transaction.
func (s *Supply) Apply(channel int, volts, amps float64) error {
	if err := s.check(channel, volts, "voltage"); err != nil {
		return err
	}
	if amps < 0 {
		return fmt.Errorf("supply: negative current limit %g", amps)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bus.Write(setVoltageCmd(channel, volts)); err != nil {
		return err
	}
	return s.bus.Write(setCurrentLimitCmd(channel, amps))
}

// Snapshot reads voltage, current and current limit of a channel as one bus
// transaction, so concurrent pollers on other channels can't split the
// sequence.
func (s *Supply) Snapshot(channel int) (Measurement, error) {
	if err := s.checkChannel(channel); err != nil {
		return Measurement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var m Measurement
	var err error
	if m.Voltage, err = s.read(measureVoltageCmd(channel)); err != nil {
		return Measurement{}, err
	}
	if m.Current, err = s.read(measureCurrentCmd(channel)); err != nil {
		return Measurement{}, err
	}
	if m.Limit, err = s.read(currentLimitCmd(channel)); err != nil {
		return Measurement{}, err
	}
	return m, nil
}

// SetOutput enables or disables a channel's output.
func (s *Supply) SetOutput(channel int, on bool) error {
	if err := s.checkChannel(channel); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Write(setOutputCmd(channel, on))
}

// Output reads whether a channel's output is enabled.
func (s *Supply) Output(channel int) (bool, error) {
	if err := s.checkChannel(channel); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := outputCmd(channel)
	on, err := query.Bool(s.bus, cmd)
	if err != nil {
		var busErr *visa.BusError
		if errors.As(err, &busErr) {
			return false, err
		}
		return false, &ParseError{Cmd: cmd, Err: err}
	}
	return on, nil
}

// read issues a float query. Bus failures pass through as the session's
// errors; a response that isn't numeric becomes a ParseError carrying the
// command and the raw response for diagnostics.
func (s *Supply) read(cmd string) (float64, error) {
	raw, err := s.bus.Query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ParseError{Cmd: cmd, Response: raw, Err: err}
	}
	return v, nil
}

func (s *Supply) check(channel int, value float64, what string) error {
	if err := s.checkChannel(channel); err != nil {
		return err
	}
	if value < 0 {
		return fmt.Errorf("supply: negative %s %g", what, value)
	}
	return nil
}

func (s *Supply) checkChannel(channel int) error {
	if channel < 1 || channel > s.channels {
		return fmt.Errorf("supply: channel %d out of range 1-%d", channel, s.channels)
	}
	return nil
}
