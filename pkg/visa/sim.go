package visa

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/gopsu/pkg/config"
)

// Sim is an in-memory multi-channel power supply standing in for the real
// instrument behind the Transport interface, so the rest of the stack runs
// unchanged against it. Setpoints are echoed back on measurement queries with
// a little deterministic noise; measured current follows a configurable load
// resistance capped at the programmed limit. A command the simulated firmware
// doesn't recognize gets no answer at all, which the session observes as a
// bus timeout, same as real hardware.
type Sim struct {
	mu      sync.Mutex
	cfg     config.MockConfig
	volts   []float64
	limits  []float64
	outputs []bool
	in      []byte       // partially received command line
	out     bytes.Buffer // queued responses
	ticks   int          // noise phase
	closed  bool
}

var _ Transport = (*Sim)(nil)

// NewSim creates a simulated instrument.
func NewSim(cfg *config.MockConfig) *Sim {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	c := *cfg
	if c.Channels <= 0 {
		c.Channels = 4
	}
	if c.Identity == "" {
		c.Identity = "gopsu,SIM4,0,1.0"
	}
	s := &Sim{
		cfg:     c,
		volts:   make([]float64, c.Channels),
		limits:  make([]float64, c.Channels),
		outputs: make([]bool, c.Channels),
	}
	// Outputs come up enabled so a freshly programmed setpoint is visible
	// on the very next measurement.
	for i := range s.outputs {
		s.outputs[i] = true
	}
	return s
}

// Write accepts command bytes, possibly a partial line per call.
func (s *Sim) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	s.in = append(s.in, p...)
	for {
		i := bytes.IndexByte(s.in, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(s.in[:i])
		s.in = s.in[i+1:]
		s.handle(line)
	}
}

// Read returns queued response bytes. An empty queue reads as a timeout,
// because a real instrument that was sent an unanswerable command simply
// stays quiet until the controller gives up.
func (s *Sim) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if s.out.Len() == 0 {
		return 0, ErrTimeout
	}
	return s.out.Read(p)
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SetReadTimeout is accepted and ignored; the simulator answers immediately
// or not at all.
func (s *Sim) SetReadTimeout(time.Duration) error { return nil }

func (s *Sim) handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if strings.EqualFold(line, "*IDN?") {
		s.reply(s.cfg.Identity)
		return
	}

	head, ch, ok := splitChannel(line)
	if !ok || ch < 1 || ch > s.cfg.Channels {
		return
	}
	head = normalizeMnemonics(head)

	switch {
	case head == "MEAS:VOLT?":
		s.reply(formatReading(s.voltage(ch) + s.noise()))
	case head == "MEAS:CURR?":
		s.reply(formatReading(s.current(ch) + s.noise()))
	case head == "CURR?":
		s.reply(formatReading(s.limits[ch-1]))
	case head == "OUTP?":
		if s.outputs[ch-1] {
			s.reply("1")
		} else {
			s.reply("0")
		}
	case head == "OUTP ON,":
		s.outputs[ch-1] = true
	case head == "OUTP OFF,":
		s.outputs[ch-1] = false
	case strings.HasPrefix(head, "VOLT "):
		if v, err := parseSetpoint(head[len("VOLT "):]); err == nil {
			s.volts[ch-1] = v
		}
	case strings.HasPrefix(head, "CURR "):
		if a, err := parseSetpoint(head[len("CURR "):]); err == nil {
			s.limits[ch-1] = a
		}
	}
}

// voltage is the simulated measured voltage: the setpoint, or nothing when
// the output is disabled.
func (s *Sim) voltage(ch int) float64 {
	if !s.outputs[ch-1] {
		return 0
	}
	return s.volts[ch-1]
}

// current computes the simulated measured current for a channel.
func (s *Sim) current(ch int) float64 {
	if !s.outputs[ch-1] || s.cfg.LoadOhms <= 0 {
		return 0 // output off or open circuit
	}
	i := s.volts[ch-1] / s.cfg.LoadOhms
	return math.Min(i, s.limits[ch-1])
}

// noise produces a small deterministic ripple on measured values.
func (s *Sim) noise() float64 {
	s.ticks++
	return math.Sin(float64(s.ticks)*0.7) * s.cfg.NoiseLevel
}

func (s *Sim) reply(resp string) {
	s.out.WriteString(resp)
	s.out.WriteByte('\n')
}

// splitChannel strips the trailing "(@n)" channel-list group mandated by the
// instrument's command syntax.
func splitChannel(line string) (head string, ch int, ok bool) {
	open := strings.LastIndex(line, "(@")
	if open < 0 || !strings.HasSuffix(line, ")") {
		return "", 0, false
	}
	n, err := strconv.Atoi(line[open+2 : len(line)-1])
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(line[:open]), n, true
}

// normalizeMnemonics collapses long-form SCPI mnemonics to their short forms
// so MEASure:VOLTage? and MEAS:VOLT? land on the same handler. They are the
// same instruction.
func normalizeMnemonics(head string) string {
	head = strings.ToUpper(head)
	head = strings.ReplaceAll(head, "MEASURE", "MEAS")
	head = strings.ReplaceAll(head, "VOLTAGE", "VOLT")
	head = strings.ReplaceAll(head, "CURRENT", "CURR")
	return head
}

// parseSetpoint parses the value of a set command, e.g. the "6.5," in
// "VOLT 6.5, (@1)".
func parseSetpoint(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ","))
	return strconv.ParseFloat(s, 64)
}

// formatReading renders a measurement the way bench instruments do.
func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}
