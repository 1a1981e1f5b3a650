package visa

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout is the default instrument response timeout.
	DefaultTimeout = 5000 * time.Millisecond
	// DefaultTermination is the line terminator for commands and responses.
	DefaultTermination = '\n'
)

// Session is an open connection to one instrument. It owns the transport
// exclusively and serializes all bus traffic: SCPI pairs every query with its
// response, so no two commands may be in flight at once. Share one Session
// between controllers; never open a second one on the same physical link.
type Session struct {
	resource    string
	identity    string
	adapterPort string
	timeout     time.Duration
	term        byte

	mu     sync.Mutex
	t      Transport
	r      *bufio.Reader
	closed bool
}

// Option configures a Session before it is opened.
type Option func(*Session)

// WithTimeout overrides the response timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithTermination overrides the line terminator.
func WithTermination(b byte) Option {
	return func(s *Session) { s.term = b }
}

// WithAdapterPort names the serial port of the GPIB adapter. Required for
// GPIB resources, ignored otherwise.
func WithAdapterPort(port string) Option {
	return func(s *Session) { s.adapterPort = port }
}

// WithTransport injects an already-open transport and skips dialing the
// resource. This is how the mains attach the simulated instrument.
func WithTransport(t Transport) Option {
	return func(s *Session) { s.t = t }
}

// Open resolves and opens the given resource, applies the timeout and
// termination, and identifies the instrument with *IDN?. Any failure tears
// down whatever was opened and is fatal to the caller's startup.
func Open(resource string, opts ...Option) (*Session, error) {
	s := &Session{
		resource: resource,
		timeout:  DefaultTimeout,
		term:     DefaultTermination,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.t == nil {
		res, err := ParseResource(resource)
		if err != nil {
			return nil, fmt.Errorf("visa: %w", err)
		}
		t, err := dial(res, s.adapterPort, s.timeout)
		if err != nil {
			return nil, fmt.Errorf("visa: open %s: %w", resource, err)
		}
		s.t = t
	}

	if err := s.t.SetReadTimeout(s.timeout); err != nil {
		s.t.Close()
		return nil, fmt.Errorf("visa: open %s: %w", resource, err)
	}
	s.r = bufio.NewReader(s.t)

	idn, err := s.Query("*IDN?")
	if err != nil {
		// The identification failure is the interesting error here.
		s.Close()
		return nil, fmt.Errorf("visa: identify %s: %w", resource, err)
	}
	s.identity = idn

	return s, nil
}

// Identity returns the instrument's *IDN? response captured at open.
func (s *Session) Identity() string { return s.identity }

// Resource returns the resource string the session was opened with.
func (s *Session) Resource() string { return s.resource }

// Write sends a command with no response expected.
func (s *Session) Write(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(cmd)
}

func (s *Session) write(cmd string) error {
	if s.closed {
		return &BusError{Op: "write", Cmd: cmd, Err: ErrClosed}
	}
	payload := append([]byte(strings.TrimSpace(cmd)), s.term)
	if _, err := s.t.Write(payload); err != nil {
		return &BusError{Op: "write", Cmd: cmd, Err: err}
	}
	return nil
}

// Query sends a command and reads back one line of response, trimmed of the
// terminator and surrounding whitespace. A timeout or disconnection reports
// a BusError and leaves the session open; the next call starts clean.
func (s *Session) Query(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(cmd); err != nil {
		return "", err
	}

	line, err := s.r.ReadString(s.term)
	if err != nil {
		// Drop any partial response so it can't leak into the next query.
		s.r.Reset(s.t)
		return "", &BusError{Op: "read", Cmd: cmd, Err: err}
	}
	return strings.TrimSpace(line), nil
}

// Close releases the transport. It is idempotent: closing an already-closed
// or never-identified session returns nil and must never mask the error that
// got the session into that state.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.t == nil {
		return nil
	}
	return s.t.Close()
}
