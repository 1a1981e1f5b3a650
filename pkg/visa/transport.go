package visa

import (
	"fmt"
	"net"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate used for serial instruments and for
	// Prologix-style GPIB adapters (which ignore the setting on USB).
	DefaultBaudRate = 115200
)

// Transport is a byte-level link to an instrument or bus adapter.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	// SetReadTimeout bounds how long a Read blocks waiting for the
	// instrument. An expired wait reads as ErrTimeout.
	SetReadTimeout(d time.Duration) error
}

// dial opens the transport for a parsed resource.
func dial(res Resource, adapterPort string, timeout time.Duration) (Transport, error) {
	switch res.Kind {
	case GPIB:
		if adapterPort == "" {
			return nil, fmt.Errorf("GPIB resource %s needs an adapter serial port", res)
		}
		st, err := dialSerial(adapterPort)
		if err != nil {
			return nil, err
		}
		return newGPIBAdapter(st, res.PrimaryAddr, timeout)
	case TCPIP:
		return dialTCP(res.Host, res.Port, timeout)
	case Serial:
		return dialSerial(res.Device)
	}
	return nil, fmt.Errorf("unsupported resource %s", res)
}

// serialTransport adapts a go.bug.st/serial port. The library signals an
// expired read timeout as a zero-byte read with a nil error, which would spin
// a bufio reader forever, so it is mapped to ErrTimeout here.
type serialTransport struct {
	port serial.Port
}

func dialSerial(device string) (*serialTransport, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: DefaultBaudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	return &serialTransport{port: port}, nil
}

func (t *serialTransport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if n == 0 && err == nil {
		return 0, ErrTimeout
	}
	return n, err
}

func (t *serialTransport) Write(p []byte) (int, error) { return t.port.Write(p) }

func (t *serialTransport) Close() error { return t.port.Close() }

func (t *serialTransport) SetReadTimeout(d time.Duration) error {
	return t.port.SetReadTimeout(d)
}

// tcpTransport adapts a raw-socket LAN instrument connection.
type tcpTransport struct {
	conn net.Conn

	mu      sync.Mutex
	timeout time.Duration
}

func dialTCP(host string, port int, timeout time.Duration) (*tcpTransport, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &tcpTransport{conn: conn, timeout: timeout}, nil
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	d := t.timeout
	t.mu.Unlock()
	if d > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
			return 0, err
		}
	}
	n, err := t.conn.Read(p)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return n, ErrTimeout
		}
	}
	return n, err
}

func (t *tcpTransport) Write(p []byte) (int, error) { return t.conn.Write(p) }

func (t *tcpTransport) Close() error { return t.conn.Close() }

func (t *tcpTransport) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	t.timeout = d
	t.mu.Unlock()
	return nil
}
