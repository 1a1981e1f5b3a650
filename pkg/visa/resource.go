package visa

import (
	"fmt"
	"strconv"
	"strings"
)

// ResourceKind identifies the transport family of a resource string.
type ResourceKind int

const (
	// GPIB is an instrument on a GPIB bus behind an adapter, e.g. GPIB0::5::INSTR.
	GPIB ResourceKind = iota
	// TCPIP is a raw-socket LAN instrument, e.g. TCPIP0::10.0.0.5::5025::SOCKET.
	TCPIP
	// Serial is a directly attached serial instrument, e.g. ASRL::/dev/ttyACM0::INSTR.
	Serial
)

// Resource is a parsed VISA-style resource string.
type Resource struct {
	Kind        ResourceKind
	Board       int    // interface number, e.g. the 0 in GPIB0
	PrimaryAddr int    // GPIB primary address (0-30)
	Host        string // TCPIP host
	Port        int    // TCPIP port
	Device      string // serial device path
}

// ParseResource parses the subset of the VISA resource grammar the tool
// supports: GPIB<n>::<addr>::INSTR, TCPIP<n>::<host>::<port>::SOCKET and
// ASRL::<device>::INSTR.
func ParseResource(s string) (Resource, error) {
	parts := strings.Split(strings.TrimSpace(s), "::")
	if len(parts) < 2 {
		return Resource{}, fmt.Errorf("invalid resource %q", s)
	}

	head := strings.ToUpper(parts[0])
	switch {
	case strings.HasPrefix(head, "GPIB"):
		if len(parts) != 3 || strings.ToUpper(parts[2]) != "INSTR" {
			return Resource{}, fmt.Errorf("invalid GPIB resource %q (want GPIB<board>::<addr>::INSTR)", s)
		}
		board, err := parseBoard(head, "GPIB")
		if err != nil {
			return Resource{}, fmt.Errorf("invalid GPIB resource %q: %w", s, err)
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil {
			return Resource{}, fmt.Errorf("invalid GPIB address in %q: %w", s, err)
		}
		if addr < 0 || addr > 30 {
			return Resource{}, fmt.Errorf("GPIB address %d out of range 0-30", addr)
		}
		return Resource{Kind: GPIB, Board: board, PrimaryAddr: addr}, nil

	case strings.HasPrefix(head, "TCPIP"):
		if len(parts) != 4 || strings.ToUpper(parts[3]) != "SOCKET" {
			return Resource{}, fmt.Errorf("invalid TCPIP resource %q (want TCPIP<board>::<host>::<port>::SOCKET)", s)
		}
		board, err := parseBoard(head, "TCPIP")
		if err != nil {
			return Resource{}, fmt.Errorf("invalid TCPIP resource %q: %w", s, err)
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil || port <= 0 || port > 65535 {
			return Resource{}, fmt.Errorf("invalid port in %q", s)
		}
		if parts[1] == "" {
			return Resource{}, fmt.Errorf("missing host in %q", s)
		}
		return Resource{Kind: TCPIP, Board: board, Host: parts[1], Port: port}, nil

	case head == "ASRL":
		if len(parts) != 3 || strings.ToUpper(parts[2]) != "INSTR" || parts[1] == "" {
			return Resource{}, fmt.Errorf("invalid serial resource %q (want ASRL::<device>::INSTR)", s)
		}
		return Resource{Kind: Serial, Device: parts[1]}, nil
	}

	return Resource{}, fmt.Errorf("unsupported resource %q", s)
}

// parseBoard extracts the interface number from e.g. "GPIB0". A bare prefix
// with no digits means board 0.
func parseBoard(head, prefix string) (int, error) {
	digits := head[len(prefix):]
	if digits == "" {
		return 0, nil
	}
	board, err := strconv.Atoi(digits)
	if err != nil || board < 0 {
		return 0, fmt.Errorf("bad interface number %q", digits)
	}
	return board, nil
}

func (r Resource) String() string {
	switch r.Kind {
	case GPIB:
		return fmt.Sprintf("GPIB%d::%d::INSTR", r.Board, r.PrimaryAddr)
	case TCPIP:
		return fmt.Sprintf("TCPIP%d::%s::%d::SOCKET", r.Board, r.Host, r.Port)
	case Serial:
		return fmt.Sprintf("ASRL::%s::INSTR", r.Device)
	}
	return "unknown"
}
