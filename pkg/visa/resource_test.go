package visa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Resource
	}{
		{
			name: "gpib",
			in:   "GPIB0::5::INSTR",
			want: Resource{Kind: GPIB, Board: 0, PrimaryAddr: 5},
		},
		{
			name: "gpib other board",
			in:   "GPIB1::30::INSTR",
			want: Resource{Kind: GPIB, Board: 1, PrimaryAddr: 30},
		},
		{
			name: "gpib no board digits",
			in:   "GPIB::7::INSTR",
			want: Resource{Kind: GPIB, Board: 0, PrimaryAddr: 7},
		},
		{
			name: "gpib lowercase suffix",
			in:   "GPIB0::5::instr",
			want: Resource{Kind: GPIB, Board: 0, PrimaryAddr: 5},
		},
		{
			name: "tcpip socket",
			in:   "TCPIP0::192.168.1.20::5025::SOCKET",
			want: Resource{Kind: TCPIP, Board: 0, Host: "192.168.1.20", Port: 5025},
		},
		{
			name: "tcpip hostname",
			in:   "TCPIP::psu.lab.local::5025::SOCKET",
			want: Resource{Kind: TCPIP, Board: 0, Host: "psu.lab.local", Port: 5025},
		},
		{
			name: "serial",
			in:   "ASRL::/dev/ttyACM0::INSTR",
			want: Resource{Kind: Serial, Device: "/dev/ttyACM0"},
		},
		{
			name: "surrounding whitespace",
			in:   "  GPIB0::5::INSTR\n",
			want: Resource{Kind: GPIB, Board: 0, PrimaryAddr: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResource(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResource_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"garbage", "not a resource"},
		{"unknown family", "USB0::0x0957::0x0607::INSTR"},
		{"gpib missing address", "GPIB0::INSTR"},
		{"gpib address not a number", "GPIB0::five::INSTR"},
		{"gpib address too big", "GPIB0::31::INSTR"},
		{"gpib negative address", "GPIB0::-1::INSTR"},
		{"tcpip missing port", "TCPIP0::host::SOCKET"},
		{"tcpip bad port", "TCPIP0::host::notaport::SOCKET"},
		{"tcpip missing host", "TCPIP0::::5025::SOCKET"},
		{"serial missing device", "ASRL::::INSTR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResource(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestResource_String(t *testing.T) {
	for _, s := range []string{
		"GPIB0::5::INSTR",
		"TCPIP0::10.0.0.5::5025::SOCKET",
		"ASRL::/dev/ttyACM0::INSTR",
	} {
		res, err := ParseResource(s)
		require.NoError(t, err)
		assert.Equal(t, s, res.String())
	}
}
