package visa

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// gpibAdapter drives a Prologix-style GPIB controller-in-charge attached over
// a serial link. The controller itself is configured with "++" commands; any
// other line is forwarded to the instrument at the selected primary address.
// With read-after-write disabled, the controller must be told explicitly to
// listen for the instrument's answer, so a "++read eoi" is issued before each
// read of a pending response.
type gpibAdapter struct {
	link    Transport
	addr    int
	pending bool // an instrument command went out since the last read
}

func newGPIBAdapter(link Transport, addr int, timeout time.Duration) (*gpibAdapter, error) {
	a := &gpibAdapter{link: link, addr: addr}

	cmds := []string{
		"savecfg 0", // don't wear out the adapter EPROM with the settings below
		fmt.Sprintf("addr %d", addr),
		"mode 1", // controller-in-charge
		"auto 0", // no read-after-write; reads are requested explicitly
		"eoi 1",  // assert EOI with the last byte
		"eos 0",  // CR+LF termination on the GPIB side
		fmt.Sprintf("read_tmo_ms %d", adapterTimeoutMs(timeout)),
		"eot_enable 1",
		"eot_char 10", // mark end of response with LF
	}
	for _, cmd := range cmds {
		if err := a.command(cmd); err != nil {
			err = multierr.Append(fmt.Errorf("failed to configure GPIB adapter: %w", err), a.link.Close())
			return nil, err
		}
	}

	return a, nil
}

// command sends a "++" configuration command to the adapter itself.
func (a *gpibAdapter) command(cmd string) error {
	_, err := a.link.Write([]byte("++" + strings.TrimSpace(cmd) + "\n"))
	return err
}

func (a *gpibAdapter) Write(p []byte) (int, error) {
	n, err := a.link.Write(p)
	if err == nil {
		a.pending = true
	}
	return n, err
}

func (a *gpibAdapter) Read(p []byte) (int, error) {
	if a.pending {
		if err := a.command("read eoi"); err != nil {
			return 0, err
		}
		a.pending = false
	}
	return a.link.Read(p)
}

// Close returns the instrument to front-panel control and releases the serial
// link. Both steps are attempted; their errors are aggregated.
func (a *gpibAdapter) Close() error {
	err := a.command("loc")
	return multierr.Append(err, a.link.Close())
}

func (a *gpibAdapter) SetReadTimeout(d time.Duration) error {
	if err := a.command(fmt.Sprintf("read_tmo_ms %d", adapterTimeoutMs(d))); err != nil {
		return err
	}
	return a.link.SetReadTimeout(d)
}

// adapterTimeoutMs clamps a timeout to the 1-3000 ms range the Prologix
// firmware accepts. The serial link timeout still bounds the full wait.
func adapterTimeoutMs(d time.Duration) int {
	ms := int(d / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	if ms > 3000 {
		ms = 3000
	}
	return ms
}
