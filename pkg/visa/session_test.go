package visa

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopsu/pkg/config"
)

func quietSim() *Sim {
	return NewSim(&config.MockConfig{
		Identity: "gopsu,SIM4,0,1.0",
		Channels: 4,
	})
}

func openSim(t *testing.T) *Session {
	t.Helper()
	sess, err := Open("GPIB0::5::INSTR", WithTransport(quietSim()))
	require.NoError(t, err)
	return sess
}

func TestOpen_Identifies(t *testing.T) {
	sess := openSim(t)
	defer sess.Close()

	assert.Equal(t, "gopsu,SIM4,0,1.0", sess.Identity())
	assert.Equal(t, "GPIB0::5::INSTR", sess.Resource())
}

func TestOpen_IdentifyTimeoutFails(t *testing.T) {
	// A link that never answers: the identification query must fail and the
	// session must not be handed out half-open.
	link := &fakeLink{}
	_, err := Open("GPIB0::5::INSTR", WithTransport(link))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, link.closed, "half-open transport must be released")
}

func TestOpen_BadResource(t *testing.T) {
	_, err := Open("GPIB0::99::INSTR")
	assert.Error(t, err)
}

func TestQuery_TrimsTermination(t *testing.T) {
	sess := openSim(t)
	defer sess.Close()

	require.NoError(t, sess.Write("CURR 1.5, (@1)"))

	resp, err := sess.Query("CURR? (@1)")
	require.NoError(t, err)
	assert.Equal(t, "1.50000", resp, "terminator and whitespace must be trimmed")
}

func TestQuery_TimeoutLeavesSessionUsable(t *testing.T) {
	sess := openSim(t)
	defer sess.Close()

	// The simulated firmware doesn't know this query, so nothing comes back.
	_, err := sess.Query("SYST:BOGUS? (@1)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var busErr *BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "read", busErr.Op)

	// The session is still open and clean for the next exchange.
	resp, err := sess.Query("*IDN?")
	require.NoError(t, err)
	assert.Equal(t, "gopsu,SIM4,0,1.0", resp)
}

func TestClose_Idempotent(t *testing.T) {
	sess := openSim(t)

	assert.NoError(t, sess.Close())
	assert.NoError(t, sess.Close(), "second close must not raise")
}

func TestWriteAfterClose(t *testing.T) {
	sess := openSim(t)
	require.NoError(t, sess.Close())

	err := sess.Write("VOLT 1, (@1)")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = sess.Query("*IDN?")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, DefaultTimeout)

	sess := openSim(t)
	defer sess.Close()
	assert.Equal(t, DefaultTimeout, sess.timeout)
}

func TestWithTimeout(t *testing.T) {
	sess, err := Open("GPIB0::5::INSTR",
		WithTransport(quietSim()),
		WithTimeout(250*time.Millisecond),
	)
	require.NoError(t, err)
	defer sess.Close()
	assert.Equal(t, 250*time.Millisecond, sess.timeout)
}

func TestBusError_Unwrap(t *testing.T) {
	err := &BusError{Op: "read", Cmd: "CURR? (@1)", Err: ErrTimeout}
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "CURR? (@1)")
}
