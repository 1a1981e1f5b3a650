package supply

import "fmt"

// Command builders. The exact ASCII forms, including the channel-list group,
// are fixed by the instrument firmware and must not drift.

func setVoltageCmd(channel int, volts float64) string {
	return fmt.Sprintf("VOLT %g, (@%d)", volts, channel)
}

func setCurrentLimitCmd(channel int, amps float64) string {
	return fmt.Sprintf("CURR %g, (@%d)", amps, channel)
}

func measureVoltageCmd(channel int) string {
	return fmt.Sprintf("MEAS:VOLT? (@%d)", channel)
}

func measureCurrentCmd(channel int) string {
	return fmt.Sprintf("MEAS:CURR? (@%d)", channel)
}

// currentLimitCmd queries the programmed limit. Deliberately not a MEAS form:
// the limit is a setpoint, not a reading.
func currentLimitCmd(channel int) string {
	return fmt.Sprintf("CURR? (@%d)", channel)
}

func setOutputCmd(channel int, on bool) string {
	state := "OFF"
	if on {
		state = "ON"
	}
	return fmt.Sprintf("OUTP %s, (@%d)", state, channel)
}

func outputCmd(channel int) string {
	return fmt.Sprintf("OUTP? (@%d)", channel)
}
