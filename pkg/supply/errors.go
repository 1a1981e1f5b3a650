package supply

import "fmt"

// ParseError reports an instrument response that could not be interpreted.
// The bus itself is fine; nothing is retried and no state changes.
type ParseError struct {
	Cmd      string
	Response string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Response != "" {
		return fmt.Sprintf("supply: bad response %q to %q: %v", e.Response, e.Cmd, e.Err)
	}
	return fmt.Sprintf("supply: bad response to %q: %v", e.Cmd, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
