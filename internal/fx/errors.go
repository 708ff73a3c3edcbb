package fx

import (
	"errors"
	"fmt"
)

var errNoRate = errors.New("rate response has no usable EUR entry")

type statusError int

func errStatus(code int) error { return statusError(code) }

func (e statusError) Error() string {
	return fmt.Sprintf("rate service returned status %d", int(e))
}
