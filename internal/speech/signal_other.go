//go:build !unix

package speech

import (
	"errors"
	"os"
)

var errNoSignals = errors.New("process suspension not supported on this platform")

func suspend(*os.Process) error { return errNoSignals }

func resume(*os.Process) error { return nil }
