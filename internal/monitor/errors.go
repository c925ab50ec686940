package monitor

import (
	"errors"
	"fmt"
	"time"
)

// ErrConnectionLost is returned (wrapped) by a Source when the transport to
// the remote service is gone and a reconnect is required.
var ErrConnectionLost = errors.New("connection lost")

// FloodWaitError is returned by a Source when the remote service demands a
// pause before the next request.
type FloodWaitError struct {
	Wait time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.Wait)
}

// AsFloodWait reports the mandated wait if err is a FloodWaitError.
func AsFloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.Wait, true
	}
	return 0, false
}

// IsConnectionLost reports whether err requires a reconnect.
func IsConnectionLost(err error) bool {
	return errors.Is(err, ErrConnectionLost)
}

// ErrNoDestination is returned by a Notifier that has nowhere to deliver yet.
var ErrNoDestination = errors.New("no notification destination configured")

// ErrUnauthorized means the session was accepted by the transport but is not
// logged in.
var ErrUnauthorized = errors.New("session is not authorized")
