package monitor

import "time"

const (
	DefaultBackoffFloor   = 5 * time.Second
	DefaultBackoffCeiling = 300 * time.Second
)

// Backoff is the reconnect delay: it starts at Floor, doubles on every
// consecutive connectivity failure and never exceeds Ceiling.
type Backoff struct {
	Floor   time.Duration
	Ceiling time.Duration

	current time.Duration
}

// NewBackoff returns a backoff positioned at its floor.
func NewBackoff(floor, ceiling time.Duration) *Backoff {
	if floor <= 0 {
		floor = DefaultBackoffFloor
	}
	if ceiling < floor {
		ceiling = floor
	}
	return &Backoff{Floor: floor, Ceiling: ceiling, current: floor}
}

// Current is the delay the next failure will wait.
func (b *Backoff) Current() time.Duration {
	if b.current <= 0 {
		return b.Floor
	}
	return b.current
}

// Next returns the delay to wait now and doubles the following one.
func (b *Backoff) Next() time.Duration {
	d := b.Current()
	next := d * 2
	if next > b.Ceiling {
		next = b.Ceiling
	}
	b.current = next
	return d
}

// Reset moves the delay back to the floor.
func (b *Backoff) Reset() {
	b.current = b.Floor
}
