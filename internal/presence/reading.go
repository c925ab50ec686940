// Package presence classifies raw presence readings of a watched account and
// decides which changes between two consecutive readings are worth an alert.
package presence

import "time"

// Reading is one sample of the remote presence signal. The set of
// implementations is closed: Online, OfflineAt, OfflineUnknown, Recently,
// WithinWeek, WithinMonth and Unavailable.
type Reading interface {
	isReading()
}

// Online means the account is active right now.
type Online struct{}

// OfflineAt means the account is offline and exposes its last-seen time.
type OfflineAt struct {
	At time.Time
}

// OfflineUnknown means the account is offline without an exact timestamp.
type OfflineUnknown struct{}

// Recently is the coarse "last seen recently" bucket.
type Recently struct{}

// WithinWeek is the coarse "last seen within a week" bucket.
type WithinWeek struct{}

// WithinMonth is the coarse "last seen within a month" bucket.
type WithinMonth struct{}

// Unavailable means the service returned no status at all.
type Unavailable struct{}

func (Online) isReading()         {}
func (OfflineAt) isReading()      {}
func (OfflineUnknown) isReading() {}
func (Recently) isReading()       {}
func (WithinWeek) isReading()     {}
func (WithinMonth) isReading()    {}
func (Unavailable) isReading()    {}
