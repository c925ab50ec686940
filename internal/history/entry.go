package history

import (
	"time"

	"presencebot/internal/presence"
)

// DateLayout is the day prefix of an entry timestamp.
const DateLayout = "02.01.2006"

// Entry is one notable presence event as persisted in the history file.
type Entry struct {
	Timestamp  string              `json:"timestamp"`
	StatusKind presence.StatusKind `json:"status_kind"`
	StatusText string              `json:"status_text"`
	SubjectID  string              `json:"subject_id"`
	LastSeen   string              `json:"last_seen,omitempty"`
}

// NewEntry builds an entry stamped at `at` with second precision in loc.
func NewEntry(at time.Time, loc *time.Location, subject string, rec presence.Record) Entry {
	if loc == nil {
		loc = time.Local
	}
	e := Entry{
		Timestamp:  at.In(loc).Format(presence.TimestampLayout),
		StatusKind: rec.Kind,
		StatusText: rec.Text,
		SubjectID:  subject,
	}
	if rec.LastSeen != nil {
		e.LastSeen = rec.LastSeen.In(loc).Format(presence.TimestampLayout)
	}
	return e
}

// Time parses the entry timestamp in loc.
func (e Entry) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(presence.TimestampLayout, e.Timestamp, loc)
}
