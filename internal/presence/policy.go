package presence

import (
	"fmt"
	"html"
	"time"
)

// Event names the rule that made a transition notable.
type Event int

const (
	EventNone Event = iota
	// EventStatusOpened: the "recently" bucket cleared.
	EventStatusOpened
	// EventCameOnline: the account became active.
	EventCameOnline
	// EventLastSeenAdvanced: offline with a newer last-seen timestamp.
	EventLastSeenAdvanced
)

func (e Event) String() string {
	switch e {
	case EventStatusOpened:
		return "status_opened"
	case EventCameOnline:
		return "came_online"
	case EventLastSeenAdvanced:
		return "last_seen_advanced"
	default:
		return "none"
	}
}

// Baseline is the previous classified state. The zero value has no baseline.
// It is owned by the polling loop, which is its only writer.
type Baseline struct {
	seeded   bool
	kind     StatusKind
	lastSeen *time.Time
}

// Seeded reports whether at least one poll has been committed.
func (b Baseline) Seeded() bool { return b.seeded }

// Kind returns the previous kind; empty when not seeded.
func (b Baseline) Kind() StatusKind { return b.kind }

// LastSeen returns the previous last-seen time, nil when absent.
func (b Baseline) LastSeen() *time.Time { return b.lastSeen }

// Commit replaces the baseline with s.
func (b *Baseline) Commit(s State) {
	b.seeded = true
	b.kind = s.Kind
	b.lastSeen = s.LastSeen
}

// Observation is the current poll result handed to Decide.
type Observation struct {
	State
	// Label is the human readable status, see Label.
	Label string
	// Subject names the watched account in alert texts.
	Subject string
}

// Record describes the history entry to persist for a notable event.
type Record struct {
	Kind     StatusKind
	Text     string
	LastSeen *time.Time
}

// Decision is the outcome of comparing two consecutive states.
type Decision struct {
	Event     Event
	Notify    bool
	AlertText string
	Record    *Record
}

// Decide applies the transition rules in order, first match wins:
//
//  1. no baseline: nothing, the poll only seeds the baseline
//  2. previous was "recently" and current is not
//  3. current is online and previous was not
//  4. current is offline with a last-seen different from the previous one
//
// Anything else produces an empty Decision. Entries of kind "recently" are
// never recorded. Decide is pure; the caller commits the baseline afterwards.
func Decide(prev Baseline, cur Observation) Decision {
	if !prev.Seeded() {
		return Decision{}
	}

	subject := html.EscapeString(cur.Subject)
	var d Decision
	switch {
	case prev.Kind() == KindRecently && cur.Kind != KindRecently:
		d = Decision{
			Event:     EventStatusOpened,
			AlertText: fmt.Sprintf("🚨 <b>%s</b> opened their status!\n\nPrevious: %s\nCurrent: %s", subject, KindLabel(KindRecently), html.EscapeString(cur.Label)),
			Record:    &Record{Kind: cur.Kind, Text: cur.Label, LastSeen: cur.LastSeen},
		}
	case cur.Kind == KindOnline && prev.Kind() != KindOnline:
		d = Decision{
			Event:     EventCameOnline,
			AlertText: fmt.Sprintf("🟢 <b>%s</b> is online now!", subject),
			Record:    &Record{Kind: cur.Kind, Text: cur.Label},
		}
	case cur.Kind == KindOffline && cur.LastSeen != nil && !sameInstant(cur.LastSeen, prev.LastSeen()):
		d = Decision{
			Event:     EventLastSeenAdvanced,
			AlertText: fmt.Sprintf("⚪ <b>%s</b> opened their status!\n\nLast seen: %s", subject, cur.LastSeen.Format(TimestampLayout)),
			Record:    &Record{Kind: cur.Kind, Text: cur.Label, LastSeen: cur.LastSeen},
		}
	default:
		return Decision{}
	}

	d.Notify = true
	if d.Record != nil && d.Record.Kind == KindRecently {
		d.Record = nil
	}
	return d
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
