package presence

import (
	"fmt"
	"time"
)

// TimestampLayout is the dd.mm.yyyy HH:MM:SS layout used in labels and history.
const TimestampLayout = "02.01.2006 15:04:05"

// StatusKind is the classifier output alphabet.
type StatusKind string

const (
	KindOnline    StatusKind = "online"
	KindOffline   StatusKind = "offline"
	KindRecently  StatusKind = "recently"
	KindLastWeek  StatusKind = "last_week"
	KindLastMonth StatusKind = "last_month"
	KindUnknown   StatusKind = "unknown"
)

// Kinds lists every StatusKind in display order.
var Kinds = []StatusKind{KindOnline, KindOffline, KindRecently, KindLastWeek, KindLastMonth, KindUnknown}

// Valid reports whether k is one of the six known kinds.
func (k StatusKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// State is a classified reading: the kind plus the last-seen time, which is
// only set for offline readings that carry a timestamp.
type State struct {
	Kind     StatusKind
	LastSeen *time.Time
}

// Classify maps a reading to its StatusKind. It never fails; unrecognised or
// nil readings are KindUnknown.
func Classify(r Reading) State {
	switch v := r.(type) {
	case Online:
		return State{Kind: KindOnline}
	case OfflineAt:
		if v.At.IsZero() {
			return State{Kind: KindOffline}
		}
		at := v.At
		return State{Kind: KindOffline, LastSeen: &at}
	case OfflineUnknown:
		return State{Kind: KindOffline}
	case Recently:
		return State{Kind: KindRecently}
	case WithinWeek:
		return State{Kind: KindLastWeek}
	case WithinMonth:
		return State{Kind: KindLastMonth}
	default:
		return State{Kind: KindUnknown}
	}
}

// Label renders a reading as the human readable status line stored next to
// history entries. Times are shown in loc.
func Label(r Reading, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	switch v := r.(type) {
	case Online:
		return "🟢 Online"
	case OfflineAt:
		if v.At.IsZero() {
			return "⚪ Offline"
		}
		return fmt.Sprintf("⚪ Last seen %s", v.At.In(loc).Format(TimestampLayout))
	case OfflineUnknown:
		return "⚪ Offline"
	case Recently:
		return "🔵 Recently"
	case WithinWeek:
		return "🔵 Within a week"
	case WithinMonth:
		return "🔵 Within a month"
	case Unavailable:
		return "⚫ Long ago"
	default:
		return "❓ Unknown"
	}
}

// KindLabel is the short label for a bare kind, used when only the kind is known.
func KindLabel(k StatusKind) string {
	switch k {
	case KindOnline:
		return "Online"
	case KindOffline:
		return "Offline"
	case KindRecently:
		return "Recently"
	case KindLastWeek:
		return "Within a week"
	case KindLastMonth:
		return "Within a month"
	default:
		return "Unknown"
	}
}
