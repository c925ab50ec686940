package monitor

import (
	"sync"
	"time"
)

// LoopState is the polling loop state machine position.
type LoopState string

const (
	StateDisconnected LoopState = "disconnected"
	StatePolling      LoopState = "polling"
	StateFloodWait    LoopState = "flood_wait"
	StateBackoff      LoopState = "backoff"
)

// Snapshot is a read-only copy of the operational counters.
type Snapshot struct {
	StartedAt      time.Time `json:"started_at"`
	LastCheck      time.Time `json:"last_check"`
	TotalChecks    int       `json:"total_checks"`
	TotalAlerts    int       `json:"total_alerts"`
	LastError      string    `json:"last_error,omitempty"`
	LastReconnect  time.Time `json:"last_reconnect"`
	FloodWaitCount int       `json:"flood_wait_count"`
	ReconnectCount int       `json:"reconnect_count"`
	IsConnected    bool      `json:"is_connected"`
	State          LoopState `json:"state"`
}

// Uptime is the time elapsed since StartedAt at now.
func (s Snapshot) Uptime(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// Status holds the process-wide counters. The polling loop is the only writer;
// readers take snapshots.
type Status struct {
	mu   sync.RWMutex
	data Snapshot
}

func NewStatus(startedAt time.Time) *Status {
	return &Status{data: Snapshot{StartedAt: startedAt, State: StateDisconnected}}
}

// Snapshot returns a copy of the current counters.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Status) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

func (s *Status) setState(state LoopState) {
	s.update(func(d *Snapshot) { d.State = state })
}

func (s *Status) setConnected(connected bool) {
	s.update(func(d *Snapshot) { d.IsConnected = connected })
}

func (s *Status) setError(msg string) {
	s.update(func(d *Snapshot) { d.LastError = msg })
}

func (s *Status) recordCheck(at time.Time) {
	s.update(func(d *Snapshot) {
		d.TotalChecks++
		d.LastCheck = at
	})
}

func (s *Status) recordAlert() {
	s.update(func(d *Snapshot) { d.TotalAlerts++ })
}

func (s *Status) recordFloodWait() {
	s.update(func(d *Snapshot) { d.FloodWaitCount++ })
}

func (s *Status) recordReconnect(at time.Time) {
	s.update(func(d *Snapshot) {
		d.ReconnectCount++
		d.LastReconnect = at
	})
}
