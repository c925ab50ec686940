// Package monitor runs the presence polling loop: it reads the remote
// presence signal, applies the transition policy, records notable events and
// keeps itself alive across flood waits, disconnects and expired sessions.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"presencebot/internal/format"
	"presencebot/internal/history"
	"presencebot/internal/presence"
)

// Source is the remote presence service.
type Source interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	IsAuthorized(ctx context.Context) (bool, error)
	// Presence returns the current reading for subject. Rate limits are
	// reported as *FloodWaitError, transport failures wrap ErrConnectionLost.
	Presence(ctx context.Context, subject string) (presence.Reading, error)
}

// Notifier delivers alert texts (HTML) to the destination chat. Delivery is
// best effort; errors are logged by the loop and never retried.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder persists notable events.
type Recorder interface {
	Append(e history.Entry) error
}

const (
	DefaultInterval     = 30 * time.Second
	DefaultAuthCooldown = 60 * time.Second
)

// Config is fixed for the lifetime of a Monitor.
type Config struct {
	// Subject is the identifier passed to the Source and stored in history.
	Subject string
	// SubjectLabel names the subject in alerts; defaults to Subject.
	SubjectLabel   string
	Interval       time.Duration
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	AuthCooldown   time.Duration
	Location       *time.Location
}

// Monitor is the polling loop. Run must not be called concurrently.
type Monitor struct {
	cfg      Config
	source   Source
	notifier Notifier
	history  Recorder
	status   *Status
	logger   *slog.Logger
	backoff  *Backoff

	baseline      presence.Baseline
	connected     bool
	connectedOnce bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(cfg Config, source Source, notifier Notifier, rec Recorder, status *Status, logger *slog.Logger) *Monitor {
	if cfg.SubjectLabel == "" {
		cfg.SubjectLabel = cfg.Subject
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.AuthCooldown <= 0 {
		cfg.AuthCooldown = DefaultAuthCooldown
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if status == nil {
		status = NewStatus(time.Now())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		history:  rec,
		status:   status,
		logger:   logger.With("subject", cfg.Subject),
		backoff:  NewBackoff(cfg.BackoffFloor, cfg.BackoffCeiling),
		now:      time.Now,
		sleep:    sleepWithContext,
	}
}

// Status exposes the operational counters for read-only reporting.
func (m *Monitor) Status() *Status { return m.status }

// Run polls until ctx is cancelled and then returns ctx.Err(). No error kind
// other than cancellation stops the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Presence monitor started", "interval", m.cfg.Interval.String())
	for ctx.Err() == nil {
		wait := m.safeStep(ctx)
		if ctx.Err() != nil || !m.sleep(ctx, wait) {
			break
		}
	}
	m.status.setState(StateDisconnected)
	m.logger.Info("Presence monitor stopped")
	return ctx.Err()
}

func (m *Monitor) safeStep(ctx context.Context) (wait time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic recovered in monitor step", "err", r, "stack", string(debug.Stack()))
			m.status.setError(fmt.Sprint(r))
			wait = m.cfg.Interval
		}
	}()
	return m.step(ctx)
}

// step runs one iteration of the state machine and returns how long to wait
// before the next one.
func (m *Monitor) step(ctx context.Context) time.Duration {
	if !m.connected || !m.source.IsConnected() {
		if wait, ok := m.connect(ctx); !ok {
			return wait
		}
	}

	m.status.setState(StatePolling)
	if err := m.poll(ctx); err != nil {
		if ctx.Err() != nil {
			return 0
		}
		return m.handleError(ctx, err)
	}

	m.status.recordCheck(m.now())
	m.backoff.Reset()
	return m.cfg.Interval
}

func (m *Monitor) connect(ctx context.Context) (time.Duration, bool) {
	m.connected = false
	m.status.setConnected(false)
	m.status.setState(StateDisconnected)
	if m.connectedOnce {
		m.logger.Info("Reconnecting to Telegram")
	} else {
		m.logger.Info("Connecting to Telegram")
	}

	if err := m.source.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return 0, false
		}
		if _, flood := AsFloodWait(err); !flood && !IsConnectionLost(err) {
			err = fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}
		return m.handleError(ctx, err), false
	}

	authorized, err := m.source.IsAuthorized(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false
		}
		return m.handleError(ctx, err), false
	}
	if !authorized {
		m.status.setError(ErrUnauthorized.Error())
		m.logger.Error("Telegram session rejected, retrying later", "cooldown", m.cfg.AuthCooldown.String())
		m.notify(ctx, fmt.Sprintf("❌ <b>Error:</b> %s. Retrying in %s...", ErrUnauthorized, format.FormatDuration(m.cfg.AuthCooldown)), false)
		return m.cfg.AuthCooldown, false
	}

	m.connected = true
	m.status.setConnected(true)
	m.backoff.Reset()
	if m.connectedOnce {
		m.status.recordReconnect(m.now())
		m.logger.Info("Reconnected to Telegram")
		m.notify(ctx, "✅ <b>Reconnected!</b> Monitoring continues.", false)
	} else {
		m.logger.Info("Connected to Telegram")
	}
	m.connectedOnce = true
	return 0, true
}

func (m *Monitor) handleError(ctx context.Context, err error) time.Duration {
	if wait, ok := AsFloodWait(err); ok {
		m.status.recordFloodWait()
		m.status.setState(StateFloodWait)
		m.logger.Warn("Flood wait requested", "wait", wait.String())
		m.notify(ctx, fmt.Sprintf("⚠️ <b>FloodWait:</b> waiting %s...", format.FormatDuration(wait)), false)
		return wait
	}

	if IsConnectionLost(err) {
		m.connected = false
		m.status.setConnected(false)
		m.status.setError(err.Error())
		m.status.setState(StateBackoff)
		delay := m.backoff.Next()
		m.logger.Warn("Connection lost", "err", err, "retry_in", delay.String())
		m.notify(ctx, fmt.Sprintf("⚠️ <b>Connection lost.</b> Retrying in %s...", format.FormatDuration(delay)), false)
		return delay
	}

	m.status.setError(err.Error())
	m.logger.Error("Presence check failed", "err", err)
	return m.cfg.Interval
}

func (m *Monitor) poll(ctx context.Context) error {
	reading, err := m.source.Presence(ctx, m.cfg.Subject)
	if err != nil {
		return err
	}

	loc := m.cfg.Location
	state := presence.Classify(reading)
	if state.LastSeen != nil {
		local := state.LastSeen.In(loc)
		state.LastSeen = &local
	}
	obs := presence.Observation{
		State:   state,
		Label:   presence.Label(reading, loc),
		Subject: m.cfg.SubjectLabel,
	}

	decision := presence.Decide(m.baseline, obs)
	if decision.Record != nil && m.history != nil {
		entry := history.NewEntry(m.now(), loc, m.cfg.Subject, *decision.Record)
		if err := m.history.Append(entry); err != nil {
			return fmt.Errorf("record %s: %w", decision.Event, err)
		}
	}

	switch {
	case decision.Notify:
		m.logger.Warn("Presence alert", "event", decision.Event.String(), "status", obs.Label)
		m.notify(ctx, decision.AlertText, true)
	case !m.baseline.Seeded():
		m.logger.Info("Initial status", "status", obs.Label)
	default:
		m.logger.Info("Status", "status", obs.Label)
	}

	m.baseline.Commit(state)
	return nil
}

func (m *Monitor) notify(ctx context.Context, text string, alert bool) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, text); err != nil {
		if errors.Is(err, ErrNoDestination) {
			m.logger.Debug("Notification skipped, no destination chat yet")
			return
		}
		m.logger.Warn("Notification failed", "err", err)
		return
	}
	if alert {
		m.status.recordAlert()
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
