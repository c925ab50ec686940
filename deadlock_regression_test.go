package main

import (
	"sync"
	"testing"
	"time"

	"presencebot/internal/history"
	"presencebot/internal/presence"
)

func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("operation timed out (possible deadlock)")
	}
}

func TestNoDeadlock_ChatBindingConcurrentAccess(t *testing.T) {
	chat := NewChatBinding(0, "")

	runWithTimeout(t, 2*time.Second, func() {
		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = chat.Claim(int64(i + 1))
				_ = chat.Allows(int64(i))
				_ = chat.ID()
			}(i)
		}
		wg.Wait()
	})
	if chat.ID() == 0 {
		t.Fatalf("no chat bound")
	}
}

func TestNoDeadlock_HealthStatsWhilePingerRecords(t *testing.T) {
	app := newTestAppContext(t)

	runWithTimeout(t, 2*time.Second, func() {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				app.Healthchecks.record(i%2 == 0, "e", testNow)
			}(i)
			go func() {
				defer wg.Done()
				_ = app.Healthchecks.Snapshot()
				_ = app.Status.Snapshot()
			}()
		}
		wg.Wait()
	})
	if got := app.Healthchecks.Snapshot().TotalPings; got != 50 {
		t.Fatalf("TotalPings = %d, want 50", got)
	}
}

func TestNoDeadlock_HistoryReadsWhileAppending(t *testing.T) {
	app := newTestAppContext(t)

	runWithTimeout(t, 5*time.Second, func() {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				e := history.Entry{
					Timestamp:  testNow.Format(presence.TimestampLayout),
					StatusKind: presence.KindOnline,
					StatusText: "online",
					SubjectID:  "42",
				}
				if err := app.History.Append(e); err != nil {
					t.Errorf("Append: %v", err)
				}
			}(i)
			go func() {
				defer wg.Done()
				_, _ = app.History.Page(0)
				_, _ = app.History.TodaySummary()
			}()
		}
		wg.Wait()
	})
	all, err := app.History.All()
	if err != nil || len(all) != 20 {
		t.Fatalf("All = %d entries, %v", len(all), err)
	}
}
