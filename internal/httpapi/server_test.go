package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"presencebot/internal/history"
	"presencebot/internal/monitor"
	"presencebot/internal/presence"
)

type fakeStatus struct{ snap monitor.Snapshot }

func (f fakeStatus) Snapshot() monitor.Snapshot { return f.snap }

type fakeHistory struct {
	pages   []history.Page
	summary history.Summary
	err     error
	asked   []int
}

func (f *fakeHistory) Page(index int) (history.Page, error) {
	f.asked = append(f.asked, index)
	if f.err != nil {
		return history.Page{}, f.err
	}
	if index < 0 {
		index = 0
	}
	if index >= len(f.pages) {
		index = len(f.pages) - 1
	}
	return f.pages[index], nil
}

func (f *fakeHistory) TodaySummary() (history.Summary, error) {
	return f.summary, f.err
}

var started = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestAPI(snap monitor.Snapshot, hist *fakeHistory) *API {
	a := New(fakeStatus{snap}, hist, slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.now = func() time.Time { return started.Add(90 * time.Minute) }
	return a
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		connected bool
		want      int
	}{
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		a := newTestAPI(monitor.Snapshot{IsConnected: tt.connected}, &fakeHistory{})
		rec := do(t, a.Handler(), "/healthz")
		if rec.Code != tt.want {
			t.Fatalf("connected=%v: code = %d, want %d", tt.connected, rec.Code, tt.want)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("Content-Type = %q", ct)
		}
	}
}

func TestStatus(t *testing.T) {
	snap := monitor.Snapshot{
		StartedAt:   started,
		TotalChecks: 12,
		TotalAlerts: 2,
		IsConnected: true,
		State:       monitor.StatePolling,
	}
	rec := do(t, newTestAPI(snap, &fakeHistory{}).Handler(), "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["uptime"] != "1h 30m 0s" || got["uptime_seconds"] != float64(5400) {
		t.Fatalf("uptime fields = %v / %v", got["uptime"], got["uptime_seconds"])
	}
	if got["total_checks"] != float64(12) || got["state"] != "polling" {
		t.Fatalf("body = %v", got)
	}
}

func TestHistoryPaging(t *testing.T) {
	entry := history.Entry{Timestamp: "01.06.2024 11:00:00", StatusKind: presence.KindOnline, StatusText: "🟢 Online", SubjectID: "42"}
	hist := &fakeHistory{pages: []history.Page{
		{Items: []history.Entry{entry}, Page: 0, TotalPages: 2, TotalItems: 6},
		{Items: []history.Entry{entry}, Page: 1, TotalPages: 2, TotalItems: 6},
	}}
	h := newTestAPI(monitor.Snapshot{}, hist).Handler()

	rec := do(t, h, "/api/history?page=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var page history.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(hist.pages[1], page); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}

	do(t, h, "/api/history")
	if diff := cmp.Diff([]int{7, 0}, hist.asked); diff != "" {
		t.Fatalf("requested pages mismatch (-want +got):\n%s", diff)
	}

	if rec := do(t, h, "/api/history?page=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad page code = %d, want 400", rec.Code)
	}
}

func TestStatsAndErrors(t *testing.T) {
	hist := &fakeHistory{summary: history.Summary{Date: "01.06.2024", Total: 3, Online: 2, Offline: 1, Entries: []history.Entry{}}}
	h := newTestAPI(monitor.Snapshot{}, hist).Handler()

	rec := do(t, h, "/api/stats")
	var sum history.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(hist.summary, sum); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	hist.err = errors.New("read history: permission denied")
	for _, target := range []string{"/api/stats", "/api/history?page=1"} {
		if rec := do(t, h, target); rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s code = %d, want 500", target, rec.Code)
		}
	}
}
