package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"presencebot/internal/presence"
)

func newTestStore(t *testing.T, capacity, pageSize int) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "activity_history.json"), Options{
		Capacity: capacity,
		PageSize: pageSize,
		Location: time.UTC,
	})
}

func entryN(n int) Entry {
	return Entry{
		Timestamp:  fmt.Sprintf("01.01.2024 00:00:%02d", n%60),
		StatusKind: presence.KindOnline,
		StatusText: fmt.Sprintf("entry %d", n),
		SubjectID:  "42",
	}
}

func texts(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.StatusText)
	}
	return out
}

func TestAppendMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t, 10, 5)
	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(all))
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	const capacity = 5
	s := newTestStore(t, capacity, 5)

	for i := 0; i < capacity+1; i++ {
		if err := s.Append(entryN(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []string{"entry 1", "entry 2", "entry 3", "entry 4", "entry 5"}
	if diff := cmp.Diff(want, texts(all)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendPersistsLayout(t *testing.T) {
	s := newTestStore(t, 10, 5)
	seen := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	at := time.Date(2024, 2, 3, 4, 7, 0, 0, time.UTC)

	e := NewEntry(at, time.UTC, "42", presence.Record{Kind: presence.KindOffline, Text: "⚪ Last seen", LastSeen: &seen})
	if err := s.Append(e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(NewEntry(at, time.UTC, "42", presence.Record{Kind: presence.KindOnline, Text: "🟢 Online"})); err != nil {
		t.Fatalf("Append: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	body := string(raw)
	for _, want := range []string{`"timestamp": "03.02.2024 04:07:00"`, `"status_kind": "offline"`, `"subject_id": "42"`, `"last_seen": "03.02.2024 04:05:06"`, "🟢 Online"} {
		if !strings.Contains(body, want) {
			t.Fatalf("history file missing %s:\n%s", want, body)
		}
	}
	if strings.Count(body, "last_seen") != 1 {
		t.Fatalf("last_seen must be omitted when absent:\n%s", body)
	}
}

func TestAppendPropagatesWriteErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := New(filepath.Join(blocker, "history.json"), Options{})

	if err := s.Append(entryN(1)); err == nil {
		t.Fatalf("expected error when the history directory cannot be created")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	s := newTestStore(t, 10, 5)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := s.Append(entryN(1)); err == nil {
		t.Fatalf("expected decode error")
	}
	raw, _ := os.ReadFile(s.Path())
	if string(raw) != "{not json" {
		t.Fatalf("failed append must not rewrite the file, got %q", raw)
	}
}

func TestPage(t *testing.T) {
	s := newTestStore(t, 100, 5)
	for i := 0; i < 12; i++ {
		if err := s.Append(entryN(i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	cases := []struct {
		name      string
		index     int
		wantPage  int
		wantItems []string
	}{
		{"first", 0, 0, []string{"entry 11", "entry 10", "entry 9", "entry 8", "entry 7"}},
		{"last", 2, 2, []string{"entry 1", "entry 0"}},
		{"clampHigh", 3, 2, []string{"entry 1", "entry 0"}},
		{"clampWayHigh", 99, 2, []string{"entry 1", "entry 0"}},
		{"clampNegative", -4, 0, []string{"entry 11", "entry 10", "entry 9", "entry 8", "entry 7"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := s.Page(tc.index)
			if err != nil {
				t.Fatalf("Page: %v", err)
			}
			if p.Page != tc.wantPage || p.TotalPages != 3 || p.TotalItems != 12 {
				t.Fatalf("page meta = %d/%d items=%d", p.Page, p.TotalPages, p.TotalItems)
			}
			if diff := cmp.Diff(tc.wantItems, texts(p.Items)); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPageTotalPages(t *testing.T) {
	for _, k := range []int{0, 1, 4, 5, 6, 10, 11} {
		s := newTestStore(t, 100, 5)
		for i := 0; i < k; i++ {
			if err := s.Append(entryN(i)); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		p, err := s.Page(0)
		if err != nil {
			t.Fatalf("Page: %v", err)
		}
		want := (k + 4) / 5
		if want < 1 {
			want = 1
		}
		if p.TotalPages != want {
			t.Fatalf("k=%d: TotalPages = %d, want %d", k, p.TotalPages, want)
		}
		clamped, err := s.Page(p.TotalPages)
		if err != nil {
			t.Fatalf("Page: %v", err)
		}
		last, _ := s.Page(p.TotalPages - 1)
		if diff := cmp.Diff(last, clamped); diff != "" {
			t.Fatalf("k=%d: page(total) differs from page(total-1):\n%s", k, diff)
		}
	}
}

func TestPageEmpty(t *testing.T) {
	s := newTestStore(t, 10, 5)
	p, err := s.Page(3)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if p.Page != 0 || p.TotalPages != 1 || p.TotalItems != 0 || len(p.Items) != 0 {
		t.Fatalf("empty page = %+v", p)
	}
}

func TestTodaySummary(t *testing.T) {
	s := newTestStore(t, 100, 5)
	s.now = func() time.Time { return time.Date(2024, 7, 9, 15, 0, 0, 0, time.UTC) }

	entries := []Entry{
		{Timestamp: "08.07.2024 23:59:59", StatusKind: presence.KindOnline},
		{Timestamp: "09.07.2024 08:00:00", StatusKind: presence.KindOnline},
		{Timestamp: "09.07.2024 09:00:00", StatusKind: presence.KindOffline, LastSeen: "09.07.2024 08:59:00"},
		{Timestamp: "09.07.2024 10:00:00", StatusKind: presence.KindLastWeek},
		{Timestamp: "09.07.2024 11:00:00", StatusKind: presence.KindOnline},
	}
	for _, e := range entries {
		if err := s.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	sum, err := s.TodaySummary()
	if err != nil {
		t.Fatalf("TodaySummary: %v", err)
	}
	if sum.Date != "09.07.2024" || sum.Total != 4 || sum.Online != 2 || sum.Offline != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Entries[0].Timestamp != "09.07.2024 08:00:00" {
		t.Fatalf("entries must keep insertion order, got %+v", sum.Entries)
	}
}

func TestTodaySummaryUsesStoreLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	s := New(filepath.Join(t.TempDir(), "h.json"), Options{Location: loc})
	s.now = func() time.Time { return time.Date(2024, 7, 9, 22, 0, 0, 0, time.UTC) }

	if err := s.Append(Entry{Timestamp: "10.07.2024 02:30:00", StatusKind: presence.KindOnline}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sum, err := s.TodaySummary()
	if err != nil {
		t.Fatalf("TodaySummary: %v", err)
	}
	if sum.Date != "10.07.2024" || sum.Online != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestEntryTime(t *testing.T) {
	e := Entry{Timestamp: "10.07.2024 02:30:00"}
	got, err := e.Time(time.UTC)
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	if want := time.Date(2024, 7, 10, 2, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Time = %v, want %v", got, want)
	}
}
