// Package history keeps a bounded, file-backed log of notable presence events.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"presencebot/internal/presence"
)

const (
	DefaultCapacity = 500
	DefaultPageSize = 5
)

// Store is the history log. The whole file is read on every call and
// rewritten on every Append; only the newest Capacity entries are kept.
type Store struct {
	path     string
	capacity int
	pageSize int
	loc      *time.Location
	now      func() time.Time

	mu sync.Mutex
}

// Options tunes a Store. Zero values fall back to the defaults.
type Options struct {
	Capacity int
	PageSize int
	Location *time.Location
	// Now is the clock used to pick "today".
	Now func() time.Time
}

// New returns a store backed by path. The file is created lazily.
func New(path string, opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		path:     path,
		capacity: opts.Capacity,
		pageSize: opts.PageSize,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

func (s *Store) Path() string  { return s.path }
func (s *Store) Capacity() int { return s.capacity }

// Append adds e, evicts the oldest entries beyond capacity and rewrites the
// file. Errors are returned to the caller; a failed Append leaves the
// previous file untouched.
func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	if len(entries) > s.capacity {
		entries = entries[len(entries)-s.capacity:]
	}
	return s.save(entries)
}

// All returns every entry, oldest first.
func (s *Store) All() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Page is one page of history, newest entry first.
type Page struct {
	Items      []Entry `json:"items"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	TotalItems int     `json:"total_items"`
}

// Page returns page index (0-based). Out of range indexes are clamped into
// [0, TotalPages-1]; an empty log has exactly one empty page.
func (s *Store) Page(index int) (Page, error) {
	entries, err := s.All()
	if err != nil {
		return Page{}, err
	}

	reversed := make([]Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	totalPages := (len(reversed) + s.pageSize - 1) / s.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if index > totalPages-1 {
		index = totalPages - 1
	}
	if index < 0 {
		index = 0
	}

	start := index * s.pageSize
	end := start + s.pageSize
	if end > len(reversed) {
		end = len(reversed)
	}
	if start > end {
		start = end
	}

	return Page{
		Items:      reversed[start:end],
		Page:       index,
		TotalPages: totalPages,
		TotalItems: len(reversed),
	}, nil
}

// Summary aggregates the entries of one calendar day.
type Summary struct {
	Date    string  `json:"date"`
	Total   int     `json:"total"`
	Online  int     `json:"online"`
	Offline int     `json:"offline"`
	Entries []Entry `json:"entries"`
}

// TodaySummary counts today's entries (store location). Matching is a prefix
// match of the dd.mm.yyyy date on the entry timestamp.
func (s *Store) TodaySummary() (Summary, error) {
	entries, err := s.All()
	if err != nil {
		return Summary{}, err
	}

	today := s.now().In(s.loc).Format(DateLayout)
	sum := Summary{Date: today, Entries: []Entry{}}
	for _, e := range entries {
		if !strings.HasPrefix(e.Timestamp, today) {
			continue
		}
		sum.Entries = append(sum.Entries, e)
		switch e.StatusKind {
		case presence.KindOnline:
			sum.Online++
		case presence.KindOffline:
			sum.Offline++
		}
	}
	sum.Total = len(sum.Entries)
	return sum, nil
}

func (s *Store) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", s.path, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (s *Store) save(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
