// Package store holds the access series backends used by the link service.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

type series struct {
	counts    map[int64]int64 // unix millis -> count
	expiresAt time.Time
}

// Memory is an in-memory implementation of shortener.Tracker.
type Memory struct {
	mu     sync.Mutex
	series map[shortener.Code]*series
	now    func() time.Time
}

// NewMemory creates an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{
		series: make(map[shortener.Code]*series),
		now:    time.Now,
	}
}

// lookup returns the live series for code, evicting it once expired.
func (m *Memory) lookup(code shortener.Code) (*series, bool) {
	s, ok := m.series[code]
	if !ok {
		return nil, false
	}

	if !s.expiresAt.IsZero() && !m.now().Before(s.expiresAt) {
		delete(m.series, code)

		return nil, false
	}

	return s, true
}

func (m *Memory) Create(_ context.Context, code shortener.Code, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(code)
	if !ok {
		s = &series{counts: make(map[int64]int64)}
		m.series[code] = s
	}

	// Creating an existing series keeps its samples and only renews the ttl.
	s.expiresAt = time.Time{}
	if ttl > 0 {
		s.expiresAt = m.now().Add(ttl)
	}

	return nil
}

func (m *Memory) Track(_ context.Context, code shortener.Code, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(code)
	if !ok {
		s = &series{counts: make(map[int64]int64)}
		m.series[code] = s
	}

	s.counts[at.UnixMilli()]++

	return nil
}

func (m *Memory) Sum(_ context.Context, code shortener.Code, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(code)
	if !ok {
		return 0, shortener.ErrTimeseriesNotFound
	}

	from, to := start.UnixMilli(), end.UnixMilli()

	var total int64

	for ts, count := range s.counts {
		if ts >= from && ts <= to {
			total += count
		}
	}

	return total, nil
}

func (m *Memory) Query(_ context.Context, code shortener.Code, start, end time.Time) ([]shortener.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.lookup(code)
	if !ok {
		return nil, shortener.ErrTimeseriesNotFound
	}

	from, to := start.UnixMilli(), end.UnixMilli()
	samples := []shortener.Sample{}

	for ts, count := range s.counts {
		if ts >= from && ts <= to {
			samples = append(samples, shortener.Sample{Timestamp: time.UnixMilli(ts).UTC(), Count: count})
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	return samples, nil
}

func (m *Memory) Delete(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.series, code)

	return nil
}

// Compile-time check.
var _ shortener.Tracker = (*Memory)(nil)
