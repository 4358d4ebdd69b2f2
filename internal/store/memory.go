package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

type memoryEntry struct {
	link      shortener.Link
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu      sync.RWMutex
	counter uint64
	links   map[shortener.Code]memoryEntry
	codes   map[string]shortener.Code // long url -> code
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[shortener.Code]memoryEntry),
		codes: make(map[string]shortener.Code),
		now:   time.Now,
	}
}

func (m *MemoryStore) NextID(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++

	return m.counter, nil
}

func (m *MemoryStore) GetByLong(_ context.Context, longURL string) (shortener.Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.codes[longURL]
	if !ok {
		return "", shortener.ErrLongURLNotFound
	}

	entry, ok := m.links[code]
	if !ok || entry.expired(m.now()) {
		return "", shortener.ErrLongURLNotFound
	}

	return code, nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.links[code]
	if !ok || entry.expired(m.now()) {
		return nil, shortener.ErrShortURLNotFound
	}

	link := entry.link

	return &link, nil
}

func (m *MemoryStore) Save(_ context.Context, link *shortener.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if code, ok := m.codes[link.LongURL]; ok {
		if entry, ok := m.links[code]; ok && !entry.expired(now) {
			return shortener.ErrLongURLExists
		}
	}

	entry := memoryEntry{link: *link}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.links[link.Code] = entry
	m.codes[link.LongURL] = link.Code

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, link.Code)

	if m.codes[link.LongURL] == link.Code {
		delete(m.codes, link.LongURL)
	}

	return nil
}

func (m *MemoryStore) Search(_ context.Context, q shortener.SearchQuery) ([]shortener.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	text := strings.ToLower(q.Text)
	results := []shortener.Summary{}

	for code, entry := range m.links {
		if entry.expired(now) {
			continue
		}

		if q.Protocol != "" && entry.link.Protocol != q.Protocol {
			continue
		}

		if !strings.HasPrefix(strings.ToLower(entry.link.HostPath), text) {
			continue
		}

		results = append(results, shortener.Summary{Code: code, LongURL: entry.link.LongURL})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].LongURL < results[j].LongURL
	})

	return results, nil
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
