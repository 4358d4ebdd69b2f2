package store

import "time"

var SearchExpression = searchExpression

func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}
