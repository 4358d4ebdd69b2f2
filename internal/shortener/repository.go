package shortener

import (
	"context"
	"time"
)

// Repository persists both directions of a link mapping.
type Repository interface {
	// NextID atomically increments the link counter and returns the new value.
	NextID(ctx context.Context) (uint64, error)
	GetByLong(ctx context.Context, longURL string) (Code, error)
	GetByCode(ctx context.Context, code Code) (*Link, error)
	// Save writes both directions together. It returns ErrLongURLExists and
	// writes nothing when the long URL is already mapped. A zero ttl never expires.
	Save(ctx context.Context, link *Link, ttl time.Duration) error
	Delete(ctx context.Context, link *Link) error
	Search(ctx context.Context, q SearchQuery) ([]Summary, error)
}

// Tracker records link accesses as a time series.
type Tracker interface {
	Create(ctx context.Context, code Code, ttl time.Duration) error
	// Track adds one access at the given time, at millisecond resolution.
	// Accesses sharing a timestamp are summed.
	Track(ctx context.Context, code Code, at time.Time) error
	// Sum totals accesses in [start, end]. A missing series returns
	// ErrTimeseriesNotFound, an empty range returns 0.
	Sum(ctx context.Context, code Code, start, end time.Time) (int64, error)
	Query(ctx context.Context, code Code, start, end time.Time) ([]Sample, error)
	// Delete removes the series. Removing a missing series is not an error.
	Delete(ctx context.Context, code Code) error
}
