package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/analytics/store"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTracker runs the behaviour every shortener.Tracker must share.
func testTracker(t *testing.T, tracker shortener.Tracker) {
	t.Helper()

	ctx := context.Background()
	epoch := time.UnixMilli(0)
	code := shortener.Code(uuid.NewString())

	t.Run("missing series", func(t *testing.T) {
		_, err := tracker.Sum(ctx, code, epoch, time.Now())
		require.ErrorIs(t, err, shortener.ErrTimeseriesNotFound)

		_, err = tracker.Query(ctx, code, epoch, time.Now())
		assert.ErrorIs(t, err, shortener.ErrTimeseriesNotFound)
	})

	t.Run("new series sums to zero", func(t *testing.T) {
		require.NoError(t, tracker.Create(ctx, code, time.Hour))

		total, err := tracker.Sum(ctx, code, epoch, time.Now())

		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("tracked accesses are counted", func(t *testing.T) {
		require.NoError(t, tracker.Track(ctx, code, time.Now()))
		require.NoError(t, tracker.Track(ctx, code, time.Now()))

		end := time.Now().Add(time.Second)

		total, err := tracker.Sum(ctx, code, epoch, end)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		samples, err := tracker.Query(ctx, code, epoch, end)
		require.NoError(t, err)

		var counted int64
		for _, s := range samples {
			counted += s.Count
		}

		assert.Equal(t, int64(2), counted)
	})

	t.Run("creating an existing series keeps its samples", func(t *testing.T) {
		require.NoError(t, tracker.Create(ctx, code, time.Hour))

		total, err := tracker.Sum(ctx, code, epoch, time.Now().Add(time.Second))

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("accesses land at the time they happened", func(t *testing.T) {
		earlier := time.Now().Add(-3 * 24 * time.Hour).Truncate(time.Millisecond)
		require.NoError(t, tracker.Track(ctx, code, earlier))

		samples, err := tracker.Query(ctx, code, earlier, earlier)
		require.NoError(t, err)
		require.Len(t, samples, 1)
		assert.True(t, earlier.Equal(samples[0].Timestamp))
		assert.Equal(t, int64(1), samples[0].Count)

		lastDay, err := tracker.Sum(ctx, code, time.Now().Add(-24*time.Hour), time.Now().Add(time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(2), lastDay)
	})

	t.Run("window excludes older accesses", func(t *testing.T) {
		total, err := tracker.Sum(ctx, code, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))

		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("delete removes the series and is idempotent", func(t *testing.T) {
		require.NoError(t, tracker.Delete(ctx, code))
		require.NoError(t, tracker.Delete(ctx, code))

		_, err := tracker.Sum(ctx, code, epoch, time.Now())
		assert.ErrorIs(t, err, shortener.ErrTimeseriesNotFound)
	})
}

func TestMemory_Contract(t *testing.T) {
	testTracker(t, store.NewMemory())
}
