//go:build integration

package store_test

import (
	"testing"

	"github.com/serroba/shortlink/internal/analytics/store"
	"github.com/serroba/shortlink/internal/testutil"
)

func TestRedisTimeSeriesIntegration(t *testing.T) {
	testTracker(t, store.NewRedisTimeSeries(testutil.Redis(t)))
}

func TestPostgresIntegration(t *testing.T) {
	testTracker(t, store.NewPostgres(testutil.Postgres(t)))
}
