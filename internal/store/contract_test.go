package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/base58"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepository runs the behaviour every shortener.Repository must share.
// URLs are made unique per run so it can target long-lived services.
func testRepository(t *testing.T, repo shortener.Repository) {
	t.Helper()

	ctx := context.Background()
	host := uuid.NewString() + ".example.com"

	newLink := func(t *testing.T, longURL string) *shortener.Link {
		t.Helper()

		id, err := repo.NextID(ctx)
		require.NoError(t, err)

		link := shortener.NewLink(shortener.Code(base58.Encode(id)), longURL)
		link.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

		return link
	}

	t.Run("next id increments", func(t *testing.T) {
		first, err := repo.NextID(ctx)
		require.NoError(t, err)

		second, err := repo.NextID(ctx)
		require.NoError(t, err)

		assert.Greater(t, second, first)
	})

	t.Run("save and resolve both directions", func(t *testing.T) {
		link := newLink(t, "https://"+host+"/save")
		require.NoError(t, repo.Save(ctx, link, 0))

		got, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, link.LongURL, got.LongURL)
		assert.Equal(t, "https:", got.Protocol)

		code, err := repo.GetByLong(ctx, link.LongURL)
		require.NoError(t, err)
		assert.Equal(t, link.Code, code)
	})

	t.Run("second save of a url is rejected", func(t *testing.T) {
		first := newLink(t, "https://"+host+"/dup")
		require.NoError(t, repo.Save(ctx, first, 0))

		second := newLink(t, first.LongURL)
		err := repo.Save(ctx, second, 0)
		require.ErrorIs(t, err, shortener.ErrLongURLExists)

		_, err = repo.GetByCode(ctx, second.Code)
		assert.ErrorIs(t, err, shortener.ErrShortURLNotFound)
	})

	t.Run("delete removes both directions", func(t *testing.T) {
		link := newLink(t, "https://"+host+"/delete")
		require.NoError(t, repo.Save(ctx, link, 0))

		require.NoError(t, repo.Delete(ctx, link))

		_, err := repo.GetByCode(ctx, link.Code)
		require.ErrorIs(t, err, shortener.ErrShortURLNotFound)

		_, err = repo.GetByLong(ctx, link.LongURL)
		assert.ErrorIs(t, err, shortener.ErrLongURLNotFound)
	})

	t.Run("missing keys are not found", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, "0")
		require.ErrorIs(t, err, shortener.ErrShortURLNotFound)

		_, err = repo.GetByLong(ctx, "https://"+host+"/missing")
		assert.ErrorIs(t, err, shortener.ErrLongURLNotFound)
	})
}

// testSearch checks prefix search with and without a protocol filter.
func testSearch(t *testing.T, repo shortener.Repository, settle func()) {
	t.Helper()

	ctx := context.Background()
	host := uuid.NewString() + ".example.com"

	for i, longURL := range []string{"https://" + host + "/a", "http://" + host + "/b"} {
		id, err := repo.NextID(ctx)
		require.NoError(t, err)

		link := shortener.NewLink(shortener.Code(base58.Encode(id)), longURL)
		require.NoError(t, repo.Save(ctx, link, 0), i)
	}

	settle()

	t.Run("any protocol", func(t *testing.T) {
		got, err := repo.Search(ctx, shortener.SearchQuery{Text: host})

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("protocol filter", func(t *testing.T) {
		got, err := repo.Search(ctx, shortener.SearchQuery{Protocol: "https:", Text: host})

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "https://"+host+"/a", got[0].LongURL)
	})

	t.Run("no hits", func(t *testing.T) {
		got, err := repo.Search(ctx, shortener.SearchQuery{Text: uuid.NewString()})

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	testRepository(t, store.NewMemoryStore())
	testSearch(t, store.NewMemoryStore(), func() {})
}
