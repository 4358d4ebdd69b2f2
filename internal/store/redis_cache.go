package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/urn"
)

// RedisCacheRepository wraps a Repository with Redis caching for reads.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCacheRepository) NextID(ctx context.Context) (uint64, error) {
	return r.store.NextID(ctx)
}

// Save stores a link in the underlying store and updates the cache.
func (r *RedisCacheRepository) Save(ctx context.Context, link *shortener.Link, ttl time.Duration) error {
	if err := r.store.Save(ctx, link, ttl); err != nil {
		return err
	}

	// Write-through: update cache after successful save
	r.cacheLink(ctx, link)

	return nil
}

// GetByCode retrieves a link by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// GetByLong retrieves the code for a long URL, checking cache first.
func (r *RedisCacheRepository) GetByLong(ctx context.Context, longURL string) (shortener.Code, error) {
	code, err := r.client.Get(ctx, longCacheKey(longURL)).Result()
	if err == nil {
		return shortener.Code(code), nil
	}

	found, err := r.store.GetByLong(ctx, longURL)
	if err != nil {
		return "", err
	}

	// The reverse entry may only be cached with the link's expiry, which the
	// code alone does not carry.
	if link, err := r.store.GetByCode(ctx, found); err == nil {
		r.cacheLink(ctx, link)
	}

	return found, nil
}

// Delete removes the link from the store and drops both cache entries.
func (r *RedisCacheRepository) Delete(ctx context.Context, link *shortener.Link) error {
	if err := r.store.Delete(ctx, link); err != nil {
		return err
	}

	return r.client.Del(ctx, shortCacheKey(link.Code), longCacheKey(link.LongURL)).Err()
}

// Search always goes to the underlying store.
func (r *RedisCacheRepository) Search(ctx context.Context, q shortener.SearchQuery) ([]shortener.Summary, error) {
	return r.store.Search(ctx, q)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	result, err := r.client.HGetAll(ctx, shortCacheKey(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrShortURLNotFound
	}

	link := shortener.NewLink(code, result["url"])

	if ms, err := strconv.ParseInt(result[fieldCreatedAt], 10, 64); err == nil {
		link.CreatedAt = time.UnixMilli(ms).UTC()
	}

	if ms, err := strconv.ParseInt(result["expires_at"], 10, 64); err == nil {
		link.ExpiresAt = time.UnixMilli(ms).UTC()
	}

	return link, nil
}

// cacheLink caches the link for the cache ttl, capped by the link's own expiry.
func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.Link) {
	ttl := r.ttl

	if !link.ExpiresAt.IsZero() {
		remaining := time.Until(link.ExpiresAt)
		if remaining <= 0 {
			return
		}

		if ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}

	fields := map[string]interface{}{
		"url":          link.LongURL,
		fieldCreatedAt: link.CreatedAt.UnixMilli(),
	}

	if !link.ExpiresAt.IsZero() {
		fields["expires_at"] = link.ExpiresAt.UnixMilli()
	}

	key := shortCacheKey(link.Code)
	pipe := r.client.Pipeline()

	pipe.HSet(ctx, key, fields)
	pipe.Set(ctx, longCacheKey(link.LongURL), string(link.Code), ttl)

	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

func shortCacheKey(code shortener.Code) string {
	return urn.Cache(urn.ShortURL(string(code))).String()
}

func longCacheKey(longURL string) string {
	return urn.Cache(urn.LongURL(longURL)).String()
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
