package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/urn"
)

const (
	fieldProtocol  = "protocol"
	fieldLong      = "long"
	fieldShort     = "short"
	fieldCreatedAt = "created_at"

	saveAttempts = 3
	searchLimit  = 50
)

// DefaultSearchIndex is the RediSearch index over short URL hashes.
var DefaultSearchIndex = urn.Search("short_urls").String()

var counterKey = urn.Counter("short_urls").String()

// RedisStore is a Redis implementation of shortener.Repository.
//
// Each link is two hashes: urn:shrtnr:short_url:<code> holding protocol and
// host/path, and urn:shrtnr:long_url:<url> holding the code.
type RedisStore struct {
	client *redis.Client
	index  string
}

// NewRedisStore creates a new Redis-backed link store searching index.
func NewRedisStore(client *redis.Client, index string) *RedisStore {
	if index == "" {
		index = DefaultSearchIndex
	}

	return &RedisStore{
		client: client,
		index:  index,
	}
}

// EnsureIndex creates the search index when it does not exist yet.
func (r *RedisStore) EnsureIndex(ctx context.Context) error {
	err := r.client.FTCreate(ctx, r.index,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{urn.ShortURL("").Prefix()},
		},
		&redis.FieldSchema{FieldName: fieldLong, FieldType: redis.SearchFieldTypeTag, Sortable: true},
		&redis.FieldSchema{FieldName: fieldProtocol, FieldType: redis.SearchFieldTypeTag, Sortable: true},
	).Err()
	if err != nil && !strings.Contains(err.Error(), "Index already exists") {
		return fmt.Errorf("redis: create index %s: %w", r.index, err)
	}

	return nil
}

func (r *RedisStore) NextID(ctx context.Context) (uint64, error) {
	id, err := r.client.Incr(ctx, counterKey).Uint64()
	if err != nil {
		return 0, fmt.Errorf("redis: next id: %w", err)
	}

	return id, nil
}

func (r *RedisStore) GetByLong(ctx context.Context, longURL string) (shortener.Code, error) {
	code, err := r.client.HGet(ctx, urn.LongURL(longURL).String(), fieldShort).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shortener.ErrLongURLNotFound
		}

		return "", fmt.Errorf("redis: get by long url: %w", err)
	}

	return shortener.Code(code), nil
}

func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	values, err := r.client.HMGet(ctx, urn.ShortURL(string(code)).String(),
		fieldProtocol, fieldLong, fieldCreatedAt,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get by code: %w", err)
	}

	protocol, _ := values[0].(string)
	hostPath, _ := values[1].(string)

	if protocol == "" || hostPath == "" {
		return nil, shortener.ErrShortURLNotFound
	}

	link := shortener.NewLink(code, shortener.JoinProtocol(protocol, hostPath))

	if raw, ok := values[2].(string); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			link.CreatedAt = time.UnixMilli(ms).UTC()
		}
	}

	return link, nil
}

// Save writes both hashes in one MULTI guarded by a WATCH on the long URL key.
func (r *RedisStore) Save(ctx context.Context, link *shortener.Link, ttl time.Duration) error {
	shortKey := urn.ShortURL(string(link.Code)).String()
	longKey := urn.LongURL(link.LongURL).String()

	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, longKey).Result()
		if err != nil {
			return err
		}

		if exists > 0 {
			return shortener.ErrLongURLExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, shortKey,
				fieldProtocol, link.Protocol,
				fieldLong, link.HostPath,
				fieldCreatedAt, createdAt.UnixMilli(),
			)
			pipe.HSet(ctx, longKey, fieldShort, string(link.Code))

			if ttl > 0 {
				pipe.Expire(ctx, shortKey, ttl)
				pipe.Expire(ctx, longKey, ttl)
			}

			return nil
		})

		return err
	}

	for range saveAttempts {
		err := r.client.Watch(ctx, txf, longKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil && !errors.Is(err, shortener.ErrLongURLExists) {
			return fmt.Errorf("redis: save: %w", err)
		}

		return err
	}

	return shortener.ErrLongURLExists
}

func (r *RedisStore) Delete(ctx context.Context, link *shortener.Link) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, urn.ShortURL(string(link.Code)).String())
		pipe.Del(ctx, urn.LongURL(link.LongURL).String())

		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: delete: %w", err)
	}

	return nil
}

func (r *RedisStore) Search(ctx context.Context, q shortener.SearchQuery) ([]shortener.Summary, error) {
	res, err := r.client.FTSearchWithArgs(ctx, r.index, searchExpression(q), &redis.FTSearchOptions{
		Return: []redis.FTSearchReturn{
			{FieldName: fieldProtocol},
			{FieldName: fieldLong},
		},
		SortBy:         []redis.FTSearchSortBy{{FieldName: fieldLong, Asc: true}},
		Limit:          searchLimit,
		DialectVersion: 2,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: search: %w", err)
	}

	results := make([]shortener.Summary, 0, len(res.Docs))

	for _, doc := range res.Docs {
		key, err := urn.Parse(doc.ID)
		if err != nil || key.Type != urn.TypeShortURL {
			continue
		}

		results = append(results, shortener.Summary{
			Code:    shortener.Code(key.Resource),
			LongURL: shortener.JoinProtocol(doc.Fields[fieldProtocol], doc.Fields[fieldLong]),
		})
	}

	return results, nil
}

// Shutdown is a no-op for RedisStore (client managed externally).
func (r *RedisStore) Shutdown() error {
	return nil
}

// searchExpression builds a tag query: an optional exact protocol match and
// a prefix match on host/path.
func searchExpression(q shortener.SearchQuery) string {
	var parts []string

	if q.Protocol != "" {
		parts = append(parts, "@"+fieldProtocol+":{"+escapeTag(q.Protocol)+"}")
	}

	if q.Text != "" {
		parts = append(parts, "@"+fieldLong+":{"+escapeTag(q.Text)+"*}")
	}

	if len(parts) == 0 {
		return "*"
	}

	return strings.Join(parts, " ")
}

const tagPunctuation = `,.<>{}[]"':;!@#$%^&*()-+=~/|\? `

func escapeTag(s string) string {
	var b strings.Builder

	for _, r := range s {
		if strings.ContainsRune(tagPunctuation, r) {
			b.WriteByte('\\')
		}

		b.WriteRune(r)
	}

	return b.String()
}

// Compile-time check.
var _ shortener.Repository = (*RedisStore)(nil)
