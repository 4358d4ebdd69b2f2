// Package health serves the liveness endpoint.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker adapts pgxpool.Pool to Checker interface.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a new PostgreSQL health checker.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler pings the backends the service was started with.
type Handler struct {
	checkers map[string]Checker
	timeout  time.Duration
}

const defaultTimeout = 2 * time.Second

// NewHandler creates a new health handler over named dependencies.
func NewHandler(checkers map[string]Checker) *Handler {
	return &Handler{checkers: checkers, timeout: defaultTimeout}
}

// WithTimeout bounds each ping.
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	h.timeout = d

	return h
}

// Response is ok when every dependency answers, degraded when some do and
// unhealthy (503) when none do.
type Response struct {
	Status int
	Body   struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
}

// Check pings every dependency concurrently.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}

	sort.Strings(names)

	healthy := make([]bool, len(names))

	var g errgroup.Group

	for i, name := range names {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			healthy[i] = h.checkers[name].Ping(pingCtx) == nil

			return nil
		})
	}

	_ = g.Wait()

	resp := &Response{Status: http.StatusOK}
	resp.Body.Status = statusOK
	resp.Body.Dependencies = make(map[string]string, len(names))

	down := 0

	for i, name := range names {
		if healthy[i] {
			resp.Body.Dependencies[name] = statusHealthy

			continue
		}

		resp.Body.Dependencies[name] = statusUnhealthy
		down++
	}

	switch {
	case down == 0:
	case down == len(names):
		resp.Status = http.StatusServiceUnavailable
		resp.Body.Status = statusUnhealthy
	default:
		resp.Body.Status = statusDegraded
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
