package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// Service combines the link store with access tracking.
type Service struct {
	links   *Links
	tracker Tracker
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a link service.
func NewService(links *Links, tracker Tracker, logger *zap.Logger) *Service {
	return &Service{
		links:   links,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateLink shortens url and starts its access series. For a URL that is
// already registered the existing link is returned together with an
// *AlreadyExistsError and no series is created. If the series cannot be
// created the new link is removed again.
func (s *Service) CreateLink(ctx context.Context, url string, ttl time.Duration) (*Link, error) {
	link, err := s.links.Create(ctx, url, ttl)

	var exists *AlreadyExistsError
	if errors.As(err, &exists) {
		return exists.Link, err
	}

	if err != nil {
		return nil, err
	}

	if err := s.tracker.Create(ctx, link.Code, ttl); err != nil {
		// No live link may lack a series.
		if delErr := s.links.Delete(ctx, link.Code); delErr != nil {
			s.logger.Error("link left without access series",
				zap.String("code", string(link.Code)),
				zap.Error(delErr),
			)
		}

		return nil, err
	}

	return link, nil
}

// GetLink returns the link for code with its view counts.
func (s *Service) GetLink(ctx context.Context, code Code) (*Link, error) {
	now := s.now()
	starts := [3]time.Time{
		now.Add(-day),
		now.Add(-week),
		time.UnixMilli(0),
	}

	var (
		g      errgroup.Group
		counts [3]int64
		errs   [3]error
	)

	for i, start := range starts {
		g.Go(func() error {
			counts[i], errs[i] = s.tracker.Sum(ctx, code, start, now)

			return nil
		})
	}

	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	longURL, err := s.links.ResolveShort(ctx, code)
	if err != nil {
		return nil, err
	}

	link := NewLink(code, longURL)
	link.Views = Views{Today: counts[0], Week: counts[1], All: counts[2]}

	return link, nil
}

// DeleteLink removes the mapping for code and then its access series.
func (s *Service) DeleteLink(ctx context.Context, code Code) error {
	if err := s.links.Delete(ctx, code); err != nil {
		return err
	}

	if err := s.tracker.Delete(ctx, code); err != nil {
		s.logger.Error("access series left behind",
			zap.String("code", string(code)),
			zap.Error(err),
		)

		return &PartialDeleteError{Code: code, Err: err}
	}

	return nil
}

// Resolve returns the long URL for code.
func (s *Service) Resolve(ctx context.Context, code Code) (string, error) {
	return s.links.ResolveShort(ctx, code)
}

// Search finds links by URL prefix. View counts are not included.
func (s *Service) Search(ctx context.Context, query string) ([]Summary, error) {
	return s.links.Search(ctx, query)
}

// Timeline returns the raw access series for code between start and end.
func (s *Service) Timeline(ctx context.Context, code Code, start, end time.Time) ([]Sample, error) {
	if _, err := s.links.ResolveShort(ctx, code); err != nil {
		return nil, err
	}

	return s.tracker.Query(ctx, code, start, end)
}

// RecordAccess counts one access of code at the time it happened; a zero
// time means now. Accesses of links that no longer exist return
// ErrShortURLNotFound and are not recorded.
func (s *Service) RecordAccess(ctx context.Context, code Code, at time.Time) error {
	if _, err := s.links.ResolveShort(ctx, code); err != nil {
		return err
	}

	if at.IsZero() {
		at = s.now()
	}

	return s.tracker.Track(ctx, code, at)
}
