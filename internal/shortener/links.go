package shortener

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/shortlink/internal/base58"
)

// MinSearchLength is the shortest accepted search query.
const MinSearchLength = 2

// Links maps canonical URLs to short codes and back.
type Links struct {
	repo Repository
	now  func() time.Time
}

// NewLinks creates a link store on top of repo.
func NewLinks(repo Repository) *Links {
	return &Links{
		repo: repo,
		now:  time.Now,
	}
}

// Create shortens rawURL. When the canonical URL is already mapped the
// existing link is returned inside an *AlreadyExistsError.
func (l *Links) Create(ctx context.Context, rawURL string, ttl time.Duration) (*Link, error) {
	longURL, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	existing, err := l.existing(ctx, longURL)
	if err == nil {
		return nil, &AlreadyExistsError{Link: existing}
	}

	if !errors.Is(err, ErrLongURLNotFound) {
		return nil, err
	}

	id, err := l.repo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	link := NewLink(Code(base58.Encode(id)), longURL)
	link.CreatedAt = l.now()

	if ttl > 0 {
		link.ExpiresAt = link.CreatedAt.Add(ttl)
	}

	err = l.repo.Save(ctx, link, ttl)
	if errors.Is(err, ErrLongURLExists) {
		// lost the race to a concurrent create of the same URL
		existing, lookupErr := l.existing(ctx, longURL)
		if lookupErr != nil {
			return nil, lookupErr
		}

		return nil, &AlreadyExistsError{Link: existing}
	}

	if err != nil {
		return nil, err
	}

	return link, nil
}

func (l *Links) existing(ctx context.Context, longURL string) (*Link, error) {
	code, err := l.repo.GetByLong(ctx, longURL)
	if err != nil {
		return nil, err
	}

	return NewLink(code, longURL), nil
}

// ResolveShort returns the long URL for code.
func (l *Links) ResolveShort(ctx context.Context, code Code) (string, error) {
	link, err := l.repo.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	return link.LongURL, nil
}

// ResolveLong returns the code mapped to url. The input is normalized first
// so any spelling of a registered URL resolves.
func (l *Links) ResolveLong(ctx context.Context, url string) (Code, error) {
	longURL, err := Normalize(url)
	if err != nil {
		return "", err
	}

	return l.repo.GetByLong(ctx, longURL)
}

// Delete removes both directions of the mapping for code.
func (l *Links) Delete(ctx context.Context, code Code) error {
	link, err := l.repo.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	return l.repo.Delete(ctx, link)
}

// Search finds links whose URL starts with query. A leading scheme narrows
// the match to that protocol.
func (l *Links) Search(ctx context.Context, query string) ([]Summary, error) {
	if len([]rune(query)) < MinSearchLength {
		return nil, &ValidationError{Input: query, Limit: MinSearchLength, Err: ErrSearchQueryTooShort}
	}

	results, err := l.repo.Search(ctx, ParseSearchQuery(query))
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []Summary{}
	}

	return results, nil
}
