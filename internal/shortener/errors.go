package shortener

import (
	"errors"
	"fmt"
)

var (
	ErrLinkTooLong         = errors.New("link too long")
	ErrLinkTooShort        = errors.New("link too short")
	ErrNotValidURL         = errors.New("not a valid url")
	ErrSearchQueryTooShort = errors.New("search query too short")
)

var (
	// ErrNotFound is wrapped by every lookup miss so callers can map all of
	// them to a single response.
	ErrNotFound           = errors.New("not found")
	ErrShortURLNotFound   = fmt.Errorf("short url %w", ErrNotFound)
	ErrLongURLNotFound    = fmt.Errorf("long url %w", ErrNotFound)
	ErrTimeseriesNotFound = fmt.Errorf("timeseries %w", ErrNotFound)
)

var (
	ErrAlreadyExists = errors.New("short link already exists")

	// ErrLongURLExists is returned by Repository.Save when another writer
	// mapped the same long URL first.
	ErrLongURLExists = errors.New("long url already mapped")

	ErrPartialDelete = errors.New("link deleted but access series was not")
)

// ValidationError reports caller input that can never succeed.
type ValidationError struct {
	Input string
	Limit int
	Err   error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrLinkTooLong):
		return fmt.Sprintf("link is too long, maximum length is %d characters", e.Limit)
	case errors.Is(e.Err, ErrLinkTooShort):
		return fmt.Sprintf("link %q is too short, minimum length is %d characters", e.Input, e.Limit)
	case errors.Is(e.Err, ErrNotValidURL):
		return fmt.Sprintf("link %q is not a valid url", e.Input)
	case errors.Is(e.Err, ErrSearchQueryTooShort):
		return fmt.Sprintf("search terms require at least %d characters", e.Limit)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err was caused by invalid caller input.
func IsValidation(err error) bool {
	var v *ValidationError

	return errors.As(err, &v)
}

// AlreadyExistsError carries the link that was already registered for a URL.
// It signals an idempotent create rather than a failure.
type AlreadyExistsError struct {
	Link *Link
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("short link for %q already exists", e.Link.LongURL)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// PartialDeleteError reports a link whose mapping is gone while its access
// series could not be removed.
type PartialDeleteError struct {
	Code Code
	Err  error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("link %q deleted but access series remains: %v", e.Code, e.Err)
}

func (e *PartialDeleteError) Unwrap() []error {
	return []error{ErrPartialDelete, e.Err}
}
