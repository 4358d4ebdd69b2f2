package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// AccessRecorder counts link accesses.
type AccessRecorder interface {
	RecordAccess(ctx context.Context, code shortener.Code, at time.Time) error
}

// HandleURLAccessed records every access event against the link's series at
// the time the redirect happened, so a consumer backlog does not shift counts.
// Events for links that were deleted in the meantime are dropped.
func HandleURLAccessed(recorder AccessRecorder, logger *zap.Logger) messaging.Handler[URLAccessedEvent] {
	return func(ctx context.Context, event *URLAccessedEvent) error {
		err := recorder.RecordAccess(ctx, shortener.Code(event.Code), event.AccessedAt)
		if errors.Is(err, shortener.ErrNotFound) {
			logger.Debug("dropping access to missing link",
				zap.String("code", event.Code),
				zap.Error(err),
			)

			return nil
		}

		return err
	}
}

// HandleURLCreated writes an audit record of each created link.
func HandleURLCreated(logger *zap.Logger) messaging.Handler[URLCreatedEvent] {
	return func(_ context.Context, event *URLCreatedEvent) error {
		fields := []zap.Field{
			zap.String("code", event.Code),
			zap.String("longUrl", event.LongURL),
			zap.Time("createdAt", event.CreatedAt),
			zap.String("clientIp", event.ClientIP),
			zap.String("userAgent", event.UserAgent),
		}

		if event.ExpiresAt != nil {
			fields = append(fields, zap.Time("expiresAt", *event.ExpiresAt))
		}

		logger.Info("url created", fields...)

		return nil
	}
}
