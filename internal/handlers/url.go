package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/base58"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// LinkService is the link API exposed over HTTP.
type LinkService interface {
	CreateLink(ctx context.Context, url string, ttl time.Duration) (*shortener.Link, error)
	GetLink(ctx context.Context, code shortener.Code) (*shortener.Link, error)
	DeleteLink(ctx context.Context, code shortener.Code) error
	Search(ctx context.Context, query string) ([]shortener.Summary, error)
	Timeline(ctx context.Context, code shortener.Code, start, end time.Time) ([]shortener.Sample, error)
	Resolve(ctx context.Context, code shortener.Code) (string, error)
}

// URLHandler handles link operations.
type URLHandler struct {
	links              LinkService
	baseURL            string
	defaultTTL         time.Duration
	publishURLCreated  messaging.Publish[analytics.URLCreatedEvent]
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent]
	logger             *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	links LinkService,
	baseURL string,
	defaultTTL time.Duration,
	publishURLCreated messaging.Publish[analytics.URLCreatedEvent],
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		links:              links,
		baseURL:            baseURL,
		defaultTTL:         defaultTTL,
		publishURLCreated:  publishURLCreated,
		publishURLAccessed: publishURLAccessed,
		logger:             logger,
	}
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for analytics.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (h *URLHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	ttl := h.defaultTTL
	if req.Body.TTL > 0 {
		ttl = time.Duration(req.Body.TTL) * time.Second
	}

	link, err := h.links.CreateLink(ctx, req.Body.URL, ttl)
	if errors.Is(err, shortener.ErrAlreadyExists) && link != nil {
		return &CreateLinkResponse{
			Status: http.StatusOK,
			Body:   h.linkBody(link),
		}, nil
	}

	if err != nil {
		return nil, h.httpError(err, "")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLCreatedEvent{
		Code:      string(link.Code),
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if !link.ExpiresAt.IsZero() {
		event.ExpiresAt = &link.ExpiresAt
	}

	if err := h.publishURLCreated(event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	body := h.linkBody(link)

	return &CreateLinkResponse{
		Status:   http.StatusCreated,
		Location: body.Short,
		Body:     body,
	}, nil
}

func (h *URLHandler) GetLink(ctx context.Context, req *LinkRequest) (*LinkResponse, error) {
	if !base58.IsValid(req.Code) {
		return nil, notFound(req.Code)
	}

	link, err := h.links.GetLink(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.httpError(err, req.Code)
	}

	return &LinkResponse{Body: h.linkBody(link)}, nil
}

func (h *URLHandler) Timeline(ctx context.Context, req *TimelineRequest) (*TimelineResponse, error) {
	if !base58.IsValid(req.Code) {
		return nil, notFound(req.Code)
	}

	end := time.Now()
	if req.End > 0 {
		end = time.UnixMilli(req.End)
	}

	if req.Start > end.UnixMilli() {
		return nil, huma.Error400BadRequest("start must not be after end")
	}

	code := shortener.Code(req.Code)

	samples, err := h.links.Timeline(ctx, code, time.UnixMilli(req.Start), end)
	if err != nil {
		return nil, h.httpError(err, req.Code)
	}

	longURL, err := h.links.Resolve(ctx, code)
	if err != nil {
		return nil, h.httpError(err, req.Code)
	}

	resp := &TimelineResponse{}
	resp.Body.Code = req.Code
	resp.Body.Long = longURL
	resp.Body.Timeseries = samples

	return resp, nil
}

func (h *URLHandler) DeleteLink(ctx context.Context, req *LinkRequest) (*DeleteLinkResponse, error) {
	if !base58.IsValid(req.Code) {
		return nil, notFound(req.Code)
	}

	if err := h.links.DeleteLink(ctx, shortener.Code(req.Code)); err != nil {
		return nil, h.httpError(err, req.Code)
	}

	resp := &DeleteLinkResponse{}
	resp.Body.Message = fmt.Sprintf("Link %q successfully deleted", req.Code)

	return resp, nil
}

func (h *URLHandler) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req.Body.Query == "" {
		return nil, huma.Error400BadRequest("missing query")
	}

	hits, err := h.links.Search(ctx, req.Body.Query)
	if err != nil {
		return nil, h.httpError(err, "")
	}

	resp := &SearchResponse{}
	resp.Body.Results = make([]SearchResult, 0, len(hits))

	for _, hit := range hits {
		resp.Body.Results = append(resp.Body.Results, SearchResult{
			Short: h.shortURL(hit.Code),
			Long:  hit.LongURL,
		})
	}

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	if !base58.IsValid(req.Code) {
		return nil, notFound(req.Code)
	}

	longURL, err := h.links.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, h.httpError(err, req.Code)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLAccessedEvent{
		Code:       req.Code,
		AccessedAt: time.Now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err = h.publishURLAccessed(event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return &RedirectResponse{
		Status:   http.StatusMovedPermanently,
		Location: longURL,
	}, nil
}

func (h *URLHandler) shortURL(code shortener.Code) string {
	return fmt.Sprintf("%s/%s", h.baseURL, code)
}

func (h *URLHandler) linkBody(link *shortener.Link) LinkBody {
	body := LinkBody{
		Code:  string(link.Code),
		Short: h.shortURL(link.Code),
		Long:  link.LongURL,
		Views: link.Views,
	}

	if !link.CreatedAt.IsZero() {
		body.CreatedAt = &link.CreatedAt
	}

	if !link.ExpiresAt.IsZero() {
		body.ExpiresAt = &link.ExpiresAt
	}

	return body
}

// httpError maps service errors onto status codes. Unexpected errors are
// logged and hidden from the client.
func (h *URLHandler) httpError(err error, code string) error {
	switch {
	case shortener.IsValidation(err):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrNotFound):
		return notFound(code)
	case errors.Is(err, shortener.ErrPartialDelete):
		return huma.Error500InternalServerError(
			fmt.Sprintf("link %q was deleted but its access history could not be removed", code))
	default:
		h.logger.Error("request failed", zap.String("code", code), zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}

func notFound(code string) error {
	return huma.Error404NotFound(fmt.Sprintf("Link %q not found.", code))
}
