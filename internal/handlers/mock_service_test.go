package handlers_test

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com/"

// mockService is a test double for LinkService that returns configured errors.
type mockService struct {
	err  error
	link *shortener.Link
}

func (m *mockService) CreateLink(_ context.Context, _ string, _ time.Duration) (*shortener.Link, error) {
	return m.link, m.err
}

func (m *mockService) GetLink(_ context.Context, _ shortener.Code) (*shortener.Link, error) {
	return m.link, m.err
}

func (m *mockService) DeleteLink(_ context.Context, _ shortener.Code) error {
	return m.err
}

func (m *mockService) Search(_ context.Context, _ string) ([]shortener.Summary, error) {
	return nil, m.err
}

func (m *mockService) Timeline(_ context.Context, _ shortener.Code, _, _ time.Time) ([]shortener.Sample, error) {
	return nil, m.err
}

func (m *mockService) Resolve(_ context.Context, _ shortener.Code) (string, error) {
	return testURL, m.err
}
