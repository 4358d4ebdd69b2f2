package messaging_test

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	return m.closeErr
}

// linkVisited is keyed by code, like the analytics events.
type linkVisited struct {
	Code    string `json:"code"`
	Referer string `json:"referer,omitempty"`
}

func (e *linkVisited) MessageKey() string { return e.Code }

// unkeyed carries no key.
type unkeyed struct {
	Note string `json:"note"`
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes the json payload on the topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[linkVisited](mock, "link.visited")

		err := publish(&linkVisited{Code: "2bc", Referer: "https://news.example.com/"})

		require.NoError(t, err)
		assert.Equal(t, "link.visited", mock.topic)
		require.Len(t, mock.messages, 1)
		assert.JSONEq(t, `{"code":"2bc","referer":"https://news.example.com/"}`, string(mock.messages[0].Payload))
		assert.NotEmpty(t, mock.messages[0].UUID)
	})

	t.Run("keyed events carry their key in metadata", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[linkVisited](mock, "link.visited")

		require.NoError(t, publish(&linkVisited{Code: "2bc"}))

		assert.Equal(t, "2bc", mock.messages[0].Metadata.Get(messaging.MetadataKey))
	})

	t.Run("unkeyed events have no key", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[unkeyed](mock, "notes")

		require.NoError(t, publish(&unkeyed{Note: "hi"}))

		assert.Empty(t, mock.messages[0].Metadata.Get(messaging.MetadataKey))
	})

	t.Run("each message gets its own id", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[linkVisited](mock, "link.visited")

		require.NoError(t, publish(&linkVisited{Code: "2bc"}))
		require.NoError(t, publish(&linkVisited{Code: "2bc"}))

		assert.NotEqual(t, mock.messages[0].UUID, mock.messages[1].UUID)
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("stream unavailable")}
		publish := messaging.NewPublishFunc[linkVisited](mock, "link.visited")

		err := publish(&linkVisited{Code: "2bc"})

		assert.EqualError(t, err, "stream unavailable")
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("returns underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Same(t, mock, group.Publisher())
	})

	t.Run("shutdown closes the publisher", func(t *testing.T) {
		group := messaging.NewPublisherGroup(&mockPublisher{})

		require.NoError(t, group.Shutdown())
	})

	t.Run("returns error when close fails", func(t *testing.T) {
		group := messaging.NewPublisherGroup(&mockPublisher{closeErr: errors.New("close error")})

		assert.Error(t, group.Shutdown())
	})
}
