package messaging

import (
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const consumerSuffixLength = 8

// NewRedisStreamPublisher publishes messages to Redis streams named after their topic.
func NewRedisStreamPublisher(client redis.UniversalClient, logger *zap.Logger) (*redisstream.Publisher, error) {
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client:     client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		},
		NewLoggerAdapter(logger),
	)
}

// NewRedisStreamSubscriber joins the consumer group with a per-process consumer
// name so several instances can share a stream.
func NewRedisStreamSubscriber(
	client redis.UniversalClient,
	group string,
	logger *zap.Logger,
) (*redisstream.Subscriber, error) {
	consumer, err := ConsumerName()
	if err != nil {
		return nil, err
	}

	return redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: group,
			Consumer:      consumer,
		},
		NewLoggerAdapter(logger.With(zap.String("consumer", consumer))),
	)
}

// ConsumerName returns hostname-suffix, unique per call.
func ConsumerName() (string, error) {
	gen, err := nanoid.Standard(consumerSuffixLength)
	if err != nil {
		return "", err
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "consumer"
	}

	return fmt.Sprintf("%s-%s", host, gen()), nil
}

// LoggerAdapter routes watermill's logging through zap.
type LoggerAdapter struct {
	logger *zap.Logger
}

var _ watermill.LoggerAdapter = (*LoggerAdapter)(nil)

func NewLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{logger: logger}
}

func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info(msg, zapFields(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, zapFields(fields)...)
}

// Trace has no zap level; it is folded into debug.
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, zapFields(fields)...)
}

func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: a.logger.With(zapFields(fields)...)}
}

func zapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}

	return out
}
