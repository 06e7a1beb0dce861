package kafka

import (
	"context"
	"log/slog"

	"github.com/bcgov/sfms-advisory/internal/config"
	"github.com/bcgov/sfms-advisory/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes run trigger messages from the trigger topic.
// It implements pipeline.TriggerSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the trigger topic.
// Offsets are committed explicitly via RawMessage.Commit so a trigger
// is only acknowledged after the run has been handled.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.KafkaTriggerTopic,
	})
	return &Reader{reader: r, logger: logger}
}

// Fetch blocks until the next trigger message arrives or the context is
// cancelled. Triggers arrive at most a few times per day, so messages
// are fetched one at a time rather than batched.
func (r *Reader) Fetch(ctx context.Context) (domain.RawMessage, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.RawMessage{}, err
	}
	raw := mapMessageToRaw(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRaw copies broker metadata into the domain message type.
func mapMessageToRaw(msg kafkago.Message) domain.RawMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawMessage{
		Key:       msg.Key,
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Headers:   headers,
	}
}
