package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bcgov/sfms-advisory/internal/config"
	"github.com/bcgov/sfms-advisory/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces run-completed messages to the completion topic.
// It implements pipeline.CompletionPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured completion topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaCompletionTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishCompletion serializes and publishes a run-completed event.
func (w *Writer) PublishCompletion(ctx context.Context, completed domain.RunCompleted) error {
	msg, err := serializeToMessage(completed)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RunCompleted into a Kafka message. The
// run identity id keys the message so replays of the same run land on
// the same partition.
func serializeToMessage(completed domain.RunCompleted) (kafkago.Message, error) {
	data, err := json.Marshal(completed)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run completed: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(completed.RunID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_type", Value: []byte(completed.RunType)},
			{Key: "completed_at", Value: []byte(completed.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
