//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	kafkaadapter "github.com/bcgov/sfms-advisory/internal/adapter/kafka"
	"github.com/bcgov/sfms-advisory/internal/config"
	"github.com/bcgov/sfms-advisory/internal/domain"
	"github.com/bcgov/sfms-advisory/internal/observability"
	"github.com/bcgov/sfms-advisory/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testTriggerTopic    = "test-run-triggers"
	testCompletionTopic = "test-run-completed"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka broker in a container and returns
// its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("advisory-test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, groupSuffix string) *config.Config {
	return &config.Config{
		KafkaBrokers:         []string{broker},
		KafkaTriggerTopic:    testTriggerTopic,
		KafkaCompletionTopic: testCompletionTopic,
		KafkaGroupID:         fmt.Sprintf("test-%s-%d", groupSuffix, time.Now().UnixNano()),
	}
}

// readCompletion reads one completion event from the sink topic.
func readCompletion(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.RunCompleted, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from completion topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var completed domain.RunCompleted
	require.NoError(t, json.Unmarshal(msg.Value, &completed), "unmarshal completion message")
	return completed, headers
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader and
// kafka.Writer correctly round-trip trigger and completion messages
// through a real broker.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTriggerTopic)
	createTopic(t, broker, testCompletionTopic)

	cfg := testConfig(broker, "reader")

	trigger := domain.RunTrigger{
		RunType:     "forecast",
		RunDatetime: time.Date(2024, 8, 15, 17, 0, 0, 0, time.UTC),
		ForDate:     "2024-08-16",
	}
	payload, err := json.Marshal(trigger)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testTriggerTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("trigger-key"),
		Value: payload,
	}))

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	raw, err := reader.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("trigger-key"), raw.Key)
	assert.JSONEq(t, string(payload), string(raw.Value))
	assert.Equal(t, testTriggerTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	completed := domain.RunCompleted{
		RunID:       42,
		RunType:     domain.RunTypeForecast,
		RunDatetime: trigger.RunDatetime,
		ForDate:     trigger.ForDate,
		RowCounts:   map[domain.StatFamily]int{domain.StatFamilyHighHFI: 12},
		DurationSec: 1.5,
		CompletedAt: time.Date(2024, 8, 15, 17, 5, 0, 0, time.UTC),
	}
	require.NoError(t, writer.PublishCompletion(ctx, completed))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testCompletionTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got, headers := readCompletion(ctx, t, consumer)
	assert.Equal(t, int64(42), got.RunID)
	assert.Equal(t, domain.RunTypeForecast, got.RunType)
	assert.Equal(t, "2024-08-16", got.ForDate)
	assert.Equal(t, 12, got.RowCounts[domain.StatFamilyHighHFI])
	assert.Equal(t, "forecast", headers["run_type"])
	_, err = time.Parse(time.RFC3339, headers["completed_at"])
	assert.NoError(t, err, "completed_at should be valid RFC3339")
}

// recordingExecutor stands in for the zonal pipeline so the test
// isolates the trigger loop and broker wiring.
type recordingExecutor struct {
	mu         sync.Mutex
	identities []domain.RunIdentity
}

func (e *recordingExecutor) Execute(_ context.Context, identity domain.RunIdentity) (pipeline.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.identities = append(e.identities, identity)
	return pipeline.Result{
		RunID: int64(len(e.identities)),
		RowCounts: map[domain.StatFamily]int{
			domain.StatFamilyHighHFI: 2,
			domain.StatFamilyTPI:     1,
		},
	}, nil
}

// TestTriggerConsumerEndToEnd wires the consumer with real Kafka on both
// sides: a malformed trigger is skipped and a valid trigger produces a
// completion event on the sink topic.
func TestTriggerConsumerEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTriggerTopic)
	createTopic(t, broker, testCompletionTopic)

	cfg := testConfig(broker, "consumer")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testTriggerTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	valid, err := json.Marshal(domain.RunTrigger{
		RunType:     "actual",
		RunDatetime: time.Date(2024, 8, 15, 23, 0, 0, 0, time.UTC),
		ForDate:     "2024-08-15",
	})
	require.NoError(t, err)
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: valid},
	))

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	executor := &recordingExecutor{}
	consumer := pipeline.NewConsumer(reader, writer, executor,
		discardLogger(), observability.NewMetricsForTesting())

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(consumerCtx) }()

	sink := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testCompletionTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = sink.Close() })

	completed, _ := readCompletion(ctx, t, sink)
	assert.Equal(t, domain.RunTypeActual, completed.RunType)
	assert.Equal(t, "2024-08-15", completed.ForDate)
	assert.Equal(t, 2, completed.RowCounts[domain.StatFamilyHighHFI])

	// The malformed message never reached the pipeline.
	executor.mu.Lock()
	require.Len(t, executor.identities, 1)
	assert.Equal(t, domain.RunTypeActual, executor.identities[0].RunType)
	executor.mu.Unlock()

	// No second completion arrives: the poison pill was skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = sink.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no completion for the malformed trigger")

	consumerCancel()
	require.NoError(t, <-errCh)
}
