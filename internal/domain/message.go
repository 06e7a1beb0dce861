package domain

import (
	"context"
	"time"
)

// RawMessage is a trigger message as fetched from the broker, before
// decoding. Commit acknowledges the offset once the message has been
// handled, including the malformed-skip path.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
	Commit    func(ctx context.Context) error
}
