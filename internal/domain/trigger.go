package domain

import (
	"errors"
	"fmt"
	"time"
)

// ForDateLayout is the wire format for calendar dates in trigger and
// completion messages.
const ForDateLayout = "2006-01-02"

// RunTrigger is the message SFMS publishes when a day's rasters have
// landed in object storage. Fields stay in wire form here; Identity
// parses and validates them once at the boundary.
type RunTrigger struct {
	RunType     string    `json:"run_type"`
	RunDatetime time.Time `json:"run_datetime"`
	ForDate     string    `json:"for_date"`
}

// Identity parses the trigger into a validated run identity (id not yet
// resolved).
func (t RunTrigger) Identity() (RunIdentity, error) {
	runType, err := ParseRunType(t.RunType)
	if err != nil {
		return RunIdentity{}, err
	}
	if t.RunDatetime.IsZero() {
		return RunIdentity{}, errors.New("trigger missing run_datetime")
	}
	forDate, err := time.ParseInLocation(ForDateLayout, t.ForDate, time.UTC)
	if err != nil {
		return RunIdentity{}, fmt.Errorf("invalid for_date %q: %w", t.ForDate, err)
	}
	return RunIdentity{
		RunType:     runType,
		RunDatetime: t.RunDatetime.UTC(),
		ForDate:     forDate,
	}, nil
}

// RunCompleted is published to the completion topic after a successful
// pipeline invocation, for downstream reporting consumers.
type RunCompleted struct {
	RunID       int64              `json:"run_id"`
	RunType     RunType            `json:"run_type"`
	RunDatetime time.Time          `json:"run_datetime"`
	ForDate     string             `json:"for_date"`
	RowCounts   map[StatFamily]int `json:"row_counts"`
	DurationSec float64            `json:"duration_seconds"`
	CompletedAt time.Time          `json:"completed_at"`
}
