package domain

import (
	"fmt"
	"strings"
	"time"
)

// RunType distinguishes forecast runs (rasters produced ahead of the
// for-date) from actual runs (produced from observed weather). It is a
// closed enum: parse external input once with ParseRunType and switch on
// the constants everywhere else.
type RunType string

const (
	RunTypeForecast RunType = "forecast"
	RunTypeActual   RunType = "actual"
)

// ParseRunType normalizes an externally supplied run type string. SFMS
// job parameters have historically arrived in mixed casings, so parsing
// is case-insensitive, but only the two variants are accepted.
func ParseRunType(s string) (RunType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RunTypeForecast):
		return RunTypeForecast, nil
	case string(RunTypeActual):
		return RunTypeActual, nil
	}
	return "", fmt.Errorf("unknown run type %q", s)
}

// RunIdentity is one computation epoch: the unique triple plus its
// durable database id once resolved.
type RunIdentity struct {
	ID          int64
	RunType     RunType
	RunDatetime time.Time
	ForDate     time.Time // calendar date, normalized to UTC midnight
}

// NormalizeForDate truncates a timestamp to its UTC calendar date, the
// canonical for-date representation.
func NormalizeForDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (r RunIdentity) String() string {
	return fmt.Sprintf("%s run %s for %s",
		r.RunType, r.RunDatetime.UTC().Format(time.RFC3339), r.ForDate.Format("2006-01-02"))
}

// StatFamily scopes the already-computed guard: each statistic family is
// checked and persisted independently for a run identity.
type StatFamily string

const (
	StatFamilyHighHFI      StatFamily = "high_hfi"
	StatFamilyFuelTypeArea StatFamily = "fuel_type_area"
	StatFamilyElevation    StatFamily = "elevation"
	StatFamilyTPI          StatFamily = "tpi"
)

// StatFamilies lists every family a full pipeline invocation computes.
var StatFamilies = []StatFamily{
	StatFamilyHighHFI,
	StatFamilyFuelTypeArea,
	StatFamilyElevation,
	StatFamilyTPI,
}
