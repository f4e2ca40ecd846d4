// Package progress defines the event structures emitted by the crawl
// coordinator.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StagePageDone    Stage = "PAGE_DONE"
	StageRunDone     Stage = "RUN_DONE"
	StageRunCanceled Stage = "RUN_CANCELED"
)

// Event captures one milestone of a crawl run.
type Event struct {
	// RunID is the UUID string identifying the run.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Source names the job board the run crawls.
	Source string
	// Page is the resume page on RUN_START and the processed page on
	// PAGE_DONE.
	Page int
	// Stubs counts listing references found on the page; Kept counts those
	// that survived deduplication.
	Stubs int
	Kept  int
	// Records counts persisted listings: per page on PAGE_DONE, run total
	// on the terminal stages.
	Records int
	// Skills counts skill rows written over the whole run (terminal stages).
	Skills int
	// Dur captures run wall time on the terminal stages.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. cancellation text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if _, err := uuid.Parse(e.RunID); err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Source == "" {
		return errors.New("source is required")
	}
	switch e.Stage {
	case StageRunStart, StagePageDone, StageRunDone, StageRunCanceled:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Page < 0 || e.Stubs < 0 || e.Kept < 0 || e.Records < 0 || e.Skills < 0 {
		return errors.New("counters must be >= 0")
	}
	if e.Kept > e.Stubs {
		return errors.New("kept cannot exceed stubs")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID parses the run ID for repositories.
func (e Event) RunUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(e.RunID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse run id: %w", err)
	}
	return id, nil
}
