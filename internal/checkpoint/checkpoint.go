// Package checkpoint persists the resume page for each crawler so an
// interrupted or scheduled run picks up where the previous one stopped
// instead of re-walking the whole board.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/logging"
)

// ErrNotFound is returned by a KV when the key has never been written.
var ErrNotFound = errors.New("checkpoint: not found")

// KV is the minimal storage surface a checkpoint backend must provide.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// record is the stored payload. SavedAt is informational; only Page drives
// resume behavior.
type record struct {
	Page    int       `json:"page"`
	SavedAt time.Time `json:"saved_at"`
}

// Store reads and writes crawl checkpoints through a KV backend. A missing,
// unreadable, or corrupt checkpoint degrades to page 1: restarting a crawl
// from the top costs minutes, while refusing to start costs the whole run.
type Store struct {
	kv     KV
	logger *zap.Logger
}

// NewStore wraps kv. logger may be nil.
func NewStore(kv KV, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logging.OrNop(logger)}
}

// Load returns the page the crawler should resume from, defaulting to 1.
func (s *Store) Load(ctx context.Context, crawlerID string) int {
	raw, err := s.kv.Get(ctx, crawlerID)
	if errors.Is(err, ErrNotFound) {
		return 1
	}
	if err != nil {
		s.logger.Warn("checkpoint read failed, starting from page 1",
			zap.String("crawler_id", crawlerID),
			zap.Error(err),
		)
		return 1
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn("checkpoint corrupt, starting from page 1",
			zap.String("crawler_id", crawlerID),
			zap.Error(err),
		)
		return 1
	}
	if rec.Page < 1 {
		return 1
	}
	return rec.Page
}

// Save records the next page to resume from.
func (s *Store) Save(ctx context.Context, crawlerID string, page int) error {
	raw, err := json.Marshal(record{Page: page, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := s.kv.Put(ctx, crawlerID, raw); err != nil {
		return fmt.Errorf("write checkpoint %q: %w", crawlerID, err)
	}
	return nil
}
