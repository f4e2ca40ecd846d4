// Package archive snapshots raw detail-page HTML so listings can be
// re-parsed after selector changes without re-fetching.
package archive

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/clock/system"
	"github.com/steamahead/jobminer/internal/logging"
)

const defaultMaxBytes = 2 << 20

// Clock supplies the day used in snapshot paths.
type Clock interface {
	Now() time.Time
}

// FS writes one snapshot per detail page under
// <root>/<source>/<yyyy-mm-dd>/<sha256(url)>.html. Re-fetching the same URL
// on the same day overwrites the previous snapshot.
type FS struct {
	root     string
	maxBytes int64
	clock    Clock
	logger   *zap.Logger
}

// NewFS returns an archive rooted at dir. maxBytes caps a single snapshot;
// zero selects the default.
func NewFS(root string, maxBytes int64, clk Clock, logger *zap.Logger) (*FS, error) {
	if root == "" {
		return nil, errors.New("archive root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", root, err)
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if clk == nil {
		clk = system.New()
	}
	return &FS{
		root:     root,
		maxBytes: maxBytes,
		clock:    clk,
		logger:   logging.OrNop(logger),
	}, nil
}

// Save writes the body to disk.
func (s *FS) Save(ctx context.Context, source, url string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if len(body) == 0 {
		return errors.New("empty page body")
	}
	if int64(len(body)) > s.maxBytes {
		return fmt.Errorf("page size %d exceeds max %d", len(body), s.maxBytes)
	}

	target := s.snapshotPath(source, url, s.clock.Now())
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating snapshot dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, body, 0o600); err != nil {
		return fmt.Errorf("writing snapshot to %s: %w", target, err)
	}
	s.logger.Debug("archived page",
		zap.String("source", source),
		zap.String("url", url),
		zap.String("path", target),
	)
	return nil
}

func (s *FS) snapshotPath(source, url string, day time.Time) string {
	urlHash := fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
	return filepath.Join(
		s.root,
		sanitizeSegment(source),
		day.Format("2006-01-02"),
		fmt.Sprintf("%s.html", urlHash),
	)
}

func sanitizeSegment(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(name)
}
