// Package schedule triggers periodic crawl runs for configured sources.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/logging"
)

// Runner executes one crawl run for a source.
type Runner interface {
	RunSource(ctx context.Context, source string) error
}

// Config tunes the cron loop.
type Config struct {
	// Spec is a cron expression or descriptor such as "@every 6h".
	Spec string
	// Sources are the crawler names triggered on every tick.
	Sources []string
	// RunOnStart fires one crawl right away instead of waiting for the
	// first tick.
	RunOnStart bool
}

// Scheduler wraps robfig/cron. Each source gets its own entry so a slow
// board does not delay the others; a tick that lands while the previous run
// of the same source is still active is skipped.
type Scheduler struct {
	cfg    Config
	runner Runner
	cron   *cron.Cron
	logger *zap.Logger

	mu     sync.Mutex
	active map[string]bool
	wg     sync.WaitGroup
}

// New constructs a stopped scheduler.
func New(cfg Config, runner Runner, logger *zap.Logger) *Scheduler {
	logger = logging.OrNop(logger)
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron: cron.New(
			cron.WithLogger(cronLogger{logger.Named("cron").Sugar()}),
			cron.WithChain(cron.Recover(cronLogger{logger.Named("cron").Sugar()})),
		),
		logger: logger,
		active: make(map[string]bool),
	}
}

// Start registers one entry per source and starts the cron loop. The given
// context is handed to every run it triggers.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.cfg.Sources) == 0 {
		return errors.New("no sources configured")
	}
	for _, source := range s.cfg.Sources {
		source := source
		if _, err := s.cron.AddFunc(s.cfg.Spec, func() {
			s.runOnce(ctx, source)
		}); err != nil {
			return fmt.Errorf("schedule %s with spec %q: %w", source, s.cfg.Spec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("spec", s.cfg.Spec),
		zap.Strings("sources", s.cfg.Sources),
		zap.Bool("run_on_start", s.cfg.RunOnStart),
	)

	if s.cfg.RunOnStart {
		for _, source := range s.cfg.Sources {
			source := source
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.runOnce(ctx, source)
			}()
		}
	}
	return nil
}

// Stop halts new ticks and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context, source string) {
	if ctx.Err() != nil {
		return
	}
	if !s.tryAcquire(source) {
		s.logger.Warn("previous run still active, skipping tick", zap.String("source", source))
		return
	}
	defer s.release(source)

	if err := s.runner.RunSource(ctx, source); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("run canceled", zap.String("source", source))
			return
		}
		s.logger.Error("scheduled run failed", zap.String("source", source), zap.Error(err))
	}
}

func (s *Scheduler) tryAcquire(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[source] {
		return false
	}
	s.active[source] = true
	return true
}

func (s *Scheduler) release(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, source)
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
