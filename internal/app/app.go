// Package app builds and runs the miner's dependency graph.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/steamahead/jobminer/internal/api"
	"github.com/steamahead/jobminer/internal/archive"
	"github.com/steamahead/jobminer/internal/checkpoint"
	"github.com/steamahead/jobminer/internal/clock/system"
	"github.com/steamahead/jobminer/internal/config"
	"github.com/steamahead/jobminer/internal/extract"
	"github.com/steamahead/jobminer/internal/fetch"
	"github.com/steamahead/jobminer/internal/id/uuid"
	"github.com/steamahead/jobminer/internal/logging"
	"github.com/steamahead/jobminer/internal/metrics"
	"github.com/steamahead/jobminer/internal/policy/ratelimit"
	"github.com/steamahead/jobminer/internal/progress"
	progresssinks "github.com/steamahead/jobminer/internal/progress/sinks"
	"github.com/steamahead/jobminer/internal/schedule"
	"github.com/steamahead/jobminer/internal/scrape"
	"github.com/steamahead/jobminer/internal/sites"
	memstore "github.com/steamahead/jobminer/internal/storage/memory"
	pgstore "github.com/steamahead/jobminer/internal/storage/postgres"
	"github.com/steamahead/jobminer/internal/store"
)

// App contains the application's dependencies.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	pool  *pgxpool.Pool
	redis *redis.Client

	listings    scrape.ListingStore
	runs        store.RunRepository
	hub         *progress.Hub
	registry    *sites.Registry
	fetchers    map[string]*fetch.Client
	coordinator *scrape.Coordinator
	scheduler   *schedule.Scheduler
	apiServer   *api.Server
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	a := &App{cfg: cfg, logger: logger}
	a.logger.Info("building application dependencies")

	if err := a.setupStores(ctx); err != nil {
		return nil, err
	}
	checkpoints, err := a.setupCheckpoints(ctx)
	if err != nil {
		a.closePool()
		return nil, err
	}
	a.setupProgress(ctx)
	archiver, err := a.setupArchive()
	if err != nil {
		a.closePool()
		return nil, err
	}
	if err := a.setupSites(); err != nil {
		a.closePool()
		return nil, err
	}

	a.coordinator = scrape.NewCoordinator(scrape.Config{
		MaxPages:      cfg.Crawler.MaxPages,
		ChunkSize:     cfg.Crawler.ChunkSize,
		Cooldown:      cfg.Crawler.Cooldown(),
		PreseedWindow: cfg.Crawler.PreseedWindow(),
	}, checkpoints, a.listings, system.New(), uuid.NewGenerator(), a.hub, archiver, logger.Named("scrape"))

	a.apiServer = api.NewServer(a.runs, a.readiness(), api.Config{
		APIKey:         cfg.Server.APIKey,
		RequestTimeout: cfg.Server.RequestTimeout(),
	}, logger.Named("api"))

	a.scheduler = schedule.New(schedule.Config{
		Spec:       cfg.Schedule.Spec,
		Sources:    cfg.EnabledSources(),
		RunOnStart: cfg.Schedule.RunOnStart,
	}, a, logger.Named("schedule"))

	return a, nil
}

// RunSource crawls one source end to end. It implements schedule.Runner.
func (a *App) RunSource(ctx context.Context, source string) error {
	adapter, ok := a.registry.Get(source)
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}
	fetcher, ok := a.fetchers[source]
	if !ok {
		return fmt.Errorf("no fetch client for source %q", source)
	}
	_, err := a.coordinator.Run(ctx, source, adapter, fetcher)
	return err
}

// RunOnce crawls the given sources sequentially; with none given it crawls
// every enabled source. Used by the one-shot CLI mode.
func (a *App) RunOnce(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		sources = a.cfg.EnabledSources()
	}
	for _, source := range sources {
		if err := a.RunSource(ctx, source); err != nil {
			return fmt.Errorf("crawl %s: %w", source, err)
		}
	}
	return nil
}

// Run starts the scheduler and the ops server, then blocks until the context
// is canceled or a termination signal arrives. The caller still owns Close.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.scheduler.Stop()
	return nil
}

// Close flushes the hub and releases held connections.
func (a *App) Close(ctx context.Context) error {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis client close failed", zap.Error(err))
		}
	}
	a.closePool()
	a.logger.Info("shutdown complete")
	if err := a.logger.Sync(); err != nil {
		// Best effort; stderr sync commonly fails on ttys.
		_ = err
	}
	return nil
}

func (a *App) closePool() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

func (a *App) setupStores(ctx context.Context) error {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("no database dsn configured, using in-memory stores")
		a.listings = memstore.NewListingStore()
		a.runs = memstore.NewRunStore()
		return nil
	}

	pool, err := pgstore.Connect(ctx, pgstore.Config{
		DSN:             a.cfg.Database.DSN,
		MaxConns:        int32(a.cfg.Database.MaxConns),
		MinConns:        int32(a.cfg.Database.MinConns),
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime(),
	})
	if err != nil {
		return fmt.Errorf("postgres init failed: %w", err)
	}
	a.pool = pool

	if a.cfg.Database.Migrate {
		if err := pgstore.Migrate(ctx, pool); err != nil {
			a.closePool()
			return fmt.Errorf("postgres migrate failed: %w", err)
		}
	}

	listings, err := pgstore.NewListingStore(pool)
	if err != nil {
		a.closePool()
		return fmt.Errorf("listing store init failed: %w", err)
	}
	runs, err := pgstore.NewRunStore(pool)
	if err != nil {
		a.closePool()
		return fmt.Errorf("run store init failed: %w", err)
	}
	a.listings = listings
	a.runs = runs
	a.logger.Info("postgres stores initialized",
		zap.Int("max_conns", a.cfg.Database.MaxConns),
		zap.Bool("migrated", a.cfg.Database.Migrate),
	)
	return nil
}

func (a *App) setupCheckpoints(ctx context.Context) (*checkpoint.Store, error) {
	var kv checkpoint.KV
	switch a.cfg.Checkpoint.Backend {
	case "redis":
		opts, err := redis.ParseURL(a.cfg.Checkpoint.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse checkpoint redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		redisKV, err := checkpoint.NewRedisKV(ctx, a.redis)
		if err != nil {
			return nil, fmt.Errorf("redis checkpoint init failed: %w", err)
		}
		kv = redisKV
		a.logger.Info("using redis checkpoint backend")
	case "file":
		fileKV, err := checkpoint.NewFileKV(a.cfg.Checkpoint.Dir)
		if err != nil {
			return nil, fmt.Errorf("file checkpoint init failed: %w", err)
		}
		kv = fileKV
		a.logger.Info("using file checkpoint backend", zap.String("dir", a.cfg.Checkpoint.Dir))
	default:
		kv = checkpoint.NewMemoryKV()
		a.logger.Info("using in-memory checkpoint backend")
	}
	return checkpoint.NewStore(kv, a.logger.Named("checkpoint")), nil
}

func (a *App) setupProgress(ctx context.Context) {
	if !a.cfg.Progress.Enabled {
		a.logger.Info("progress tracking disabled")
		return
	}

	var sinkList []progress.Sink
	if a.runs != nil {
		sinkList = append(
			sinkList,
			progresssinks.NewStoreSink(a.runs, a.logger.Named("progress_store")),
		)
	}
	if a.cfg.Progress.LogEnabled {
		sinkList = append(
			sinkList,
			progresssinks.NewLogSink(a.logger.Named("progress_log")),
		)
	}
	promSink, err := progresssinks.NewPrometheusSink(nil)
	if err != nil {
		a.logger.Warn("prometheus sink init failed", zap.Error(err))
	} else {
		sinkList = append(sinkList, promSink)
	}
	if len(sinkList) == 0 {
		a.logger.Warn("progress tracking enabled but no sinks configured")
		return
	}

	hubCfg := progress.Config{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.Batch.MaxEvents,
		MaxBatchWait:   a.cfg.Progress.Batch.MaxBatchWait(),
		SinkTimeout:    a.cfg.Progress.SinkTimeout(),
		BaseContext:    ctx,
		Logger:         a.logger.Named("progress_hub"),
	}
	a.hub = progress.NewHub(hubCfg, sinkList...)
	a.logger.Info("progress hub initialized",
		zap.Int("buffer_size", hubCfg.BufferSize),
		zap.Int("max_batch_events", hubCfg.MaxBatchEvents),
		zap.Duration("max_batch_wait", hubCfg.MaxBatchWait),
		zap.Int("sinks", len(sinkList)),
	)
}

func (a *App) setupArchive() (scrape.Archiver, error) {
	if !a.cfg.Archive.Enabled {
		return nil, nil
	}
	fs, err := archive.NewFS(a.cfg.Archive.Dir, a.cfg.Archive.MaxBytes, system.New(), a.logger.Named("archive"))
	if err != nil {
		return nil, fmt.Errorf("archive init failed: %w", err)
	}
	a.logger.Info("archive enabled", zap.String("dir", a.cfg.Archive.Dir))
	return fs, nil
}

func (a *App) setupSites() error {
	taxonomy := extract.DefaultTaxonomy()
	if a.cfg.Sites.TaxonomyFile != "" {
		loaded, err := extract.LoadTaxonomyFile(a.cfg.Sites.TaxonomyFile)
		if err != nil {
			return fmt.Errorf("taxonomy init failed: %w", err)
		}
		taxonomy = loaded
		a.logger.Info("taxonomy loaded", zap.String("file", a.cfg.Sites.TaxonomyFile))
	}

	var adapters []scrape.SiteAdapter
	if a.cfg.Sites.Pracuj.Enabled {
		adapters = append(adapters, sites.NewPracuj(sites.PracujConfig{
			SearchURL: a.cfg.Sites.Pracuj.SearchURL,
		}, taxonomy))
	}
	if a.cfg.Sites.Justjoin.Enabled {
		adapters = append(adapters, sites.NewJustjoin(sites.JustjoinConfig{
			SearchURL: a.cfg.Sites.Justjoin.SearchURL,
			PageSize:  a.cfg.Sites.Justjoin.PageSize,
		}, taxonomy))
	}
	if len(adapters) == 0 {
		return errors.New("no site adapters enabled")
	}

	registry, err := sites.NewRegistry(adapters...)
	if err != nil {
		return fmt.Errorf("site registry init failed: %w", err)
	}
	a.registry = registry

	// One limiter across every source keeps the total outbound rate bounded
	// no matter how many boards are enabled.
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerWindow: a.cfg.Crawler.RequestsPerSecond,
	})
	a.fetchers = make(map[string]*fetch.Client, len(adapters))
	for _, adapter := range adapters {
		name := adapter.Name()
		a.fetchers[name] = fetch.New(fetch.Config{
			Source:         name,
			UserAgent:      a.cfg.Crawler.UserAgent,
			AcceptLanguage: a.cfg.Crawler.AcceptLanguage,
			Timeout:        a.cfg.Crawler.Timeout(),
			JitterMin:      a.cfg.Crawler.JitterMin(),
			JitterMax:      a.cfg.Crawler.JitterMax(),
			MinBodyBytes:   a.cfg.Crawler.MinBodyBytes,
			StubMarkers:    a.cfg.Crawler.StubMarkers,
			MaxAttempts:    a.cfg.Crawler.MaxRetries,
			BackoffBase:    a.cfg.Crawler.BackoffInitial(),
			BackoffMax:     a.cfg.Crawler.BackoffMax(),
			RespectRobots:  a.cfg.Crawler.RespectRobots,
		}, limiter, a.logger.Named("fetch").With(zap.String("source", name)))
	}

	a.logger.Info("site adapters initialized", zap.Strings("sources", registry.Names()))
	return nil
}

func (a *App) readiness() api.ReadyFunc {
	if a.pool == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	}
}
