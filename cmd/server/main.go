// Package main provides the entry point for the prompt version store
// and retrieval engine's HTTP server: it wires configuration, both
// Store backends, the vector index, the embedding provider, the
// two-tier cache, the precise clock, the update queue, the
// PromptManager orchestrator, and (when a hosted backend is also
// configured) the sync engine, behind a thin gin transport.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"brokle/internal/config"
	cacheDomain "brokle/internal/core/domain/cache"
	"brokle/internal/core/domain/embedding"
	promptDomain "brokle/internal/core/domain/prompt"
	"brokle/internal/core/domain/sync"
	promptSvc "brokle/internal/core/services/prompt"
	syncSvc "brokle/internal/core/services/sync"
	"brokle/internal/infrastructure/cache"
	"brokle/internal/infrastructure/database"
	embeddingInfra "brokle/internal/infrastructure/embedding"
	precisetimeInfra "brokle/internal/infrastructure/precisetime"
	"brokle/internal/infrastructure/repository/prompt"
	vectorInfra "brokle/internal/infrastructure/vector"
	transporthttp "brokle/internal/transport/http"
	handlerprompt "brokle/internal/transport/http/handlers/prompt"
	"brokle/internal/version"
	"brokle/pkg/logging"
	"brokle/pkg/ulid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.NewLoggerWithFormat(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logger.Info("starting prompt store server", "version", version.Get(), "environment", cfg.Environment)

	localDB, localCloser, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if err := prompt.Migrate(localDB); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	localStore := prompt.NewStore(localDB, logger)

	vectorIndex := vectorInfra.NewLinearIndex(localDB, logger)
	embedder := embeddingInfra.NewProvider(cfg.Vector, logger)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if cfg.Vector.Enabled {
		dim, err := embedder.Dimension(bootCtx)
		if err != nil {
			dim = embedding.DefaultDimension
		}
		if err := vectorIndex.EnsureIndex(bootCtx, dim); err != nil {
			logger.Error("failed to initialize vector index", "error", err)
			os.Exit(1)
		}
	}
	cancelBoot()

	cacheStack, closeCache := buildCache(context.Background(), cfg, logger)

	clock := precisetimeInfra.NewHTTPSource(
		cfg.Server.PreciseTimeProbeURL,
		time.Duration(cfg.Server.PreciseTimeIntervalSeconds)*time.Second,
		logger,
	)
	clock.Start()

	renderer := promptSvc.NewRenderer()

	manager := promptSvc.NewManager(localStore, vectorIndex, embedder, cacheStack, clock, renderer, cfg.Vector.Enabled, logger)

	queue := promptSvc.NewUpdateQueue(
		manager,
		cfg.Concurrency.QueueMaxSize,
		time.Duration(cfg.Server.QueueItemTimeoutSeconds)*time.Second,
		logger,
	)
	manager.SetQueue(queue)
	queue.Start()

	syncEngine, hostedCloser := buildSyncEngine(cfg, logger, localStore, clock)

	handler := handlerprompt.NewHandler(logger, manager, syncEngine)
	router := transporthttp.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	queue.Stop()
	clock.Stop()
	_ = cacheStack.Close()
	closeCache()
	if hostedCloser != nil {
		hostedCloser()
	}
	localCloser()

	fmt.Println("server stopped")
}

// openDatabase dials the Store backend selected by database.type and
// returns its *gorm.DB plus a close function.
func openDatabase(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	switch cfg.Database.Type {
	case config.BackendHosted:
		hosted, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return hosted.DB, func() { _ = hosted.Close() }, nil
	case config.BackendEmbedded:
		embedded, err := database.NewSQLiteDB(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return embedded.DB, func() { _ = embedded.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database.type %q", cfg.Database.Type)
	}
}

// buildCache wires cache.TwoTier: L1 is always present (memory
// or filesystem per cache.type), L2 and the invalidation bus are only
// wired when redis.url is configured. If cache.enabled is false, L2 is
// skipped and L1 is a one-entry memory tier whose entries expire a
// nanosecond after they are written, so reads miss — simpler than a
// second Cache implementation and exercises the same code path.
func buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cacheDomain.Cache, func()) {
	var l1 cacheDomain.L1
	switch {
	case !cfg.Cache.Enabled:
		l1 = cache.NewMemoryL1(1, time.Nanosecond)
	case cfg.Cache.Type == config.CacheFilesystem:
		l1 = cache.NewFilesystemL1(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	default:
		l1 = cache.NewMemoryL1(cfg.Cache.MaxCapacity, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}

	var l2 cacheDomain.L2
	var bus cacheDomain.InvalidationBus
	closeFn := func() {}

	if cfg.Cache.Enabled && cfg.Redis.URL != "" {
		redisDB, err := database.NewRedisDB(cfg, logger)
		if err != nil {
			logger.Warn("cache: redis.url configured but unreachable, running L1-only", "error", err)
		} else {
			l2 = cache.NewRedisL2(redisDB, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
			bus = cache.NewRedisInvalidationBus(redisDB.Client, ulid.New().String(), logger)
			closeFn = func() { _ = redisDB.Close() }
		}
	}

	return cache.NewTwoTier(ctx, l1, l2, bus, logger), closeFn
}

// buildSyncEngine dials a hosted backend for sync when the process's
// primary backend is embedded and a hosted connection is also
// configured (both a local and a remote backend). Returns a
// nil Engine and no-op closer when sync is not applicable.
func buildSyncEngine(cfg *config.Config, logger *slog.Logger, localStore promptDomain.Store, clock *precisetimeInfra.HTTPSource) (sync.Engine, func()) {
	if cfg.Database.Type != config.BackendEmbedded || !cfg.Database.HostedConfigured() {
		return nil, nil
	}

	hosted, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Warn("hosted backend configured but unreachable, sync disabled", "error", err)
		return nil, nil
	}
	if err := prompt.Migrate(hosted.DB); err != nil {
		logger.Warn("hosted backend migration failed, sync disabled", "error", err)
		_ = hosted.Close()
		return nil, nil
	}

	hostedStore := prompt.NewStore(hosted.DB, logger)
	logger.Info("sync engine enabled: embedded local + hosted remote")
	return syncSvc.NewEngine(localStore, hostedStore, clock, logger), func() { _ = hosted.Close() }
}
