package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blockedby/resolver-os/internal/api"
	"github.com/blockedby/resolver-os/internal/cache"
	"github.com/blockedby/resolver-os/internal/config"
	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/nats"
	"github.com/blockedby/resolver-os/internal/notifier"
	"github.com/blockedby/resolver-os/internal/repository"
	"github.com/blockedby/resolver-os/internal/resolver"
	"github.com/blockedby/resolver-os/internal/scraper"
	"github.com/blockedby/resolver-os/internal/stats"
	"github.com/blockedby/resolver-os/internal/telegram"
)

func main() {
	// .env is optional, env vars win either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting username resolver service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// api keys
	apiKeys, err := config.LoadAPIKeys(cfg.APIKeysFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load api keys")
	}

	// cache, seeded from the persisted snapshot
	store := cache.NewStore()
	cacheRepo, err := repository.NewCacheRepository(cfg.CachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open cache store")
	}
	seed, err := cacheRepo.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load cache snapshot")
	}
	store.Seed(seed)
	log.Info().Int("entries", store.Len()).Msg("cache seeded from disk")

	// telegram client pool
	clients, err := telegram.NewPoolClients(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram clients")
	}

	// notifications: telegram ops channel and/or nats, whatever is configured
	var sinks notifier.Multi
	if cfg.NoticeChannel != "" && len(clients) > 0 {
		sinks = append(sinks, notifier.NewTelegram(clients[0], cfg.NoticeChannel))
	}
	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, event publishing disabled")
		} else {
			defer nc.Close()
			if err := nc.EnsureStream(ctx, "RESOLVER", []string{cfg.NatsSubject}); err != nil {
				log.Warn().Err(err).Msg("failed to ensure nats stream")
			}
			sinks = append(sinks, notifier.NewNATS(nc, cfg.NatsSubject))
		}
	}
	var notify notifier.Notifier = notifier.Nop{}
	if len(sinks) > 0 {
		notify = sinks
	}

	// pool with flood tracking
	callers := make([]telegram.Caller, 0, len(clients))
	for _, c := range clients {
		callers = append(callers, c)
	}
	pool := telegram.NewPool(callers, telegram.NewTracker(), notify)

	// scraper over one shared pooled http client
	httpClient := &http.Client{Timeout: cfg.ScrapeTimeout}
	pageScraper := scraper.New(httpClient, cfg.ScrapeBaseURL)

	// override table
	overrides, err := resolver.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load overrides")
	}

	engine := resolver.New(store, pool, pageScraper, overrides, notify)

	// usage counters with periodic report
	counter := stats.NewCounter()
	go counter.RunReporter(ctx, cfg.ReportInterval, notify)

	// periodic cache persistence
	go runCachePersistence(ctx, store, cacheRepo, cfg.CacheSaveInterval)

	server := api.NewServer(&api.Config{Port: cfg.HTTPPort, APIKeys: apiKeys},
		api.NewHandler(engine, counter, notify))

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	// final snapshot so nothing resolved since the last tick is lost
	if err := cacheRepo.SaveSnapshot(shutdownCtx, store.Snapshot()); err != nil {
		log.Error().Err(err).Msg("final cache snapshot failed")
	}

	log.Info().Msg("resolver service stopped")
}

// runCachePersistence writes the cache snapshot to disk on a fixed interval.
func runCachePersistence(ctx context.Context, store *cache.Store, repo *repository.CacheRepository, interval time.Duration) {
	log := logger.Get()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.SaveSnapshot(ctx, store.Snapshot()); err != nil {
				log.Error().Err(err).Msg("cache snapshot failed")
			}
		}
	}
}
