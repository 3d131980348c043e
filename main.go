package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/stockwatcher/config"
	"sjsage522/stockwatcher/helpers"
	"sjsage522/stockwatcher/internal/crawler"
	"sjsage522/stockwatcher/internal/watch"
	"sjsage522/stockwatcher/logger"
	"sjsage522/stockwatcher/services/cache"
	"sjsage522/stockwatcher/services/exporter"
	"sjsage522/stockwatcher/services/notifier"
	"sjsage522/stockwatcher/services/publisher"
	"sjsage522/stockwatcher/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("store", cfg.BaseURL).
		Strs("watch_list", cfg.WatchList).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting LetsAllter scraper")

	// Set up context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w := worker.NewWorker(
		ctx,
		services.Walker,
		services.Exporter,
		services.Publisher,
		services.Dispatcher,
		cfg.CrawlInterval,
	)

	if err := w.Start(); err != nil {
		log.Error().Err(err).Msg("Worker exited with error")
		return
	}
	log.Info().Msg("Worker exited normally")
}

// Services holds all the initialized services
type Services struct {
	Walker     *crawler.Walker
	Exporter   *exporter.CSVExporter
	Publisher  publisher.Publisher
	Dispatcher *watch.Dispatcher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices wires every component from the validated configuration
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	var pageCache *cache.PageCache
	if cfg.MemcacheAddr != "" && cfg.PageCacheTTL > 0 {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, cfg.HTTPTimeout)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, page cache disabled")
		} else {
			pageCache = cache.NewPageCache(mc, "catalog", cfg.PageCacheTTL)
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	selectors := crawler.DefaultSelectors()
	fetcher := crawler.NewHTTPFetcher(cfg.BaseURL, cfg.CollectionPath, selectors, helpers.NewClient(cfg.HTTPTimeout), pageCache)
	extractor := crawler.NewExtractor(cfg.BaseURL, selectors)
	services.Walker = crawler.NewWalker(fetcher, extractor, cfg.PageDelay,
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(logger.ForCrawler("letsallter")),
	)

	services.Exporter = exporter.NewCSVExporter(cfg.DataDir, "letsallter_products")

	services.Publisher = publisher.NopPublisher{}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, record stream disabled")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	whatsApp, err := notifier.NewWhatsAppNotifier(cfg.Twilio)
	if err != nil {
		return nil, err
	}
	services.Dispatcher = watch.NewDispatcher(whatsApp, watch.NewWatchList(cfg.WatchList...), logger.ForDispatcher())

	return services, nil
}
