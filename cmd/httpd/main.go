package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/api"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/elasticsearch"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/service"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Add service name to all log entries
	log = log.With(logger.String("service", cfg.Service.Name))

	log.Info("Starting property search service",
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug),
	)

	log.Info("Connecting to Elasticsearch", logger.String("url", cfg.Elasticsearch.URL))
	esClient, err := elasticsearch.NewClient(&cfg.Elasticsearch)
	if err != nil {
		log.Error("Failed to create Elasticsearch client", logger.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, &cfg.Postgres, log)
	if err != nil {
		log.Error("Failed to connect to postgres", logger.Error(err))
		return 1
	}
	defer store.Close()

	searchService := service.NewSearchService(esClient, store, cfg, log)
	analyticsService := service.NewAnalyticsService(esClient, cfg, log)
	trendsService := service.NewTrendsService(esClient, cfg, log)
	recommendService := service.NewRecommendationService(esClient, store, cfg, log)
	indexer := service.NewIndexer(esClient, store, &cfg.Elasticsearch, log)

	handler := api.NewHandler(searchService, analyticsService, trendsService, recommendService, indexer, log)
	server := api.NewServer(handler, cfg, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error", logger.Error(err))
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown error", logger.Error(err))
			return 1
		}
	}

	log.Info("Property search service exited cleanly")
	return 0
}
