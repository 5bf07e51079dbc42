package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Thagi/paper-scope/internal/app"
	"github.com/Thagi/paper-scope/internal/graph"
	"github.com/Thagi/paper-scope/internal/handlers"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/platform/neo4jdb"
	"github.com/Thagi/paper-scope/internal/server"
	"github.com/Thagi/paper-scope/internal/services"
	"github.com/Thagi/paper-scope/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Graph store
	log.Info("Connecting to Neo4j...")
	neoClient, err := neo4jdb.New(ctx, cfg.Neo4j, log)
	if err != nil {
		log.Fatal("Could not connect to Neo4j", "error", err)
	}
	defer neoClient.Close(ctx)

	repository := graph.NewRepository(neoClient, log)
	if err := repository.EnsureConstraints(ctx); err != nil {
		log.Fatal("Could not ensure graph constraints", "error", err)
	}

	// Cache (optional)
	var cache *services.GraphCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable, running without cache", "error", err)
		} else {
			cache = services.NewGraphCache(rdb, cfg.CacheTTL, log)
		}
	}

	// Services
	log.Info("Setting up services...")
	storage, err := services.NewStorageService(cfg.StorageRoot, log)
	if err != nil {
		log.Fatal("Could not init StorageService", "error", err)
	}
	llmClient, err := services.BuildLLMClient(cfg.LLM)
	if err != nil {
		log.Fatal("Could not init LLM client", "error", err)
	}
	downloader := services.NewDownloader(log)
	sources := []services.TrendingSource{
		services.NewHuggingFaceClient(cfg.HuggingFaceTrendingURL, log),
	}
	ingestion := services.NewIngestionService(sources, downloader, storage, llmClient, repository, cache, cfg.IngestionLimit, log)

	// Handlers
	log.Info("Setting up handlers...")
	papersHandler := handlers.NewPapersHandler(log, repository, storage, llmClient, cache)
	graphsHandler := handlers.NewGraphsHandler(log, repository, cache)
	ingestHandler := handlers.NewIngestHandler(log, ingestion)

	// Scheduler
	scheduler := workers.NewScheduler(log)
	if cfg.ScheduleEnabled {
		if err := scheduler.AddIngestionJob(cfg.IngestCron, func() {
			ingestion.Run(context.Background(), false)
		}); err != nil {
			log.Fatal("Could not schedule ingestion job", "error", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Router
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:  cfg.AllowOrigins,
		PapersHandler: papersHandler,
		GraphsHandler: graphsHandler,
		IngestHandler: ingestHandler,
	})

	log.Info("Server listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
