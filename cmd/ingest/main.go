// One-shot ingestion run, for cron-less deployments and manual backfills.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Thagi/paper-scope/internal/app"
	"github.com/Thagi/paper-scope/internal/graph"
	"github.com/Thagi/paper-scope/internal/platform/logger"
	"github.com/Thagi/paper-scope/internal/platform/neo4jdb"
	"github.com/Thagi/paper-scope/internal/services"
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

	neoClient, err := neo4jdb.New(ctx, cfg.Neo4j, log)
	if err != nil {
		log.Fatal("Could not connect to Neo4j", "error", err)
	}
	defer neoClient.Close(ctx)

	repository := graph.NewRepository(neoClient, log)
	if err := repository.EnsureConstraints(ctx); err != nil {
		log.Fatal("Could not ensure graph constraints", "error", err)
	}

	storage, err := services.NewStorageService(cfg.StorageRoot, log)
	if err != nil {
		log.Fatal("Could not init StorageService", "error", err)
	}
	llmClient, err := services.BuildLLMClient(cfg.LLM)
	if err != nil {
		log.Fatal("Could not init LLM client", "error", err)
	}
	sources := []services.TrendingSource{
		services.NewHuggingFaceClient(cfg.HuggingFaceTrendingURL, log),
	}
	ingestion := services.NewIngestionService(sources, services.NewDownloader(log), storage, llmClient, repository, nil, cfg.IngestionLimit, log)

	result := ingestion.Run(ctx, true)
	log.Info("Ingestion complete",
		"run_id", result.RunID,
		"discovered", result.Discovered,
		"downloaded", result.Downloaded,
		"enriched", result.Enriched,
		"persisted", result.Persisted,
	)
	for _, detail := range result.Details {
		if detail.Status == "failed" {
			log.Warn("Paper failed", "source", detail.Source, "external_id", detail.ExternalID, "error", detail.Error)
		}
	}
}
