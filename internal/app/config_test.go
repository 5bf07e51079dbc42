package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Blank out variables the surrounding environment may carry.
	for _, name := range []string{"PORT", "NEO4J_URI", "CACHE_TTL_SECONDS", "INGESTION_LIMIT", "INGEST_CRON", "INGEST_SCHEDULE_ENABLED", "LLM_PROVIDER", "ALLOW_ORIGINS", "CONFIG_FILE"} {
		t.Setenv(name, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %s", cfg.Port)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Fatalf("neo4j uri = %s", cfg.Neo4j.URI)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("cache ttl = %s", cfg.CacheTTL)
	}
	if cfg.IngestionLimit != 10 {
		t.Fatalf("ingestion limit = %d", cfg.IngestionLimit)
	}
	if cfg.IngestCron != "0 0 3 * * *" {
		t.Fatalf("ingest cron = %s", cfg.IngestCron)
	}
	if !cfg.ScheduleEnabled {
		t.Fatal("schedule should default to enabled")
	}
	if cfg.LLM.Provider != "mock" {
		t.Fatalf("llm provider = %s", cfg.LLM.Provider)
	}
	if len(cfg.AllowOrigins) != 2 {
		t.Fatalf("allow origins = %v", cfg.AllowOrigins)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("NEO4J_URI", "neo4j://db:7687")
	t.Setenv("INGESTION_LIMIT", "3")
	t.Setenv("INGEST_SCHEDULE_ENABLED", "false")
	t.Setenv("ALLOW_ORIGINS", "https://app.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %s", cfg.Port)
	}
	if cfg.Neo4j.URI != "neo4j://db:7687" {
		t.Fatalf("neo4j uri = %s", cfg.Neo4j.URI)
	}
	if cfg.IngestionLimit != 3 {
		t.Fatalf("ingestion limit = %d", cfg.IngestionLimit)
	}
	if cfg.ScheduleEnabled {
		t.Fatal("schedule should be disabled")
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "https://app.example.com" {
		t.Fatalf("allow origins = %v", cfg.AllowOrigins)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := `huggingface_trending_url: https://example.com/papers
ingestion_limit: 5
ingest_cron: "0 30 4 * * *"
storage_root: /var/lib/papers
allow_origins:
  - https://app.example.com
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HuggingFaceTrendingURL != "https://example.com/papers" {
		t.Fatalf("trending url = %s", cfg.HuggingFaceTrendingURL)
	}
	if cfg.IngestionLimit != 5 {
		t.Fatalf("ingestion limit = %d", cfg.IngestionLimit)
	}
	if cfg.IngestCron != "0 30 4 * * *" {
		t.Fatalf("ingest cron = %s", cfg.IngestCron)
	}
	if cfg.StorageRoot != "/var/lib/papers" {
		t.Fatalf("storage root = %s", cfg.StorageRoot)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "https://app.example.com" {
		t.Fatalf("allow origins = %v", cfg.AllowOrigins)
	}
}

func TestLoadConfigMissingOverlayFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
