package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thagi/paper-scope/internal/platform/envutil"
	"github.com/Thagi/paper-scope/internal/platform/neo4jdb"
	"github.com/Thagi/paper-scope/internal/services"
)

// Config is the full runtime configuration, assembled once at startup from
// the environment plus an optional YAML overlay, and injected everywhere.
type Config struct {
	Port     string
	LogMode  string
	Neo4j    neo4jdb.Config
	Redis    RedisConfig
	CacheTTL time.Duration

	StorageRoot string

	HuggingFaceTrendingURL string
	IngestionLimit         int
	IngestCron             string
	ScheduleEnabled        bool

	LLM services.LLMConfig

	AllowOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// fileConfig is the YAML overlay shape. Only operational knobs live here;
// secrets stay in the environment.
type fileConfig struct {
	HuggingFaceTrendingURL string   `yaml:"huggingface_trending_url"`
	IngestionLimit         int      `yaml:"ingestion_limit"`
	IngestCron             string   `yaml:"ingest_cron"`
	StorageRoot            string   `yaml:"storage_root"`
	AllowOrigins           []string `yaml:"allow_origins"`
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:    envutil.Str("PORT", "8080"),
		LogMode: envutil.Str("LOG_MODE", "development"),
		Neo4j: neo4jdb.Config{
			URI:         envutil.Str("NEO4J_URI", "bolt://localhost:7687"),
			User:        envutil.Str("NEO4J_USER", "neo4j"),
			Password:    envutil.Str("NEO4J_PASSWORD", ""),
			Database:    envutil.Str("NEO4J_DATABASE", ""),
			MaxPoolSize: envutil.Int("NEO4J_MAX_POOL_SIZE", 50),
			Timeout:     time.Duration(envutil.Int("NEO4J_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     envutil.Str("REDIS_ADDR", ""),
			Password: envutil.Str("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		CacheTTL:    time.Duration(envutil.Int("CACHE_TTL_SECONDS", 300)) * time.Second,
		StorageRoot: envutil.Str("STORAGE_ROOT", "data/papers"),

		HuggingFaceTrendingURL: envutil.Str("HUGGINGFACE_TRENDING_URL", "https://huggingface.co/papers"),
		IngestionLimit:         envutil.Int("INGESTION_LIMIT", 10),
		IngestCron:             envutil.Str("INGEST_CRON", "0 0 3 * * *"),
		ScheduleEnabled:        envutil.Bool("INGEST_SCHEDULE_ENABLED", true),

		LLM: services.LLMConfig{
			Provider:      envutil.Str("LLM_PROVIDER", "mock"),
			OpenAIAPIKey:  envutil.Str("OPENAI_API_KEY", ""),
			OpenAIModel:   envutil.Str("OPENAI_MODEL", "gpt-4o-mini"),
			OllamaBaseURL: envutil.Str("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   envutil.Str("OLLAMA_MODEL", "llama3"),
		},

		AllowOrigins: envutil.List("ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),
	}

	if path := envutil.Str("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if overlay.HuggingFaceTrendingURL != "" {
		c.HuggingFaceTrendingURL = overlay.HuggingFaceTrendingURL
	}
	if overlay.IngestionLimit > 0 {
		c.IngestionLimit = overlay.IngestionLimit
	}
	if overlay.IngestCron != "" {
		c.IngestCron = overlay.IngestCron
	}
	if overlay.StorageRoot != "" {
		c.StorageRoot = overlay.StorageRoot
	}
	if len(overlay.AllowOrigins) > 0 {
		c.AllowOrigins = overlay.AllowOrigins
	}
	return nil
}
