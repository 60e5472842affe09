// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.supportbot/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - LLM: Ollama host, generation model, embedding model, sampling options
//   - Storage: PostgreSQL connection (see storage.go)
//   - RAG: chunk size/overlap, retrieval top-K, ingestion batch size
//   - HTTP: listen address, CORS origins, rate limiting
//
// Validation lives in validation.go and uses sentinel errors so callers
// can check failure categories with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidModelName indicates a model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidBatchSize indicates the ingestion batch size is out of range.
	ErrInvalidBatchSize = errors.New("invalid batch_size")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Default model and document constants. These mirror the values the
// support corpus was indexed with; changing the embed model requires
// re-ingesting the whole corpus (the vector dimensionality changes).
const (
	// DefaultGenerateModel is the default Ollama text-generation model.
	DefaultGenerateModel = "qwen2.5:7b-instruct"

	// DefaultEmbedModel is the default Ollama embedding model.
	// nomic-embed-text outputs 768 dimensions; the docs table schema
	// in db/migrations declares vector(768) to match.
	DefaultEmbedModel = "nomic-embed-text"

	// DefaultSourceName is the logical name of the policy document,
	// stored on every chunk and returned in citations.
	DefaultSourceName = "technova_faq_policy.txt"

	// DefaultLanguage is the document and answer language (Swedish).
	DefaultLanguage = "sv"
)

// Config stores application configuration.
type Config struct {
	// LLM configuration (Ollama)
	OllamaHost    string  `mapstructure:"ollama_host" json:"ollama_host"`
	GenerateModel string  `mapstructure:"generate_model" json:"generate_model"`
	EmbedModel    string  `mapstructure:"embed_model" json:"embed_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	NumPredict    int     `mapstructure:"num_predict" json:"num_predict"`
	LLMTimeoutSec int     `mapstructure:"llm_timeout_sec" json:"llm_timeout_sec"`

	// RAG configuration
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	TopK         int    `mapstructure:"top_k" json:"top_k"`
	BatchSize    int    `mapstructure:"batch_size" json:"batch_size"`
	SourceFile   string `mapstructure:"source_file" json:"source_file"`
	SourceName   string `mapstructure:"source_name" json:"source_name"`
	Language     string `mapstructure:"language" json:"language"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP configuration (serve mode)
	HTTPAddr    string   `mapstructure:"http_addr" json:"http_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	v := viper.New()

	// Configuration directory: ~/.supportbot/ (optional)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".supportbot"))
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, when set, overrides the individual postgres_* values.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("generate_model", DefaultGenerateModel)
	v.SetDefault("embed_model", DefaultEmbedModel)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("num_predict", 512)
	v.SetDefault("llm_timeout_sec", 120)

	// RAG defaults
	v.SetDefault("chunk_size", 900)
	v.SetDefault("chunk_overlap", 150)
	v.SetDefault("top_k", 6)
	v.SetDefault("batch_size", 64)
	v.SetDefault("source_file", filepath.Join("data", DefaultSourceName))
	v.SetDefault("source_name", DefaultSourceName)
	v.SetDefault("language", DefaultLanguage)

	// PostgreSQL defaults (local development)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "supportbot")
	v.SetDefault("postgres_password", "supportbot_dev_password")
	v.SetDefault("postgres_db_name", "supportbot")
	v.SetDefault("postgres_ssl_mode", "disable")

	// HTTP defaults (Vite dev client on 5173)
	v.SetDefault("http_addr", "127.0.0.1:8787")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("rate_burst", 60)
	v.SetDefault("trust_proxy", false)
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("ollama_host", "OLLAMA_BASE_URL")
	mustBind("generate_model", "OLLAMA_MODEL")
	mustBind("embed_model", "EMBED_MODEL")

	mustBind("http_addr", "SUPPORTBOT_HTTP_ADDR")
	mustBind("cors_origins", "SUPPORTBOT_CORS_ORIGINS")
	mustBind("rate_burst", "SUPPORTBOT_RATE_BURST")
	mustBind("trust_proxy", "SUPPORTBOT_TRUST_PROXY")
	mustBind("source_file", "SUPPORTBOT_SOURCE_FILE")

	mustBind("postgres_host", "SUPPORTBOT_POSTGRES_HOST")
	mustBind("postgres_port", "SUPPORTBOT_POSTGRES_PORT")
	mustBind("postgres_user", "SUPPORTBOT_POSTGRES_USER")
	mustBind("postgres_password", "SUPPORTBOT_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "SUPPORTBOT_POSTGRES_DB")
	mustBind("postgres_ssl_mode", "SUPPORTBOT_POSTGRES_SSL_MODE")

	// NOTE: DATABASE_URL is read directly in parseDatabaseURL, not via Viper,
	// because it expands into several postgres_* fields at once.
}
