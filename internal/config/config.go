package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Validation ValidationConfig `mapstructure:"validation" validate:"required"`
	Review     ReviewConfig     `mapstructure:"review" validate:"required"`
	Tasks      TasksConfig      `mapstructure:"tasks" validate:"required"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory stores.
type DatabaseConfig struct {
	URL             string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	MigrateOnStart  bool   `mapstructure:"migrate_on_start"`
	MigrationsTable string `mapstructure:"migrations_table"`
}

// LLMConfig contains all LLM integration related settings.
// Without an API key the service falls back to the heuristic judge and skips
// the embedding tier.
type LLMConfig struct {
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	EmbeddingModel string        `mapstructure:"embedding_model" validate:"required"`
	JudgeModel     string        `mapstructure:"judge_model" validate:"required"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay      time.Duration `mapstructure:"base_delay" validate:"gte=0"`
	PromptPath     string        `mapstructure:"prompt_path" validate:"omitempty,file"`
}

// ValidationConfig tunes the answer validation cascade.
type ValidationConfig struct {
	EmbeddingThreshold  float64       `mapstructure:"embedding_threshold" validate:"gt=0,lte=1"`
	BorderlineThreshold float64       `mapstructure:"borderline_threshold" validate:"gt=0,lte=1,ltefield=EmbeddingThreshold"`
	FallbackOnTierError bool          `mapstructure:"fallback_on_tier_error"`
	TierTimeout         time.Duration `mapstructure:"tier_timeout" validate:"gte=0"`
	EmbeddingCacheSize  int           `mapstructure:"embedding_cache_size" validate:"gte=0"`
}

// ReviewConfig tunes the review orchestrator.
type ReviewConfig struct {
	MaxConflictRetries int           `mapstructure:"max_conflict_retries" validate:"gte=0,lte=10"`
	ConflictBackoff    time.Duration `mapstructure:"conflict_backoff" validate:"gte=0"`
}

// TasksConfig sizes the background worker pool.
type TasksConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
}

// RateLimitConfig bounds review submissions per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gt=0"`
}
