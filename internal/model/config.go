package model

import "time"

// Config is the full application configuration
type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Store       StoreConfig       `yaml:"store"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Insightd    InsightdConfig    `yaml:"insightd"`
	LLM         LLMConfig         `yaml:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// ServiceConfig points the clients at the insight service endpoints
type ServiceConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StoreConfig configures the layered artifact store
type StoreConfig struct {
	Dir       string        `yaml:"dir"` // Defaults to ~/.insightmap/data
	MemoryTTL time.Duration `yaml:"memory_ttl"`
}

// PipelineConfig tunes orchestrator pacing
type PipelineConfig struct {
	AnalyzeDelay time.Duration `yaml:"analyze_delay"` // Local staging pause before generation
}

// InsightdConfig configures the bundled insight service
type InsightdConfig struct {
	Addr              string  `yaml:"addr"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// LLMConfig configures the optional AI provider used by the bundled service.
// When Provider is empty the keyword method is used.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai" or ""
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// ConcurrencyConfig bounds worker counts
type ConcurrencyConfig struct {
	IngestWorkers int `yaml:"ingest_workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:   "http://localhost:8487",
			Timeout:   60 * time.Second,
			UserAgent: "insightmap/0.2",
		},
		Store: StoreConfig{
			MemoryTTL: 15 * time.Minute,
		},
		Pipeline: PipelineConfig{
			AnalyzeDelay: 800 * time.Millisecond,
		},
		Insightd: InsightdConfig{
			Addr:              ":8487",
			RequestsPerMinute: 10,
			Burst:             3,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 2000,
		},
		Concurrency: ConcurrencyConfig{
			IngestWorkers: 4,
		},
	}
}
