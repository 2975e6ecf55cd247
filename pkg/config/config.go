// Package config loads application configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// Config represents the complete application configuration.
type Config struct {
	LLM           LLMConfig              `yaml:"llm"`
	Retrieval     domain.RetrievalConfig `yaml:"retrieval"`
	Workflow      WorkflowConfig         `yaml:"workflow"`
	Knowledge     KnowledgeConfig        `yaml:"knowledge"`
	Observability ObservabilityConfig    `yaml:"observability"`
}

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "ollama", "openai"
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key,omitempty"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model,omitempty"`
	Timeout        string `yaml:"timeout"`
}

// WorkflowConfig controls the generation pipeline.
type WorkflowConfig struct {
	MinDuration int `yaml:"min_duration"` // minutes
	MaxDuration int `yaml:"max_duration"` // minutes
	QueueSize   int `yaml:"queue_size"`
}

// KnowledgeConfig configures the knowledge-graph backend.
type KnowledgeConfig struct {
	Type string `yaml:"type"` // "memory"
	Path string `yaml:"path,omitempty"`
}

// ObservabilityConfig contains observability configuration.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json"
	Output string `yaml:"output"` // "stdout", "file"
}

// Load loads configuration from a file, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	config.overrideFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads configuration from a file or returns the default
// configuration when the file is missing or invalid.
func LoadOrDefault(path string) *Config {
	config, err := Load(path)
	if err != nil {
		config = Default()
		config.overrideFromEnv()
	}
	return config
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "qwen2.5:14b",
			Timeout:  "2m",
		},
		Retrieval: domain.RetrievalConfig{
			VectorWeight: 0.6,
			GraphWeight:  0.4,
			MaxResults:   10,
			SearchDepth:  2,
		},
		Workflow: WorkflowConfig{
			MinDuration: 20,
			MaxDuration: 180,
			QueueSize:   6,
		},
		Knowledge: KnowledgeConfig{
			Type: "memory",
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      false,
				Endpoint:     "localhost:4318",
				SamplingRate: 1.0,
				Insecure:     true,
			},
			Metrics: MetricsConfig{
				Enabled: false,
				Port:    2223,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
	}
}

// applyDefaults fills missing fields from the default configuration.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.LLM.Provider == "" {
		c.LLM.Provider = defaults.LLM.Provider
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == "ollama" {
		c.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaults.LLM.Model
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = defaults.LLM.Timeout
	}

	if c.Retrieval.VectorWeight == 0 && c.Retrieval.GraphWeight == 0 {
		c.Retrieval.VectorWeight = defaults.Retrieval.VectorWeight
		c.Retrieval.GraphWeight = defaults.Retrieval.GraphWeight
	}
	if c.Retrieval.MaxResults == 0 {
		c.Retrieval.MaxResults = defaults.Retrieval.MaxResults
	}
	if c.Retrieval.SearchDepth == 0 {
		c.Retrieval.SearchDepth = defaults.Retrieval.SearchDepth
	}

	if c.Workflow.MinDuration == 0 {
		c.Workflow.MinDuration = defaults.Workflow.MinDuration
	}
	if c.Workflow.MaxDuration == 0 {
		c.Workflow.MaxDuration = defaults.Workflow.MaxDuration
	}
	if c.Workflow.QueueSize == 0 {
		c.Workflow.QueueSize = defaults.Workflow.QueueSize
	}

	if c.Knowledge.Type == "" {
		c.Knowledge.Type = defaults.Knowledge.Type
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = defaults.Observability.Logging.Level
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = defaults.Observability.Logging.Format
	}
	if c.Observability.Logging.Output == "" {
		c.Observability.Logging.Output = defaults.Observability.Logging.Output
	}
}

// overrideFromEnv overrides configuration from environment variables.
func (c *Config) overrideFromEnv() {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if url := os.Getenv("LLM_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if model := os.Getenv("LLM_EMBEDDING_MODEL"); model != "" {
		c.LLM.EmbeddingModel = model
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Observability.Tracing.Endpoint = endpoint
	}
	if path := os.Getenv("KNOWLEDGE_GRAPH_PATH"); path != "" {
		c.Knowledge.Path = path
	}
}

// validate validates the configuration.
func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm base_url is required for ollama")
		}
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api_key is required for openai")
		}
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm timeout: %w", err)
	}

	if c.Retrieval.VectorWeight < 0 || c.Retrieval.VectorWeight > 1 {
		return fmt.Errorf("retrieval vector_weight must be in [0,1]")
	}
	if c.Retrieval.GraphWeight < 0 || c.Retrieval.GraphWeight > 1 {
		return fmt.Errorf("retrieval graph_weight must be in [0,1]")
	}
	if c.Retrieval.VectorWeight+c.Retrieval.GraphWeight <= 0 {
		return fmt.Errorf("retrieval weights must sum to a positive value")
	}

	if c.Workflow.MinDuration < 1 || c.Workflow.MaxDuration < c.Workflow.MinDuration {
		return fmt.Errorf("invalid workflow duration bounds: min=%d max=%d",
			c.Workflow.MinDuration, c.Workflow.MaxDuration)
	}

	if c.Knowledge.Type != "memory" {
		return fmt.Errorf("unknown knowledge store type: %s", c.Knowledge.Type)
	}

	return nil
}

// LLMTimeout returns the parsed LLM request timeout.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
