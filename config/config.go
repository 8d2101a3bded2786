package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DataDirName is the per-project directory holding the persisted index.
const DataDirName = ".pharmadoc"

// Config holds all configuration for pharmadoc.
type Config struct {
	Loader     LoaderConfig     `yaml:"loader"`
	Chunk      ChunkConfig      `yaml:"chunk"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Context    ContextConfig    `yaml:"context"`
	Synthesis  SynthesisConfig  `yaml:"synthesis"`
	Generation GenerationConfig `yaml:"generation"`
	Index      IndexConfig      `yaml:"index"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// LoaderConfig controls document discovery and decoding.
type LoaderConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	FormFeedPages bool     `yaml:"formfeed_pages"` // treat \f in text files as page breaks
}

// ChunkConfig holds segmentation parameters, in bytes.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "openai", "ollama", "hashing"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	Metric    string        `yaml:"metric"`    // "cosine" or "l2"
	MinScore  float64       `yaml:"min_score"` // Filter results below this score (0 = disabled)
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// ContextConfig bounds the assembled context.
type ContextConfig struct {
	Budget int `yaml:"budget"` // bytes of segment text
}

// SynthesisConfig holds the generator retry policy.
type SynthesisConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Timeout    time.Duration `yaml:"timeout"` // per attempt, 0 = none
}

// GenerationConfig selects the answer generator.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "ollama", "echo"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// IndexConfig selects the persisted index format.
type IndexConfig struct {
	Format string `yaml:"format"` // "bolt" or "sqlite"
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string  `yaml:"otlp_endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			Includes:      []string{"**/*.pdf", "**/*.txt", "**/*.md"},
			Excludes:      []string{"**/.git/**", "**/" + DataDirName + "/**"},
			FormFeedPages: true,
		},
		Chunk: ChunkConfig{
			Size:    1000,
			Overlap: 150,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   1536,
			BatchSize:   100,
			Concurrency: 4,
		},
		Retrieve: RetrieveConfig{
			TopK:      4,
			Metric:    "cosine",
			CacheSize: 256,
			CacheTTL:  5 * time.Minute,
		},
		Context: ContextConfig{
			Budget: 4000,
		},
		Synthesis: SynthesisConfig{
			MaxRetries: 3,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   8 * time.Second,
			Timeout:    60 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0,
			MaxTokens:   512,
		},
		Index: IndexConfig{
			Format: "bolt",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			ServiceName: "pharmadoc",
			SampleRate:  1.0,
		},
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, %d), got %d", c.Chunk.Size, c.Chunk.Overlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	switch c.Retrieve.Metric {
	case "", "cosine", "l2":
	default:
		return fmt.Errorf("retrieve.metric must be cosine or l2, got %q", c.Retrieve.Metric)
	}
	if c.Context.Budget <= 0 {
		return fmt.Errorf("context.budget must be positive, got %d", c.Context.Budget)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Synthesis.MaxRetries < 0 {
		return fmt.Errorf("synthesis.max_retries must not be negative, got %d", c.Synthesis.MaxRetries)
	}
	switch c.Index.Format {
	case "", "bolt", "sqlite":
	default:
		return fmt.Errorf("index.format must be bolt or sqlite, got %q", c.Index.Format)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for pharmadoc.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "pharmadoc.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, DataDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the persisted index for the configured format.
func (c *Config) IndexDBPath(dir string) string {
	if c.Index.Format == "sqlite" {
		return filepath.Join(dir, DataDirName, "index.sqlite")
	}
	return filepath.Join(dir, DataDirName, "index.db")
}

// EnsureDataDir ensures the .pharmadoc directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, DataDirName), 0755)
}
