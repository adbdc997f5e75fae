// Package config loads service configuration from defaults, an optional
// YAML file and DOCQ_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr" koanf:"http_addr"`

	Ollama    OllamaConfig    `yaml:"ollama" koanf:"ollama"`
	Qdrant    QdrantConfig    `yaml:"qdrant" koanf:"qdrant"`
	NATS      NATSConfig      `yaml:"nats" koanf:"nats"`
	Chunking  ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`

	FileTimeout time.Duration `yaml:"file_timeout" koanf:"file_timeout"`
}

// OllamaConfig configures the embedding model endpoint.
type OllamaConfig struct {
	BaseURL           string        `yaml:"base_url" koanf:"base_url"`
	Model             string        `yaml:"model" koanf:"model"`
	Timeout           time.Duration `yaml:"timeout" koanf:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" koanf:"requests_per_second"`
	Dimensions        int           `yaml:"dimensions" koanf:"dimensions"`
}

// QdrantConfig configures the vector store connection.
type QdrantConfig struct {
	Addr       string `yaml:"addr" koanf:"addr"`
	Collection string `yaml:"collection" koanf:"collection"`
}

// NATSConfig configures the optional event bus. An empty URL disables it.
type NATSConfig struct {
	URL string `yaml:"url" koanf:"url"`
}

// ChunkingConfig configures document splitting.
type ChunkingConfig struct {
	MaxLen  int `yaml:"max_len" koanf:"max_len"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// RetrievalConfig configures the similarity search.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k" koanf:"top_k"`
	MinScore float64 `yaml:"min_score" koanf:"min_score"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr: ":8080",
		Ollama: OllamaConfig{
			BaseURL:           "http://localhost:11434",
			Model:             "all-minilm",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Dimensions:        384,
		},
		Qdrant: QdrantConfig{
			Addr:       "localhost:6334",
			Collection: "documents",
		},
		Chunking: ChunkingConfig{
			MaxLen:  800,
			Overlap: 120,
		},
		Retrieval: RetrievalConfig{
			TopK:     5,
			MinScore: 0.4,
		},
		FileTimeout: 2 * time.Minute,
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCQ_*). A missing file is not an
// error; env vars use "__" as the nesting separator, so
// DOCQ_QDRANT__ADDR maps to qdrant.addr.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DOCQ_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "DOCQ_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama.base_url is required")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama.model is required")
	}
	if c.Ollama.Dimensions <= 0 {
		return fmt.Errorf("ollama.dimensions must be positive")
	}
	if c.Qdrant.Addr == "" {
		return fmt.Errorf("qdrant.addr is required")
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant.collection is required")
	}
	if c.Chunking.MaxLen <= 0 {
		return fmt.Errorf("chunking.max_len must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.MaxLen {
		return fmt.Errorf("chunking.overlap must be in [0, max_len)")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be in [0, 1]")
	}
	return nil
}
