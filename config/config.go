// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads relayout's YAML settings file and environment.
//
// Values are layered: built-in defaults, then the YAML file, then
// environment variables (optionally read from a .env file). Command line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/relayout/ai"
	"github.com/poiesic/relayout/ingestion"
	"github.com/poiesic/relayout/rebuild"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabase       = "RELAYOUT_DB"
	EnvEmbeddingHost  = "RELAYOUT_EMBEDDING_HOST"
	EnvEmbeddingModel = "RELAYOUT_EMBEDDING_MODEL"
	EnvEmbeddingKey   = "RELAYOUT_EMBEDDING_API_KEY"
)

var (
	// ErrInvalidConfig is returned when a loaded file fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// EmbeddingConfig configures the optional embedding service.
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`

	// APIKey is only ever read from the environment.
	APIKey string `yaml:"-"`
}

// IngestConfig holds defaults for the ingest command.
type IngestConfig struct {
	Workers       int    `yaml:"workers"`
	MaxChunkRunes int    `yaml:"max_chunk_runes"`
	Format        string `yaml:"format"`
	OutputDir     string `yaml:"output_dir"`
}

// RebuildConfig holds defaults for the rebuild command.
type RebuildConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	Concurrency    int           `yaml:"concurrency"`
	ReportInterval int           `yaml:"report_interval"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// SearchConfig holds defaults for the query command.
type SearchConfig struct {
	MinSimilarity float32 `yaml:"min_similarity"`
	MaxHits       int     `yaml:"max_hits"`
}

// Config is the root of the settings file.
type Config struct {
	Database  string          `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Rebuild   RebuildConfig   `yaml:"rebuild"`
	Search    SearchConfig    `yaml:"search"`
}

// Default returns the built-in settings.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	rebuildDefaults := rebuild.DefaultConfig()
	return &Config{
		Database: "relayout_db",
		Embedding: EmbeddingConfig{
			Host:      aiDefaults.EmbeddingHost,
			Model:     aiDefaults.EmbeddingModel,
			APIKeyEnv: EnvEmbeddingKey,
		},
		Ingest: IngestConfig{
			Workers:       4,
			MaxChunkRunes: ingestion.DefaultMaxChunkRunes,
			Format:        "markdown",
		},
		Rebuild: RebuildConfig{
			BatchSize:      rebuildDefaults.BatchSize,
			Concurrency:    rebuildDefaults.Concurrency,
			ReportInterval: rebuildDefaults.ReportInterval,
			MaxRetries:     rebuildDefaults.MaxRetries,
			RetryDelay:     rebuildDefaults.RetryDelay,
		},
		Search: SearchConfig{
			MinSimilarity: 0.60,
			MaxHits:       5,
		},
	}
}

// Load reads a settings file. An empty path or a missing file yields the
// defaults. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. An empty path means
// ".env" in the working directory; a missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		c.Embedding.Host = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Embedding.Model = v
	}
	keyEnv := c.Embedding.APIKeyEnv
	if keyEnv == "" {
		keyEnv = EnvEmbeddingKey
	}
	if v := os.Getenv(keyEnv); v != "" {
		c.Embedding.APIKey = v
	}
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	switch {
	case c.Ingest.Workers < 1:
		return fmt.Errorf("%w: ingest.workers must be positive, got %d", ErrInvalidConfig, c.Ingest.Workers)
	case c.Ingest.MaxChunkRunes < 1:
		return fmt.Errorf("%w: ingest.max_chunk_runes must be positive, got %d", ErrInvalidConfig, c.Ingest.MaxChunkRunes)
	case c.Rebuild.BatchSize < 1:
		return fmt.Errorf("%w: rebuild.batch_size must be positive, got %d", ErrInvalidConfig, c.Rebuild.BatchSize)
	case c.Rebuild.MaxRetries < 1:
		return fmt.Errorf("%w: rebuild.max_retries must be positive, got %d", ErrInvalidConfig, c.Rebuild.MaxRetries)
	case c.Search.MinSimilarity < -1 || c.Search.MinSimilarity > 1:
		return fmt.Errorf("%w: search.min_similarity must be within [-1, 1], got %v", ErrInvalidConfig, c.Search.MinSimilarity)
	case strings.TrimSpace(c.Ingest.Format) == "":
		return fmt.Errorf("%w: ingest.format is empty", ErrInvalidConfig)
	}
	return nil
}

// AIConfig returns the embedding settings as an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
	)
}

// RebuildConfig returns the rebuild settings as a rebuild.Config.
func (c *Config) RebuildConfig() *rebuild.Config {
	return &rebuild.Config{
		BatchSize:      c.Rebuild.BatchSize,
		Concurrency:    c.Rebuild.Concurrency,
		MaxChunkRunes:  c.Ingest.MaxChunkRunes,
		ReportInterval: c.Rebuild.ReportInterval,
		MaxRetries:     c.Rebuild.MaxRetries,
		RetryDelay:     c.Rebuild.RetryDelay,
	}
}
