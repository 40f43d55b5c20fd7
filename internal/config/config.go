// Copyright 2026 Archivist Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the pipeline's full configuration surface.
type Config struct {
	// Paths controls where the pipeline reads and writes.
	Paths PathsConfig `yaml:"paths" validate:"required"`

	// BatchSize is the per-phase progress granularity (spec default 50).
	BatchSize int `yaml:"batch_size" validate:"gt=0"`

	// ReviewRequired inserts a review gate between planning and execution.
	ReviewRequired bool `yaml:"review_required"`

	// DryRun skips all Executor filesystem mutation.
	DryRun bool `yaml:"dry_run"`

	// AllowDeletes permits the `delete` duplicate action; otherwise it is
	// coerced to `shortcut`.
	AllowDeletes bool `yaml:"allow_deletes"`

	Version VersionConfig `yaml:"version"`

	Concurrency ConcurrencyConfig `yaml:"concurrency"`

	LocalLLM  LLMEndpointConfig `yaml:"local_llm" validate:"required"`
	RemoteLLM LLMEndpointConfig `yaml:"remote_llm" validate:"required"`

	Retry RetryConfig `yaml:"retry"`

	// TextExtractionBudgetBytes bounds how much extracted text is kept
	// per file.
	TextExtractionBudgetBytes int64 `yaml:"text_extraction_budget_bytes" validate:"gt=0"`

	// MaxExtractionFileSizeBytes bounds the input file size text
	// extraction will attempt; larger files are still hashed and
	// indexed but extraction is skipped.
	MaxExtractionFileSizeBytes int64 `yaml:"max_extraction_file_size_bytes" validate:"gt=0"`

	Store StoreConfig `yaml:"store" validate:"required"`
}

// PathsConfig holds the pipeline's filesystem layout, all configurable.
type PathsConfig struct {
	Input   string `yaml:"input" validate:"required"`
	Source  string `yaml:"source" validate:"required"`
	Working string `yaml:"working" validate:"required"`
	Output  string `yaml:"output" validate:"required"`
	Reports string `yaml:"reports" validate:"required"`
}

// VersionConfig controls the Version Resolver's archive strategy.
type VersionConfig struct {
	// ArchiveStrategy is one of subfolder, inline, separate_archive.
	ArchiveStrategy    string  `yaml:"archive_strategy" validate:"oneof=subfolder inline separate_archive"`
	FolderName         string  `yaml:"folder_name"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`
}

// ConcurrencyConfig sizes the per-phase worker pools.
type ConcurrencyConfig struct {
	// CPUWorkers (W_cpu) sizes hashing/extraction pools.
	CPUWorkers int `yaml:"cpu_workers" validate:"gt=0"`
	// NetWorkers (W_net) sizes LLM-call pools.
	NetWorkers int `yaml:"net_workers" validate:"gt=0"`
}

// LLMEndpointConfig configures one of the two LLM tiers.
type LLMEndpointConfig struct {
	Endpoint   string        `yaml:"endpoint" validate:"required"`
	Model      string        `yaml:"model" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0"`
	MaxTokens  int           `yaml:"max_tokens"`
	APIKey     string        `yaml:"-"` // sourced from env, never serialized
}

// RetryConfig holds backoff base and cap settings. The LLM clients build
// their retry.Policy from fixed values and do not read this block.
type RetryConfig struct {
	Base time.Duration `yaml:"base" validate:"gt=0"`
	Cap  time.Duration `yaml:"cap" validate:"gt=0"`
}

// StoreConfig configures the relational store gateway's connection pool.
type StoreConfig struct {
	DSN string `yaml:"dsn" validate:"required"`
	// PoolSize must be at least Concurrency.CPUWorkers +
	// Concurrency.NetWorkers + 2; Validate() rejects a smaller value.
	PoolSize int `yaml:"pool_size" validate:"gt=0"`
}

// Default returns a Config with the spec's documented defaults, the way
// the teacher's DefaultConfig constructs IngestionConfig.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			Input:   "/data/input",
			Source:  "/data/source",
			Working: "/data/working",
			Output:  "/data/output",
			Reports: "/data/reports",
		},
		BatchSize:      50,
		ReviewRequired: false,
		DryRun:         false,
		AllowDeletes:   false,
		Version: VersionConfig{
			ArchiveStrategy:     "subfolder",
			FolderName:          "_versions",
			SimilarityThreshold: 0.7,
		},
		Concurrency: ConcurrencyConfig{
			CPUWorkers: 8,
			NetWorkers: 4,
		},
		LocalLLM: LLMEndpointConfig{
			Endpoint:   "http://localhost:11434",
			Model:      "llama3.1:8b",
			Timeout:    30 * time.Second,
			MaxRetries: 5,
		},
		RemoteLLM: LLMEndpointConfig{
			Endpoint:   "https://api.anthropic.com",
			Model:      "claude-sonnet-4-5",
			Timeout:    5 * time.Minute,
			MaxRetries: 5,
			MaxTokens:  8192,
		},
		Retry: RetryConfig{
			Base: 250 * time.Millisecond,
			Cap:  30 * time.Second,
		},
		TextExtractionBudgetBytes:  100 * 1024,
		MaxExtractionFileSizeBytes: 50 * 1024 * 1024,
		Store: StoreConfig{
			PoolSize: 14,
		},
	}
}

// Load reads and validates a YAML config file, applying Default() for the
// base and overlaying file contents on top.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.LocalLLM.APIKey = os.Getenv("ARCHIVIST_LOCAL_LLM_API_KEY")
	cfg.RemoteLLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validatorInstance = validator.New()

// Validate checks struct tags and the recommended pool-sizing convention.
func Validate(cfg Config) error {
	if err := validatorInstance.Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	wantPool := cfg.Concurrency.CPUWorkers + cfg.Concurrency.NetWorkers + 2
	if cfg.Store.PoolSize < wantPool {
		return fmt.Errorf("config validation: store.pool_size %d is below the recommended W+2 (%d) for worker concurrency %d/%d",
			cfg.Store.PoolSize, wantPool, cfg.Concurrency.CPUWorkers, cfg.Concurrency.NetWorkers)
	}
	return nil
}
