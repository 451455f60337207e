// Copyright 2025 KrakLabs
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
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config resolves and loads per-repository project configuration.
//
// A project is rooted at a source directory and keeps its generated state
// (wiki, signature store, code index, search stores) under a `.oya/` data
// directory inside the repo root, per the persistent state layout.
// Configuration comes from `.oya/config/project.yaml`, overridable by
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RepoConfig describes where a project's source lives and where its
// generated state is stored.
type RepoConfig struct {
	// ProjectID is the logical project identifier, usually derived from
	// the repo root's base name.
	ProjectID string `yaml:"project_id"`

	// RepoRoot is the root directory of the source repository.
	RepoRoot string `yaml:"-"`

	// DataDir is the directory holding wiki/, meta/, and graph/.
	// Defaults to "<RepoRoot>/.oya".
	DataDir string `yaml:"-"`

	// EmbeddingDimensions is the vector size used by the semantic store.
	// Defaults to 768 (nomic-embed-text); use 1536 for OpenAI embeddings.
	EmbeddingDimensions int `yaml:"embedding_dimensions"`

	// LLM selects the generation/classification provider: "ollama",
	// "openai", "anthropic", or "mock".
	LLM string `yaml:"llm"`

	// LLMModel is the model name passed to the provider.
	LLMModel string `yaml:"llm_model"`

	// ParallelFileLimit bounds concurrent LLM calls during the Files phase.
	// Defaults to 2 when unset, whichever provider is configured.
	ParallelFileLimit int `yaml:"parallel_file_limit"`

	// IgnoreGlobs are additional glob patterns excluded from Discover,
	// beyond the built-in size/binary checks.
	IgnoreGlobs []string `yaml:"ignore_globs"`

	// MaxFileSizeBytes bounds Discover's per-file size filter.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
}

const (
	defaultEmbeddingDimensions = 768
	defaultParallelFileLimit   = 2
	defaultMaxFileSizeBytes    = 500 * 1024
	configRelPath              = "project.yaml"
)

// DefaultDataDir returns the default `.oya` directory for a repo root.
func DefaultDataDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".oya")
}

func applyDefaults(cfg *RepoConfig) {
	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = defaultEmbeddingDimensions
	}
	if cfg.ParallelFileLimit == 0 {
		cfg.ParallelFileLimit = defaultParallelFileLimit
	}
	if cfg.MaxFileSizeBytes == 0 {
		cfg.MaxFileSizeBytes = defaultMaxFileSizeBytes
	}
	if cfg.LLM == "" {
		cfg.LLM = "ollama"
	}
}

// Load reads `<dataDir>/config/project.yaml` if present, applying defaults
// for any unset field. Missing files are not an error: Load returns a
// default-initialized config for a fresh project.
func Load(repoRoot string, dataDir string) (*RepoConfig, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir(repoRoot)
	}
	cfg := &RepoConfig{
		ProjectID: filepath.Base(repoRoot),
		RepoRoot:  repoRoot,
		DataDir:   dataDir,
	}

	path := filepath.Join(dataDir, "config", configRelPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read project config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse project config %s: %w", path, err)
	}
	cfg.RepoRoot = repoRoot
	cfg.DataDir = dataDir
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the config back to `<DataDir>/config/project.yaml`,
// creating the directory if needed. Initialization is idempotent: calling
// Save repeatedly with the same config is safe.
func Save(cfg *RepoConfig) error {
	dir := filepath.Join(cfg.DataDir, "config")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}

	path := filepath.Join(dir, configRelPath)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("promote project config: %w", err)
	}
	return nil
}

// EnvOverride resolves the API key / host environment variable for a given
// provider name, matching the teacher's env-var documentation convention
// (OLLAMA_HOST, OPENAI_API_KEY, ANTHROPIC_API_KEY).
func EnvOverride(provider string) string {
	switch provider {
	case "ollama":
		if v := os.Getenv("OLLAMA_HOST"); v != "" {
			return v
		}
		return "http://localhost:11434"
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
