// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oyawiki/engine/internal/config"
	"github.com/oyawiki/engine/pkg/llm"
)

// loadRepoConfig resolves the repo root from the current working
// directory and loads its project config, honoring an explicit
// --config path override (the directory two levels above
// .../config/project.yaml is used as the data dir itself).
func loadRepoConfig(configPath string) (*config.RepoConfig, error) {
	repoRoot, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get current directory: %w", err)
	}

	dataDir := config.DefaultDataDir(repoRoot)
	if configPath != "" {
		dataDir = filepath.Dir(filepath.Dir(configPath))
	}

	return config.Load(repoRoot, dataDir)
}

// providerFor builds the LLM provider cfg names, resolving API keys and
// hosts from the environment the same way the teacher's NewProvider env
// lookup does.
func providerFor(cfg *config.RepoConfig) (llm.Provider, error) {
	provCfg := llm.ProviderConfig{
		Type:         cfg.LLM,
		DefaultModel: cfg.LLMModel,
	}
	switch cfg.LLM {
	case "ollama":
		provCfg.BaseURL = config.EnvOverride("ollama")
	case "openai":
		provCfg.APIKey = config.EnvOverride("openai")
	case "anthropic":
		provCfg.APIKey = config.EnvOverride("anthropic")
	}
	return llm.NewProvider(provCfg)
}
