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

// Package bootstrap creates and opens the on-disk layout a project's
// `.oya` data directory needs before the orchestrator can run:
// project.yaml plus the meta/, graph/, and wiki/ subdirectories.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oyawiki/engine/internal/config"
)

// ProjectInfo describes an initialized or opened project.
type ProjectInfo struct {
	ProjectID string
	RepoRoot  string
	DataDir   string
}

// dataSubdirs are created eagerly so the orchestrator and its phases
// never have to guard against a missing parent directory on first run.
var dataSubdirs = []string{"meta", "graph", "wiki"}

// InitProject creates a project's `.oya` data directory tree and writes
// cfg to its config/project.yaml, replacing any existing file. Existing
// directories are left as they are; the returned ProjectInfo is built
// from cfg.
func InitProject(cfg *config.RepoConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RepoRoot == "" {
		return nil, fmt.Errorf("repo_root is required")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir(cfg.RepoRoot)
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", cfg.ProjectID, "data_dir", cfg.DataDir)

	for _, sub := range dataSubdirs {
		if err := os.MkdirAll(filepath.Join(cfg.DataDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}

	if err := config.Save(cfg); err != nil {
		return nil, fmt.Errorf("save project config: %w", err)
	}

	logger.Info("bootstrap.project.init.success",
		"project_id", cfg.ProjectID, "data_dir", cfg.DataDir)

	return &ProjectInfo{ProjectID: cfg.ProjectID, RepoRoot: cfg.RepoRoot, DataDir: cfg.DataDir}, nil
}

// OpenProject loads an existing project's config, failing if its data
// directory has never been initialized.
func OpenProject(repoRoot, dataDir string) (*config.RepoConfig, error) {
	if dataDir == "" {
		dataDir = config.DefaultDataDir(repoRoot)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'oyawiki init' first)", dataDir)
	}
	return config.Load(repoRoot, dataDir)
}
