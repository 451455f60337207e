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
	"time"

	"github.com/spf13/pflag"

	"github.com/oyawiki/engine/internal/errors"
	"github.com/oyawiki/engine/internal/output"
	"github.com/oyawiki/engine/internal/ui"
	"github.com/oyawiki/engine/pkg/graph"
	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/search"
)

// StatusResult is the project status, reported as text or JSON.
type StatusResult struct {
	ProjectID     string    `json:"project_id"`
	DataDir       string    `json:"data_dir"`
	Generated     bool      `json:"generated"`
	CodeIndexRows int       `json:"code_index_rows"`
	GraphNodes    int       `json:"graph_nodes"`
	ChunksIndexed int       `json:"chunks_indexed"`
	HookInstalled bool      `json:"hook_installed"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// runStatus executes the 'status' command, reporting how much of the
// wiki and search index has been generated for the current repository.
//
// Examples:
//
//	oyawiki status
//	oyawiki status --json
func runStatus(args []string, configPath string) {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki status [options]

Shows the current repository's generation status.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadRepoConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load oyawiki configuration",
			err.Error(),
			"Run 'oyawiki init' to create a new configuration",
			err,
		), *jsonOutput)
	}

	result := StatusResult{ProjectID: cfg.ProjectID, DataDir: cfg.DataDir, HookInstalled: IsHookInstalled(), Timestamp: time.Now()}

	if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
		result.Error = "project not generated yet; run 'oyawiki generate'"
		printStatus(result, *jsonOutput)
		return
	}

	metaDir := filepath.Join(cfg.DataDir, "meta")

	if idx, err := index.Open(filepath.Join(metaDir, "code_index.db")); err == nil {
		defer idx.Close()
		if n, err := idx.Count(); err == nil {
			result.CodeIndexRows = n
		}
	}

	if g, err := graph.Load(filepath.Join(cfg.DataDir, "graph")); err == nil {
		result.GraphNodes = len(g.Nodes())
	}

	if fts, err := search.OpenFullTextStore(filepath.Join(metaDir, "search_fulltext.db")); err == nil {
		defer fts.Close()
		if n, err := fts.Count(); err == nil {
			result.ChunksIndexed = n
		}
	}

	result.Generated = result.CodeIndexRows > 0

	printStatus(result, *jsonOutput)
}

func printStatus(result StatusResult, asJSON bool) {
	if asJSON {
		output.JSON(result)
		return
	}

	ui.Header("Repository status")
	fmt.Printf("Project ID:      %s\n", result.ProjectID)
	fmt.Printf("Data directory:  %s\n", result.DataDir)
	fmt.Println()
	fmt.Printf("Code index rows: %d\n", result.CodeIndexRows)
	fmt.Printf("Graph nodes:     %d\n", result.GraphNodes)
	fmt.Printf("Chunks indexed:  %d\n", result.ChunksIndexed)
	fmt.Printf("Git hook:        %s\n", hookStatusText(result.HookInstalled))
	if result.Error != "" {
		fmt.Println()
		ui.Warning(result.Error)
	}
}

func hookStatusText(installed bool) string {
	if installed {
		return "installed"
	}
	return "not installed"
}
