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

package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oyawiki/engine/internal/config"
	"github.com/oyawiki/engine/pkg/llm"
)

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestOrchestrator_Run_GeneratesAndIndexesWiki(t *testing.T) {
	repoRoot := t.TempDir()
	writeRepoFile(t, repoRoot, "main.go", "package main\n\nfunc main() {}\n")
	writeRepoFile(t, repoRoot, "pkg/widget/widget.go", "package widget\n\nfunc New() *Widget { return &Widget{} }\n\ntype Widget struct{}\n")

	dataDir := filepath.Join(repoRoot, ".oya")
	cfg := &config.RepoConfig{
		ProjectID:           "fixture",
		RepoRoot:            repoRoot,
		DataDir:             dataDir,
		EmbeddingDimensions: 8,
		LLMModel:            "mock-model",
		ParallelFileLimit:   2,
		MaxFileSizeBytes:    500 * 1024,
	}

	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			sys := req.Messages[0].Content
			switch {
			case sys == llm.WikiPrompts.FileSummary:
				out, _ := json.Marshal(llmFileOutput{
					Purpose:         "Implements a small widget type.",
					Layer:           "domain",
					PublicAPI:       "- New() *Widget",
					InternalDetails: "Trivial constructor.",
					ExampleCode:     "w := widget.New()",
				})
				return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: string(out)}}, nil
			case sys == llm.WikiPrompts.DirectorySummary:
				out, _ := json.Marshal(llmDirOutput{Purpose: "Groups related files.", Layer: "domain"})
				return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: string(out)}}, nil
			default:
				return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: "# Architecture\n\nTwo files, one package each."}}, nil
			}
		},
	}

	orch := &Orchestrator{Config: cfg, Provider: provider}

	result, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesGenerated != 2 {
		t.Errorf("expected 2 files generated, got %d", result.FilesGenerated)
	}
	if result.DirsGenerated == 0 {
		t.Error("expected at least one directory page generated")
	}
	if result.ChunksIndexed == 0 {
		t.Error("expected at least one chunk indexed")
	}

	liveDir := filepath.Join(dataDir, "wiki")
	if _, err := os.Stat(filepath.Join(liveDir, "README.md")); err != nil {
		t.Errorf("expected a promoted root page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(liveDir, "architecture.md")); err != nil {
		t.Errorf("expected a promoted architecture page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(liveDir, "main.go.md")); err != nil {
		t.Errorf("expected a promoted page for main.go: %v", err)
	}

	// A second run with nothing changed should skip every file and
	// directory and make no LLM calls for them.
	calls := 0
	provider.ChatFunc = func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		calls++
		out, _ := json.Marshal(llmDirOutput{Purpose: "x"})
		return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: string(out)}}, nil
	}
	second, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.FilesGenerated != 0 || second.FilesSkipped != 2 {
		t.Errorf("expected the second run to skip both unchanged files, got %+v", second)
	}
	// Synthesize always runs (its scope isn't signature-gated), so the
	// only call on an otherwise-unchanged run is the architecture page.
	if calls != 1 {
		t.Errorf("expected exactly 1 LLM call (synthesis) on an unchanged second run, got %d", calls)
	}
}
