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
	"path/filepath"
	"sync"
	"testing"

	"github.com/oyawiki/engine/pkg/llm"
	"github.com/oyawiki/engine/pkg/wiki"
)

func TestGenerateDirectoryPages_ProcessesBottomUpByDepth(t *testing.T) {
	fileResults := []FilePageResult{
		{RelPath: "pkg/sub/file.go", Sig: "h1"},
		{RelPath: "pkg/top.go", Sig: "h2"},
		{RelPath: "main.go", Sig: "h3"},
	}
	fileSummaries := map[string]wiki.FileSummary{
		"pkg/sub/file.go": {Purpose: "helper for sub"},
		"pkg/top.go":      {Purpose: "pkg entry point"},
		"main.go":         {Purpose: "binary entry point"},
	}

	var mu sync.Mutex
	var order []string

	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			var dirMarker string
			for _, m := range req.Messages {
				dirMarker += m.Content
			}
			mu.Lock()
			order = append(order, dirMarker)
			mu.Unlock()
			out, _ := json.Marshal(llmDirOutput{Purpose: "synthesized purpose", Layer: "domain"})
			return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: string(out)}}, nil
		},
	}

	sigStore, err := OpenSignatureStore(filepath.Join(t.TempDir(), "signatures.json"))
	if err != nil {
		t.Fatalf("open signature store: %v", err)
	}

	results, err := GenerateDirectoryPages(context.Background(), provider, "mock-model", fileResults, fileSummaries, sigStore, NoCorrectionNotes{}, 2, nil)
	if err != nil {
		t.Fatalf("generate directory pages: %v", err)
	}

	byDir := make(map[string]DirPageResult)
	for _, r := range results {
		byDir[r.DirPath] = r
	}
	for _, want := range []string{"", "pkg", "pkg/sub"} {
		if _, ok := byDir[want]; !ok {
			t.Errorf("expected a page for directory %q, got %v", want, byDir)
		}
	}

	root := byDir[""]
	if root.Purpose != "synthesized purpose" {
		t.Errorf("root purpose = %q", root.Purpose)
	}
}

func TestGenerateDirectoryPages_SkipsUnchangedDirectory(t *testing.T) {
	fileResults := []FilePageResult{{RelPath: "main.go", Sig: "h1"}}
	fileSummaries := map[string]wiki.FileSummary{"main.go": {Purpose: "binary entry point"}}

	sigStore, err := OpenSignatureStore(filepath.Join(t.TempDir(), "signatures.json"))
	if err != nil {
		t.Fatalf("open signature store: %v", err)
	}
	sigStore.SetDir("", DirectorySignature(map[string]string{"main.go": "h1"}, map[string]string{}))

	calls := 0
	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			calls++
			out, _ := json.Marshal(llmDirOutput{Purpose: "x", Layer: "domain"})
			return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: string(out)}}, nil
		},
	}

	results, err := GenerateDirectoryPages(context.Background(), provider, "mock-model", fileResults, fileSummaries, sigStore, NoCorrectionNotes{}, 1, nil)
	if err != nil {
		t.Fatalf("generate directory pages: %v", err)
	}
	if len(results) != 1 || !results[0].Skipped {
		t.Fatalf("expected the unchanged root directory to be skipped, got %+v", results)
	}
	if calls != 0 {
		t.Errorf("expected no LLM calls for an unchanged directory, got %d", calls)
	}
}
