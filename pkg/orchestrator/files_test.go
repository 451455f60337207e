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
	"path/filepath"
	"strings"
	"testing"

	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/llm"
	"github.com/oyawiki/engine/pkg/parse"
)

const mockFileSummaryJSON = `{
	"purpose": "Implements the widget loader.",
	"layer": "domain",
	"key_abstractions": ["Widget"],
	"external_deps": [],
	"issues": [],
	"public_api": "- LoadWidget(path string) (*Widget, error)",
	"internal_details": "Parses a fixed-width binary header before the body.",
	"example_code": "w, err := LoadWidget(path)"
}`

func TestGenerateFilePages_RegeneratesChangedFile(t *testing.T) {
	idx, err := index.Open(":memory:")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	pf := &parse.ParsedFile{
		FilePath:  "widget/loader.go",
		Language:  "go",
		LineCount: 10,
		Content:   []byte("package widget\n\nfunc LoadWidget(path string) (*Widget, error) { return nil, nil }\n"),
		Symbols: []parse.Symbol{
			{Name: "LoadWidget", Kind: parse.KindFunction, FilePath: "widget/loader.go", StartLine: 3, EndLine: 3},
		},
	}

	sigStore, err := OpenSignatureStore(filepath.Join(t.TempDir(), "signatures.json"))
	if err != nil {
		t.Fatalf("open signature store: %v", err)
	}

	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: mockFileSummaryJSON}}, nil
		},
	}

	results, err := GenerateFilePages(context.Background(), provider, "mock-model", idx, []*parse.ParsedFile{pf}, sigStore, NoCorrectionNotes{}, 2, nil)
	if err != nil {
		t.Fatalf("generate file pages: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Skipped || r.Degraded {
		t.Fatalf("expected a fresh generation, got skipped=%v degraded=%v", r.Skipped, r.Degraded)
	}
	if !strings.Contains(r.Page, "Implements the widget loader.") {
		t.Errorf("page missing purpose text:\n%s", r.Page)
	}
	if !strings.Contains(r.Page, "## 3. Public API") {
		t.Errorf("page missing Public API section:\n%s", r.Page)
	}
	if !strings.Contains(r.Page, "_(LLM-generated example)_") {
		t.Errorf("expected an LLM-marked synopsis fallback since no doc/callsite exists:\n%s", r.Page)
	}
}

func TestGenerateFilePages_SkipsUnchangedFile(t *testing.T) {
	idx, err := index.Open(":memory:")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	pf := &parse.ParsedFile{
		FilePath: "widget/loader.go",
		Content:  []byte("package widget\n"),
	}

	sigStore, err := OpenSignatureStore(filepath.Join(t.TempDir(), "signatures.json"))
	if err != nil {
		t.Fatalf("open signature store: %v", err)
	}
	sigStore.SetFile(pf.FilePath, FileSignature(pf.Content, ""))

	calls := 0
	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			calls++
			return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: mockFileSummaryJSON}}, nil
		},
	}

	results, err := GenerateFilePages(context.Background(), provider, "mock-model", idx, []*parse.ParsedFile{pf}, sigStore, NoCorrectionNotes{}, 2, nil)
	if err != nil {
		t.Fatalf("generate file pages: %v", err)
	}
	if len(results) != 1 || !results[0].Skipped {
		t.Fatalf("expected the unchanged file to be skipped, got %+v", results)
	}
	if calls != 0 {
		t.Errorf("expected no LLM calls for an unchanged file, got %d", calls)
	}
}
