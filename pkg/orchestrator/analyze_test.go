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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/oyawiki/engine/pkg/index"
)

func writeDiscoverable(t *testing.T, root, rel, content string) DiscoveredFile {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return DiscoveredFile{RelPath: rel, AbsPath: full, Size: int64(len(content)), Language: "go"}
}

func TestAnalyze_SequentialBelowThreshold(t *testing.T) {
	root := t.TempDir()
	files := []DiscoveredFile{
		writeDiscoverable(t, root, "pkg/widget/widget.go", "package widget\n\nfunc New() *Widget { return &Widget{} }\n\ntype Widget struct{}\n"),
		writeDiscoverable(t, root, "main.go", "package main\n\nimport \"example.com/m/pkg/widget\"\n\nfunc main() { widget.New() }\n"),
	}

	idx, err := index.Open(":memory:")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	result, err := Analyze(context.Background(), idx, files, 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 parsed files, got %d", len(result.Files))
	}
	if len(result.FileHashes) != 2 {
		t.Fatalf("expected 2 file hashes, got %d", len(result.FileHashes))
	}
	for _, pf := range result.Files {
		if filepath.IsAbs(pf.FilePath) {
			t.Errorf("expected relative FilePath, got %q", pf.FilePath)
		}
	}
	if result.Graph == nil {
		t.Error("expected a built graph")
	}
	if result.ParseErrors != 0 {
		t.Errorf("expected no parse errors, got %d", result.ParseErrors)
	}
}

func TestAnalyze_ParallelAboveThreshold(t *testing.T) {
	root := t.TempDir()
	var files []DiscoveredFile
	for i := 0; i < parallelParseThreshold+5; i++ {
		rel := fmt.Sprintf("pkg/gen%d/file.go", i)
		content := fmt.Sprintf("package gen%d\n\nfunc F%d() int { return %d }\n", i, i, i)
		files = append(files, writeDiscoverable(t, root, rel, content))
	}

	idx, err := index.Open(":memory:")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	result, err := Analyze(context.Background(), idx, files, 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(result.Files) != len(files) {
		t.Fatalf("expected %d parsed files, got %d", len(files), len(result.Files))
	}
	if len(result.FileHashes) != len(files) {
		t.Fatalf("expected %d file hashes, got %d", len(files), len(result.FileHashes))
	}
}

func TestAnalyze_CountsUnreadableFileAsParseError(t *testing.T) {
	root := t.TempDir()
	good := writeDiscoverable(t, root, "main.go", "package main\n\nfunc main() {}\n")
	missing := DiscoveredFile{RelPath: "ghost.go", AbsPath: filepath.Join(root, "ghost.go"), Language: "go"}

	idx, err := index.Open(":memory:")
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	result, err := Analyze(context.Background(), idx, []DiscoveredFile{good, missing}, 4)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.ParseErrors != 1 {
		t.Errorf("expected 1 parse error for the unreadable file, got %d", result.ParseErrors)
	}
	if len(result.Files) != 1 {
		t.Errorf("expected only the readable file to be parsed, got %d", len(result.Files))
	}
}
