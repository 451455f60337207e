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

package query

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, dir, name string, lines []string) {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestSourceFetcher_ResolvesLineRange(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "pkg/foo.go", []string{
		"package pkg", "", "func Foo() {", "\treturn", "}",
	})

	f := NewSourceFetcher(dir)
	snippets, err := f.Resolve([]Evidence{{FilePath: "pkg/foo.go", StartLine: 3, EndLine: 5}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(snippets))
	}
	if !strings.Contains(snippets[0].Text, "func Foo()") {
		t.Errorf("expected snippet to contain source, got %q", snippets[0].Text)
	}
	if snippets[0].Truncated {
		t.Errorf("expected no truncation for small snippet")
	}
}

func TestSourceFetcher_TruncatesOversizedSnippet(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, "this is a long line of source code padding out the file")
	}
	writeTestFile(t, dir, "pkg/big.go", lines)

	f := NewSourceFetcher(dir)
	f.SnippetBudget = 50
	f.ResultBudget = 50
	f.TotalBudget = 50
	snippets, err := f.Resolve([]Evidence{{FilePath: "pkg/big.go", StartLine: 1, EndLine: 500}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(snippets))
	}
	if !snippets[0].Truncated {
		t.Error("expected snippet to be truncated")
	}
	if !strings.Contains(snippets[0].Text, "truncated") {
		t.Errorf("expected truncation marker in text, got %q", snippets[0].Text)
	}
}

func TestSourceFetcher_MissingFileYieldsUnavailableNote(t *testing.T) {
	dir := t.TempDir()
	f := NewSourceFetcher(dir)
	snippets, err := f.Resolve([]Evidence{{FilePath: "does/not/exist.go", StartLine: 1, EndLine: 5}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(snippets))
	}
	if !strings.Contains(snippets[0].Text, "source unavailable") {
		t.Errorf("expected unavailable note, got %q", snippets[0].Text)
	}
}

func TestSourceFetcher_GlobalBudgetStopsFurtherSnippets(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", []string{strings.Repeat("x", 2000)})
	writeTestFile(t, dir, "b.go", []string{strings.Repeat("y", 2000)})

	f := NewSourceFetcher(dir)
	f.TotalBudget = 10
	f.ResultBudget = 10
	f.SnippetBudget = 10
	snippets, err := f.Resolve([]Evidence{
		{FilePath: "a.go", StartLine: 1, EndLine: 1},
		{FilePath: "b.go", StartLine: 1, EndLine: 1},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected global budget to cap to 1 snippet, got %d", len(snippets))
	}
}
