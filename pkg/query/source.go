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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default token budgets per spec: a total ceiling across every snippet
// in a single retrieval result, a per-result ceiling, and a per-snippet
// ceiling, all approximated with the same chars-per-token ratio the
// chunker uses.
const (
	DefaultTotalBudget  = 6000
	DefaultResultBudget = 1500
	DefaultSnippetBudget = 500
	charsPerToken       = 4
	truncationMarker    = "\n... [truncated]\n"
)

// SourceFetcher resolves Evidence (file + line range) into actual
// source text read from the repository root, enforcing token budgets
// so a flood of evidence can't blow out an LLM prompt.
type SourceFetcher struct {
	RepoRoot      string
	TotalBudget   int
	ResultBudget  int
	SnippetBudget int
}

// NewSourceFetcher returns a fetcher configured with the default budgets.
func NewSourceFetcher(repoRoot string) *SourceFetcher {
	return &SourceFetcher{
		RepoRoot: repoRoot, TotalBudget: DefaultTotalBudget,
		ResultBudget: DefaultResultBudget, SnippetBudget: DefaultSnippetBudget,
	}
}

// Snippet is one resolved piece of evidence, ready to fold into a prompt.
type Snippet struct {
	Evidence  Evidence
	Text      string
	Truncated bool
}

// Resolve reads the source range for each piece of evidence, truncating
// per-snippet, per-result (the first N evidence items), and globally.
func (f *SourceFetcher) Resolve(evidence []Evidence) ([]Snippet, error) {
	totalBudget := f.budget(f.TotalBudget, DefaultTotalBudget)
	resultBudget := f.budget(f.ResultBudget, DefaultResultBudget)
	snippetBudget := f.budget(f.SnippetBudget, DefaultSnippetBudget)

	var out []Snippet
	totalTokensUsed := 0
	resultTokensUsed := 0

	for _, ev := range evidence {
		if totalTokensUsed >= totalBudget {
			break
		}
		text, err := f.readRange(ev.FilePath, ev.StartLine, ev.EndLine)
		if err != nil {
			out = append(out, Snippet{Evidence: ev, Text: fmt.Sprintf("(source unavailable: %v)", err)})
			continue
		}

		remaining := snippetBudget
		if resultTokensUsed+remaining > resultBudget {
			remaining = resultBudget - resultTokensUsed
		}
		if totalTokensUsed+remaining > totalBudget {
			remaining = totalBudget - totalTokensUsed
		}
		if remaining <= 0 {
			break
		}

		snippet, truncated := truncateToTokens(text, remaining)
		out = append(out, Snippet{Evidence: ev, Text: snippet, Truncated: truncated})

		used := estimateSnippetTokens(snippet)
		totalTokensUsed += used
		resultTokensUsed += used
	}
	return out, nil
}

func (f *SourceFetcher) budget(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

func (f *SourceFetcher) readRange(path string, start, end int) (string, error) {
	full := filepath.Join(f.RepoRoot, path)
	fh, err := os.Open(full)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	if start <= 0 {
		start = 1
	}
	if end < start {
		end = start
	}

	var lines []string
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < start {
			continue
		}
		if lineNo > end {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.Join(lines, "\n"), nil
}

func estimateSnippetTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// truncateToTokens cuts text to roughly maxTokens, appending the
// truncation marker when the cut actually drops content.
func truncateToTokens(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return "", len(text) > 0
	}
	maxChars := maxTokens * charsPerToken
	if len(text) <= maxChars {
		return text, false
	}
	cut := maxChars - len(truncationMarker)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + truncationMarker, true
}
