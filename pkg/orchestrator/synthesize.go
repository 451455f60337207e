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
	"sort"
	"strings"

	"github.com/oyawiki/engine/pkg/llm"
)

// ArchitecturePage is the Synthesize phase's output: a top-level page
// describing the repository's major subsystems and how they relate.
type ArchitecturePage struct {
	Title   string
	Content string
}

// Synthesize produces the repository's architecture page from the
// aggregate of directory purposes the Directories phase already
// computed. Spec.md leaves this phase's exact shape underspecified
// beyond "consumes summaries from previous phases"; this implementation
// feeds every directory purpose (sorted by path, root first) to a
// single synthesis call, grounded on
// llm.WikiPrompts.Synthesis.
func Synthesize(ctx context.Context, provider llm.Provider, model string, dirResults []DirPageResult) (ArchitecturePage, error) {
	sorted := make([]DirPageResult, len(dirResults))
	copy(sorted, dirResults)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DirPath < sorted[j].DirPath })

	var b strings.Builder
	b.WriteString("Directory summaries, sorted by path:\n\n")
	for _, r := range sorted {
		dir := r.DirPath
		if dir == "" {
			dir = "(root)"
		}
		purpose := r.Purpose
		if purpose == "" {
			purpose = "(no purpose recorded; generation may have failed for this directory)"
		}
		fmt.Fprintf(&b, "- %s: %s\n", dir, purpose)
	}
	b.WriteString("\nWrite the architecture page now, in markdown, starting with a top-level heading.\n")

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: "system", Content: llm.WikiPrompts.Synthesis},
			{Role: "user", Content: b.String()},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return ArchitecturePage{}, fmt.Errorf("synthesize architecture page: %w", err)
	}

	return ArchitecturePage{
		Title:   "Architecture",
		Content: strings.TrimSpace(resp.Message.Content),
	}, nil
}
