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

package cgrag

import (
	"context"
	"fmt"
	"regexp"

	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/query"
)

var (
	// "X in path/to/file.ext" — symbol named before "in", file path after.
	gapFileAndSymbolPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_.]*)\s+in\s+([\w./-]+\.\w+)\b`)
	// bare "func()" or "deps.py"-style mentions.
	gapFunctionCallPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(\s*\)`)
	gapFilePattern         = regexp.MustCompile(`\b[\w./-]+\.\w+\b`)
)

// GapRef is what ExtractGapRef pulls out of a gap description: a
// candidate file path and/or symbol name to resolve directly.
type GapRef struct {
	FilePath string
	Symbol   string
}

// ExtractGapRef parses a gap description for file-and-function
// references using the patterns spec.md names: "X in path/to/file.ext",
// "func()", and bare file mentions like "deps.py".
func ExtractGapRef(gap string) GapRef {
	if m := gapFileAndSymbolPattern.FindStringSubmatch(gap); len(m) == 3 {
		return GapRef{Symbol: m[1], FilePath: m[2]}
	}
	var ref GapRef
	if m := gapFunctionCallPattern.FindStringSubmatch(gap); len(m) == 2 {
		ref.Symbol = m[1]
	}
	if m := gapFilePattern.FindString(gap); m != "" {
		ref.FilePath = m
	}
	return ref
}

// Resolver resolves a CGRAG gap description into context text, trying a
// direct Code Index lookup first and falling back to hybrid search.
type Resolver struct {
	Index   *index.Index
	Fetcher *query.SourceFetcher
	Search  GapSearcher
}

// GapSearcher is the subset of conceptual search a gap resolver needs:
// raw-text semantic/full-text lookup with no mode-specific algorithm.
type GapSearcher interface {
	SearchGap(ctx context.Context, text string) ([]ContextChunk, error)
}

// Resolve returns context chunks for gap, or ok=false if nothing in the
// index or search stores could answer it.
func (r *Resolver) Resolve(ctx context.Context, gap string) ([]ContextChunk, bool, error) {
	ref := ExtractGapRef(gap)

	entries, err := r.lookupDirect(ref)
	if err != nil {
		return nil, false, fmt.Errorf("direct lookup for gap %q: %w", gap, err)
	}
	if len(entries) > 0 {
		chunks, err := r.fetchEntries(entries)
		if err != nil {
			return nil, false, err
		}
		return chunks, true, nil
	}

	if r.Search == nil {
		return nil, false, nil
	}
	chunks, err := r.Search.SearchGap(ctx, gap)
	if err != nil {
		return nil, false, fmt.Errorf("semantic fallback for gap %q: %w", gap, err)
	}
	return chunks, len(chunks) > 0, nil
}

func (r *Resolver) lookupDirect(ref GapRef) ([]index.Entry, error) {
	switch {
	case ref.FilePath != "" && ref.Symbol != "":
		entries, err := r.Index.FindByFileAndSymbol(ref.FilePath, ref.Symbol)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}
		entries, err = r.Index.FindByFile(ref.FilePath)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}
		return r.Index.FindBySymbol(ref.Symbol)
	case ref.FilePath != "":
		return r.Index.FindByFile(ref.FilePath)
	case ref.Symbol != "":
		return r.Index.FindBySymbol(ref.Symbol)
	default:
		return nil, nil
	}
}

func (r *Resolver) fetchEntries(entries []index.Entry) ([]ContextChunk, error) {
	var evidence []query.Evidence
	for _, e := range entries {
		evidence = append(evidence, query.Evidence{
			FilePath: e.FilePath, SymbolName: e.SymbolName,
			StartLine: e.StartLine, EndLine: e.EndLine, Signature: e.Signature,
		})
	}
	snippets, err := r.Fetcher.Resolve(evidence)
	if err != nil {
		return nil, fmt.Errorf("fetch gap source: %w", err)
	}
	var chunks []ContextChunk
	for _, s := range snippets {
		chunks = append(chunks, ContextChunk{
			ChunkID: fmt.Sprintf("%s::%s", s.Evidence.FilePath, s.Evidence.SymbolName),
			Content: s.Text,
		})
	}
	return chunks, nil
}
