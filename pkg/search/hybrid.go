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

package search

import (
	"context"
	"fmt"

	"github.com/oyawiki/engine/pkg/chunk"
)

// ChunkRecord is a chunk plus the facts the search layer persists
// alongside its vectors: its raw content for dedup/display and its
// content type for priority ranking.
type ChunkRecord struct {
	ID      string
	Title   string
	Header  string
	Content string
	Type    string // "note", "code", or "wiki"
}

// Embedder produces a query embedding. Implemented by pkg/llm providers
// that expose an embeddings endpoint, or a test double.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Envelope is the result of a hybrid search call, reporting which
// backing stores actually served results so callers can surface
// degraded-mode warnings.
type Envelope struct {
	Results        []FusedResult
	SemanticQueried bool
	FullTextQueried bool
}

// Hybrid orchestrates the semantic and full-text stores behind a single
// query entrypoint, degrading gracefully when either store is
// unavailable or empty.
type Hybrid struct {
	Semantic        *SemanticStore
	FullText        *FullTextStore
	Embedder        Embedder
	DedupHashLength int
}

// Index upserts a chunk's content into the full-text store and its
// embedding into the semantic store.
func (h *Hybrid) Index(ctx context.Context, rec ChunkRecord) error {
	if h.FullText != nil {
		if err := h.FullText.Upsert(rec.ID, rec.Title, rec.Header, rec.Content, rec.Type); err != nil {
			return fmt.Errorf("index %s into full-text store: %w", rec.ID, err)
		}
	}
	if h.Semantic != nil && h.Embedder != nil {
		vec, err := h.Embedder.Embed(ctx, rec.Content)
		if err != nil {
			return fmt.Errorf("embed %s: %w", rec.ID, err)
		}
		if err := h.Semantic.Upsert(rec.ID, vec); err != nil {
			return fmt.Errorf("index %s into semantic store: %w", rec.ID, err)
		}
	}
	return nil
}

// Delete removes a chunk from both stores.
func (h *Hybrid) Delete(chunkID string) error {
	if h.FullText != nil {
		if err := h.FullText.Delete(chunkID); err != nil {
			return err
		}
	}
	if h.Semantic != nil {
		if err := h.Semantic.Delete(chunkID); err != nil {
			return err
		}
	}
	return nil
}

// Search returns a ranked, deduplicated chunk list for query. contentByID
// and typeByID carry the metadata needed for dedup and type-priority
// sorting; callers build these from their chunk store as results come
// back keyed by ID.
func (h *Hybrid) Search(ctx context.Context, query string, limit int, contentByID, typeByID map[string]string) (Envelope, error) {
	dedupLen := h.DedupHashLength
	if dedupLen == 0 {
		dedupLen = chunk.DedupHashLength
	}

	var semResults []SemanticResult
	var semQueried bool
	if h.Semantic != nil && h.Embedder != nil {
		vec, err := h.Embedder.Embed(ctx, query)
		if err != nil {
			return Envelope{}, fmt.Errorf("embed query: %w", err)
		}
		r, err := h.Semantic.Query(vec, limit*4)
		if err != nil {
			return Envelope{}, fmt.Errorf("semantic query: %w", err)
		}
		semResults = r
		semQueried = true
	}

	var ftsResults []FullTextResult
	var ftsQueried bool
	if h.FullText != nil {
		r, err := h.FullText.Query(query, limit*4)
		if err != nil {
			return Envelope{}, fmt.Errorf("full-text query: %w", err)
		}
		ftsResults = r
		ftsQueried = true
	}

	fused := Fuse(semResults, ftsResults, contentByID, typeByID, dedupLen)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	return Envelope{
		Results:         fused,
		SemanticQueried: semQueried && len(semResults) > 0,
		FullTextQueried: ftsQueried && len(ftsResults) > 0,
	}, nil
}
