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
	"context"
	"fmt"

	"github.com/oyawiki/engine/pkg/search"
)

const conceptualDefaultLimit = 10

// ChunkCatalog resolves chunk IDs returned by a hybrid search to the
// content and type metadata the RRF fuser needs for dedup and
// type-priority sorting. Backed by whatever store persisted the chunk
// records at indexing time.
type ChunkCatalog interface {
	Lookup(ids []string) (contentByID, typeByID map[string]string, err error)
}

// ConceptualRetriever has no algorithm of its own: it defers entirely
// to hybrid search, since a conceptual question ("what does X do",
// "explain Y") is answered by whatever wiki/code/note content ranks
// highest, not by a graph walk.
type ConceptualRetriever struct {
	Hybrid  *search.Hybrid
	Catalog ChunkCatalog
}

func (c *ConceptualRetriever) Retrieve(ctx context.Context, question string) (RetrievalResult, search.Envelope, error) {
	// A first pass over the fulltext/semantic stores alone can't supply
	// contentByID/typeByID up front, so probe with empty maps, collect
	// the candidate IDs, then re-fuse with real metadata from the catalog.
	// Dedup is off for the probe: with no content known yet, every
	// candidate would share the empty prefix and collapse into one.
	probeHybrid := *c.Hybrid
	probeHybrid.DedupHashLength = -1
	probe, err := probeHybrid.Search(ctx, question, conceptualDefaultLimit, map[string]string{}, map[string]string{})
	if err != nil {
		return RetrievalResult{}, search.Envelope{}, fmt.Errorf("conceptual probe search: %w", err)
	}

	ids := make([]string, 0, len(probe.Results))
	for _, r := range probe.Results {
		ids = append(ids, r.ChunkID)
	}
	contentByID, typeByID, err := c.Catalog.Lookup(ids)
	if err != nil {
		return RetrievalResult{}, search.Envelope{}, fmt.Errorf("resolve chunk catalog: %w", err)
	}

	env, err := c.Hybrid.Search(ctx, question, conceptualDefaultLimit, contentByID, typeByID)
	if err != nil {
		return RetrievalResult{}, search.Envelope{}, fmt.Errorf("conceptual search: %w", err)
	}

	var evidence []Evidence
	for _, r := range env.Results {
		evidence = append(evidence, Evidence{
			FilePath: r.ChunkID,
			Note:     r.Content,
		})
	}

	return RetrievalResult{Mode: Conceptual, Evidence: evidence}, env, nil
}
