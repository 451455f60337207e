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

import "sort"

// rrfK is the Reciprocal Rank Fusion constant (standard literature value),
// grounded on bbiangul-go-reason's retrieval/rrf.go.
const rrfK = 60

// missingRank is the sentinel rank assigned to a result absent from one
// of the two ranked lists being fused.
const missingRank = 1000

// typePriority orders chunk content types so human-authored notes rank
// above generated code excerpts, which rank above generated wiki prose.
var typePriority = map[string]int{
	"note": 0,
	"code": 1,
	"wiki": 2,
}

// FusedResult is one chunk ranked by combined semantic + full-text score.
type FusedResult struct {
	ChunkID    string
	Content    string
	Type       string
	Score      float64
	SemanticOK bool
	FullTextOK bool
}

// Fuse merges semantic and full-text rankings via RRF, applies an
// optional type-priority pre-sort, and deduplicates by shared content
// prefix, keeping the higher-ranked chunk of any pair that collides.
func Fuse(semantic []SemanticResult, fulltext []FullTextResult, contentByID map[string]string, typeByID map[string]string, dedupHashLength int) []FusedResult {
	semRank := make(map[string]int, len(semantic))
	for _, r := range semantic {
		semRank[r.ChunkID] = r.Rank
	}
	ftsRank := make(map[string]int, len(fulltext))
	for _, r := range fulltext {
		ftsRank[r.ChunkID] = r.Rank
	}

	seen := make(map[string]bool)
	var results []FusedResult
	for id := range semRank {
		seen[id] = true
	}
	for id := range ftsRank {
		seen[id] = true
	}

	for id := range seen {
		sr, inSem := semRank[id]
		if !inSem {
			sr = missingRank
		}
		fr, inFTS := ftsRank[id]
		if !inFTS {
			fr = missingRank
		}
		score := 1.0/float64(rrfK+sr+1) + 1.0/float64(rrfK+fr+1)
		results = append(results, FusedResult{
			ChunkID:    id,
			Content:    contentByID[id],
			Type:       typeByID[id],
			Score:      score,
			SemanticOK: inSem,
			FullTextOK: inFTS,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := typePriority[results[i].Type], typePriority[results[j].Type]
		if pi != pj {
			return pi < pj
		}
		return results[i].Score > results[j].Score
	})

	return dedupByPrefix(results, dedupHashLength)
}

// dedupByPrefix drops any result whose content shares its first n
// characters with an earlier (higher-ranked) result.
func dedupByPrefix(results []FusedResult, n int) []FusedResult {
	if n <= 0 {
		return results
	}
	seenPrefix := make(map[string]bool, len(results))
	out := make([]FusedResult, 0, len(results))
	for _, r := range results {
		prefix := r.Content
		if len(prefix) > n {
			prefix = prefix[:n]
		}
		if seenPrefix[prefix] {
			continue
		}
		seenPrefix[prefix] = true
		out = append(out, r)
	}
	return out
}
