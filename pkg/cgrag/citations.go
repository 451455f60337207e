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
	"regexp"
	"strings"
)

// Citation is a reference the answer makes to a piece of context,
// matched back to the chunk it most likely came from.
type Citation struct {
	Text     string
	ChunkID  string
	Verified bool
}

var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[Source\s*(\d+)\]`),
	regexp.MustCompile(`\(([\w./-]+\.\w+)\)`),
	regexp.MustCompile(`\b([\w./-]+\.\w+):(\d+)\b`),
}

// ExtractCitations finds citation-shaped references in an answer and
// tries to match each to a chunk ID from the accumulated context.
func ExtractCitations(answer string, context []ContextChunk) []Citation {
	var citations []Citation
	seen := make(map[string]bool)

	for _, p := range citationPatterns {
		for _, m := range p.FindAllStringSubmatch(answer, -1) {
			ref := strings.TrimSpace(m[0])
			if seen[ref] {
				continue
			}
			seen[ref] = true

			c := Citation{Text: ref}
			c.ChunkID, c.Verified = matchCitationToChunk(m, context)
			citations = append(citations, c)
		}
	}
	return citations
}

func matchCitationToChunk(match []string, context []ContextChunk) (string, bool) {
	if len(match) < 2 {
		return "", false
	}
	ref := strings.ToLower(match[1])
	for _, c := range context {
		if strings.Contains(strings.ToLower(c.ChunkID), ref) {
			return c.ChunkID, true
		}
	}
	// "[Source N]" indexes into context positionally.
	if n := sourceIndex(match[1]); n > 0 && n <= len(context) {
		return context[n-1].ChunkID, true
	}
	return "", false
}

func sourceIndex(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
