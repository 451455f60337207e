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

package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DedupHashLength is the number of leading content characters the
// hybrid search compares to detect duplicate chunks after RRF merge.
const DedupHashLength = 64

// ChunkID derives a chunk's ID as
// wiki_{slugified(documentPath without .md)}_{slugified(header)}[_{index}],
// trailing the index only when the section split into multiple chunks
// (index > 0 or forceIndex is set). Deterministic across identical
// regeneration runs so signature-gated rebuilds diff chunk sets cleanly.
func ChunkID(documentPath, header string, index int, forceIndex bool) string {
	docSlug := slugify(strings.TrimSuffix(documentPath, ".md"))
	id := "wiki_" + docSlug
	if h := slugify(header); h != "" {
		id += "_" + h
	}
	if index > 0 || forceIndex {
		id += fmt.Sprintf("_%d", index)
	}
	return id
}

// slugify lower-cases s, replaces '/', '_' and spaces with '-', strips
// any other non-alphanumeric, non-hyphen character, collapses repeated
// '-' and trims leading and trailing '-'.
func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '/' || r == ' ' || r == '_':
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// ContentHash returns the SHA-256 hex digest of content, used both for
// chunk staleness checks and dedup key construction.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DedupKey returns the leading DedupHashLength characters of content,
// the key the search layer groups near-duplicate chunks by.
func DedupKey(content string) string {
	if len(content) <= DedupHashLength {
		return content
	}
	return content[:DedupHashLength]
}
