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

// Package chunk splits generated wiki pages into retrieval-sized chunks.
//
// Adapted from bbiangul-go-reason's document chunker: the same
// split-by-size-with-overlap shape, retargeted from PDF/document
// sections to markdown headers, with a context prefix prepended to
// every chunk so it stays retrievable without its siblings.
package chunk

import (
	"math"
	"strings"
)

// Tunable limits for chunk construction. Defaults match the sizes the
// hybrid search and Source Fetcher were designed around.
const (
	MaxSectionTokens = 1000
	ChunkSizeTokens  = 1000
	OverlapTokens    = 100
)

// Section is one markdown header block extracted from a generated page.
type Section struct {
	DocumentTitle string
	Header        string
	Body          string
	Level         int
}

// Chunk is a retrieval-sized slice of a page, carrying the context
// prefix and metadata the search layer indexes alongside it.
type Chunk struct {
	ID            string
	DocumentTitle string
	Header        string
	Content       string // includes the context prefix
	Body          string // raw body, no prefix
	Index         int
	TokenEstimate int
}

// Config controls chunking behavior. Zero values take the package defaults.
type Config struct {
	MaxSectionTokens int
	ChunkSizeTokens  int
	OverlapTokens    int
}

// Chunker converts parsed page sections into context-prefixed chunks.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with cfg, substituting defaults for zero fields.
func New(cfg Config) *Chunker {
	if cfg.MaxSectionTokens == 0 {
		cfg.MaxSectionTokens = MaxSectionTokens
	}
	if cfg.ChunkSizeTokens == 0 {
		cfg.ChunkSizeTokens = ChunkSizeTokens
	}
	if cfg.OverlapTokens == 0 {
		cfg.OverlapTokens = OverlapTokens
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits sections into chunks. Each chunk's ID is deterministic:
// see ids.go.
func (c *Chunker) Chunk(pagePath string, sections []Section) []Chunk {
	var chunks []Chunk
	for _, sec := range sections {
		bodyTokens := estimateTokens(sec.Body)
		if bodyTokens <= c.cfg.MaxSectionTokens {
			chunks = append(chunks, c.buildChunk(pagePath, sec, sec.Body, 0, false))
			continue
		}
		fragments := c.splitByWords(sec.Body)
		for i, frag := range fragments {
			chunks = append(chunks, c.buildChunk(pagePath, sec, frag, i, true))
		}
	}
	return chunks
}

func (c *Chunker) buildChunk(pagePath string, sec Section, body string, idx int, forceIndex bool) Chunk {
	body = strings.TrimSpace(body)
	prefix := contextPrefix(sec.DocumentTitle, sec.Header)
	content := prefix + body
	return Chunk{
		ID:            ChunkID(pagePath, sec.Header, idx, forceIndex),
		DocumentTitle: sec.DocumentTitle,
		Header:        sec.Header,
		Content:       content,
		Body:          body,
		Index:         idx,
		TokenEstimate: estimateTokens(content),
	}
}

// contextPrefix builds the "[Document: <title> | Section: <header>]"
// prefix every chunk carries so it is self-describing in isolation.
func contextPrefix(title, header string) string {
	var b strings.Builder
	b.WriteString("[Document: ")
	b.WriteString(title)
	b.WriteString(" | Section: ")
	b.WriteString(header)
	b.WriteString("]\n\n")
	return b.String()
}

// splitByWords breaks text into fragments targeting ChunkSizeTokens,
// each fragment (after the first) starting with OverlapTokens worth of
// trailing words from the previous fragment.
func (c *Chunker) splitByWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	wordsPerChunk := int(float64(c.cfg.ChunkSizeTokens) / tokensPerWord)
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}
	overlapWords := int(float64(c.cfg.OverlapTokens) / tokensPerWord)
	if overlapWords >= wordsPerChunk {
		overlapWords = wordsPerChunk - 1
	}

	var fragments []string
	start := 0
	for start < len(words) {
		end := start + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		fragments = append(fragments, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - overlapWords
		if start <= 0 {
			start = end
		}
	}
	return fragments
}

const tokensPerWord = 1.3

func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * tokensPerWord))
}
