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

import "strings"

// EntryPoint ties a short description to the source file that defines it.
type EntryPoint struct {
	FilePath    string
	Description string
}

// Metadata is the structural enrichment attached to a chunk at index
// time, consumed by the hybrid search for metadata-equality filtering.
type Metadata struct {
	Layer       string
	Symbols     []string
	Imports     []string
	EntryPoints []string
}

// FileFacts bundles the per-source-file knowledge MetadataExtractor
// draws on: its architectural layer, the symbols it defines, its
// imports, and any entry-point descriptions tied to it.
type FileFacts struct {
	Layer       string
	Symbols     []string
	Imports     []string
	EntryPoints []string
}

// MetadataExtractor enriches chunks with facts about the source file a
// wiki page was generated from. Initialized once per generation run
// with the synthesis phase's layer assignments.
type MetadataExtractor struct {
	factsByFile map[string]FileFacts
}

// NewMetadataExtractor builds an extractor from a layer-assignment map
// (source file -> architectural layer), the parsed symbol set per
// file, per-file imports, and entry-point descriptions, all keyed by
// source file path.
func NewMetadataExtractor(layers map[string]string, symbolsByFile map[string][]string, importsByFile map[string][]string, entryPointsByFile map[string][]string) *MetadataExtractor {
	seen := make(map[string]bool)
	for _, m := range []map[string]string{layers} {
		for file := range m {
			seen[file] = true
		}
	}
	for _, m := range []map[string][]string{symbolsByFile, importsByFile, entryPointsByFile} {
		for file := range m {
			seen[file] = true
		}
	}

	facts := make(map[string]FileFacts, len(seen))
	for file := range seen {
		facts[file] = FileFacts{
			Layer:       layers[file],
			Symbols:     symbolsByFile[file],
			Imports:     importsByFile[file],
			EntryPoints: entryPointsByFile[file],
		}
	}
	return &MetadataExtractor{factsByFile: facts}
}

// Extract computes the Metadata for a chunk generated from sourceFile.
// symbols is filtered to those that textually appear in the chunk body;
// imports and entry_points pass through unfiltered.
func (m *MetadataExtractor) Extract(sourceFile string, ch Chunk) Metadata {
	facts, ok := m.factsByFile[sourceFile]
	if !ok {
		return Metadata{}
	}

	var present []string
	for _, sym := range facts.Symbols {
		if sym != "" && strings.Contains(ch.Body, sym) {
			present = append(present, sym)
		}
	}

	return Metadata{
		Layer:       facts.Layer,
		Symbols:     present,
		Imports:     facts.Imports,
		EntryPoints: facts.EntryPoints,
	}
}
