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

package index

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/oyawiki/engine/pkg/parse"
)

// indexableKinds are the symbol kinds the Code Index keeps rows for.
var indexableKinds = map[parse.SymbolKind]bool{
	parse.KindFunction:  true,
	parse.KindMethod:    true,
	parse.KindClass:     true,
	parse.KindStruct:    true,
	parse.KindInterface: true,
}

// EntriesFromFiles projects parsed files' indexable symbols into Code
// Index entries ready for Build. source_hash is computed per source
// file's content, used for staleness detection.
func EntriesFromFiles(files []*parse.ParsedFile) []Entry {
	var out []Entry
	for _, f := range files {
		hash := contentHash(f.Content)
		for _, sym := range f.Symbols {
			if !indexableKinds[sym.Kind] {
				continue
			}
			out = append(out, Entry{
				FilePath:     sym.FilePath,
				SymbolName:   sym.Name,
				StartLine:    sym.StartLine,
				EndLine:      sym.EndLine,
				Signature:    sym.Signature,
				Docstring:    sym.Docstring,
				Calls:        sym.Calls,
				Raises:       sym.Raises,
				Mutates:      sym.Mutates,
				ErrorStrings: sym.ErrorStrings,
				SourceHash:   hash,
			})
		}
	}
	return out
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
