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

package parse

import (
	"os"
	"path/filepath"
	"strings"
)

// FileParser parses a single source file into a ParsedFile. Implementations
// never return an error for syntactically broken source: a best-effort
// partial result is returned instead, with PartialParse set. A ParseError
// is only returned when the source could not be read/decoded at all.
type FileParser interface {
	ParseFile(path string, content []byte) (*ParsedFile, error)
}

// Ensure implementations satisfy the interface.
var _ FileParser = (*GoParser)(nil)
var _ FileParser = (*SimplifiedParser)(nil)

// LanguageFor returns the language for a file extension, or "" if
// unrecognized. Unrecognized languages are skipped by Discover.
func LanguageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	default:
		return ""
	}
}

// NewParserFor returns the best parser for a file's language. Go uses the
// tree-sitter grammar; other languages use the line-oriented simplified
// parser, which does not require CGO.
func NewParserFor(language string) FileParser {
	switch language {
	case "go":
		return NewGoParser()
	default:
		return NewSimplifiedParser(language)
	}
}

// ParsePath is a convenience wrapper that reads a file from disk and
// dispatches to the right parser. It returns a ParseError only for I/O
// failures, matching the spec's failure semantics.
func ParsePath(path string) (*ParsedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	lang := LanguageFor(path)
	if lang == "" {
		return &ParsedFile{FilePath: normalizePath(path), Language: "", Content: content}, nil
	}
	p := NewParserFor(lang)
	pf, err := p.ParseFile(path, content)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	return pf, nil
}
