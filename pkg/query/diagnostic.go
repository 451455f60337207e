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
	"regexp"

	"github.com/oyawiki/engine/pkg/index"
)

const (
	maxErrorSites    = 5
	maxMutatingCallers = 3
)

var (
	exceptionTypePattern = regexp.MustCompile(`\b(?:[A-Za-z_][A-Za-z0-9_]*\.)?[A-Z][A-Za-z0-9_]*(?:Error|Exception)\b`)
	quotedStringPattern  = regexp.MustCompile(`"([^"]{5,})"|'([^']{5,})'`)
	filePathPattern      = regexp.MustCompile(`\b[\w./-]+\.(go|py|js|ts|tsx|jsx)\b`)
	inFunctionPattern    = regexp.MustCompile(`\bin\s+([A-Za-z_][A-Za-z0-9_]*)\b`)
)

// DiagnosticRetriever traces a reported failure back to likely error
// sites and the state-mutating callers that could have triggered them.
type DiagnosticRetriever struct {
	Index *index.Index
}

// ExtractAnchors pulls exception types, quoted error strings, file
// paths, and function names ("in Foo") out of a diagnostic question.
func ExtractAnchors(question string) []string {
	var anchors []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			anchors = append(anchors, s)
		}
	}

	for _, m := range exceptionTypePattern.FindAllString(question, -1) {
		add(m)
	}
	for _, m := range quotedStringPattern.FindAllStringSubmatch(question, -1) {
		if m[1] != "" {
			add(m[1])
		} else if m[2] != "" {
			add(m[2])
		}
	}
	for _, m := range filePathPattern.FindAllString(question, -1) {
		add(m)
	}
	for _, m := range inFunctionPattern.FindAllStringSubmatch(question, -1) {
		add(m[1])
	}
	return anchors
}

// Retrieve resolves anchors against the Code Index, collects up to
// maxErrorSites distinct error sites, then walks one hop backward via
// callers, prioritizing mutating callers.
func (d *DiagnosticRetriever) Retrieve(question string) (RetrievalResult, error) {
	anchors := ExtractAnchors(question)

	type siteKey struct{ file, symbol string }
	seen := make(map[siteKey]bool)
	var sites []index.Entry

	collect := func(entries []index.Entry) {
		for _, e := range entries {
			k := siteKey{e.FilePath, e.SymbolName}
			if seen[k] {
				continue
			}
			seen[k] = true
			sites = append(sites, e)
			if len(sites) >= maxErrorSites {
				return
			}
		}
	}

	for _, a := range anchors {
		if len(sites) >= maxErrorSites {
			break
		}
		byRaises, err := d.Index.FindByRaises(a)
		if err != nil {
			return RetrievalResult{}, err
		}
		collect(byRaises)
		if len(sites) >= maxErrorSites {
			break
		}
		byErr, err := d.Index.FindByErrorString(a)
		if err != nil {
			return RetrievalResult{}, err
		}
		collect(byErr)
		if len(sites) >= maxErrorSites {
			break
		}
		bySymbol, err := d.Index.FindBySymbol(a)
		if err != nil {
			return RetrievalResult{}, err
		}
		collect(bySymbol)
	}

	var evidence []Evidence
	for _, s := range sites {
		evidence = append(evidence, Evidence{
			FilePath: s.FilePath, SymbolName: s.SymbolName,
			StartLine: s.StartLine, EndLine: s.EndLine, Signature: s.Signature,
			Note: "error site",
		})
	}

	mutatingCallers := 0
	for _, s := range sites {
		if mutatingCallers >= maxMutatingCallers {
			break
		}
		callers, err := d.Index.Callers(s.SymbolName)
		if err != nil {
			return RetrievalResult{}, err
		}
		for _, c := range callers {
			if len(c.Mutates) == 0 {
				continue
			}
			evidence = append(evidence, Evidence{
				FilePath: c.FilePath, SymbolName: c.SymbolName,
				StartLine: c.StartLine, EndLine: c.EndLine, Signature: c.Signature,
				Note: "state-mutating caller",
			})
			mutatingCallers++
			if mutatingCallers >= maxMutatingCallers {
				break
			}
		}
	}

	return RetrievalResult{Mode: Diagnostic, Evidence: evidence}, nil
}
