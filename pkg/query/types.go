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

// Package query classifies natural-language questions about a
// repository and routes them to mode-specific retrievers: C7.
//
// Grounded on the teacher's pkg/tools call-graph walkers (trace.go for
// the exploratory retriever's forward BFS, analyze.go for the
// analytical retriever's fan-in/fan-out thresholds, search.go for the
// diagnostic retriever's error-anchor lookups), re-targeted from the
// teacher's CozoDB Querier interface to the SQLite-backed pkg/index and
// in-memory pkg/graph built earlier in the pipeline.
package query

// Mode is one of the four question classifications.
type Mode string

const (
	Diagnostic Mode = "DIAGNOSTIC"
	Exploratory Mode = "EXPLORATORY"
	Analytical Mode = "ANALYTICAL"
	Conceptual Mode = "CONCEPTUAL"
)

// Classification is the classifier's structured output.
type Classification struct {
	Mode      Mode   `json:"mode"`
	Reasoning string `json:"reasoning"`
	Scope     string `json:"scope"`
}

// Evidence is one piece of retrieved context, described by reference:
// a source range the Source Fetcher resolves into actual text.
type Evidence struct {
	FilePath   string
	SymbolName string
	StartLine  int
	EndLine    int
	Signature  string
	Note       string // e.g. "error site", "state-mutating caller", "god function"
	Depth      int    // exploratory retriever indentation depth
}

// RetrievalResult is what a mode retriever returns: evidence plus free
// text a caller can fold directly into an LLM prompt.
type RetrievalResult struct {
	Mode     Mode
	Evidence []Evidence
	FlowText string // populated by the exploratory retriever
}
