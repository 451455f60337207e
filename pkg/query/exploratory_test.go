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
	"strings"
	"testing"

	"github.com/oyawiki/engine/pkg/graph"
	"github.com/oyawiki/engine/pkg/parse"
)

func TestExtractTraceSubject_ParsesCommonPhrasings(t *testing.T) {
	cases := map[string]string{
		"trace the login flow":      "login",
		"how does login work?":      "login",
		"checkout flow":             "checkout",
	}
	for q, want := range cases {
		got := ExtractTraceSubject(q)
		if got != want {
			t.Errorf("ExtractTraceSubject(%q) = %q, want %q", q, got, want)
		}
	}
}

func buildTestGraph() *graph.Graph {
	files := []*parse.ParsedFile{
		{Symbols: []parse.Symbol{
			{ID: "LoginHandler", Name: "LoginHandler", Kind: parse.KindFunction, FilePath: "handlers.go", StartLine: 1, EndLine: 10},
			{ID: "validateCreds", Name: "validateCreds", Kind: parse.KindFunction, FilePath: "auth.go", StartLine: 1, EndLine: 10},
			{ID: "hashPassword", Name: "hashPassword", Kind: parse.KindFunction, FilePath: "auth.go", StartLine: 12, EndLine: 20},
		}},
	}
	refs := []parse.Reference{
		{SourceID: "LoginHandler", TargetID: "validateCreds", Kind: parse.RefCalls, Confidence: parse.ConfidenceHigh, Line: 5},
		{SourceID: "validateCreds", TargetID: "hashPassword", Kind: parse.RefCalls, Confidence: parse.ConfidenceHigh, Line: 8},
	}
	return graph.Build(files, refs)
}

func TestExploratoryRetriever_WalksForwardFromEntryPoint(t *testing.T) {
	g := buildTestGraph()
	r := &ExploratoryRetriever{Graph: g}

	result, err := r.Retrieve("trace the login flow")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(result.Evidence) != 3 {
		t.Fatalf("expected 3 evidence entries (handler + 2 callees), got %d: %+v", len(result.Evidence), result.Evidence)
	}
	if result.Evidence[0].SymbolName != "LoginHandler" {
		t.Errorf("expected entry point LoginHandler first, got %s", result.Evidence[0].SymbolName)
	}
	if !strings.Contains(result.FlowText, "LoginHandler") {
		t.Errorf("expected flow text to mention entry point, got %q", result.FlowText)
	}
}

func TestExploratoryRetriever_PrunesEdgesBelowMinConfidence(t *testing.T) {
	files := []*parse.ParsedFile{
		{Symbols: []parse.Symbol{
			{ID: "get_user", Name: "get_user", Kind: parse.KindFunction, FilePath: "users.go", StartLine: 1, EndLine: 10},
			{ID: "db_query", Name: "db_query", Kind: parse.KindFunction, FilePath: "db.go", StartLine: 1, EndLine: 10},
		}},
	}
	refs := []parse.Reference{
		{SourceID: "get_user", TargetID: "db_query", Kind: parse.RefCalls, Confidence: 0.6, Line: 5},
	}
	g := graph.Build(files, refs)

	r := &ExploratoryRetriever{Graph: g, MinConfidence: 0.7}
	result, err := r.Retrieve("trace the get_user flow")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(result.Evidence) != 1 {
		t.Fatalf("expected only the entry point (db_query pruned below 0.7), got %d: %+v", len(result.Evidence), result.Evidence)
	}
	if result.Evidence[0].SymbolName != "get_user" {
		t.Errorf("expected entry point get_user, got %s", result.Evidence[0].SymbolName)
	}
	if strings.Contains(result.FlowText, "db_query") {
		t.Errorf("expected db_query to be pruned from flow text, got %q", result.FlowText)
	}
}

func TestExploratoryRetriever_NoMatchReturnsEmptyResult(t *testing.T) {
	g := buildTestGraph()
	r := &ExploratoryRetriever{Graph: g}

	result, err := r.Retrieve("trace the nonexistent flow")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(result.Evidence) != 0 {
		t.Errorf("expected no evidence, got %+v", result.Evidence)
	}
}
