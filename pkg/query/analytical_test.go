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
	"testing"

	"github.com/oyawiki/engine/pkg/graph"
	"github.com/oyawiki/engine/pkg/parse"
)

func TestExtractScope_ParsesCommonPhrasings(t *testing.T) {
	cases := map[string]string{
		"what are the flaws in the billing package": "billing package",
		"billing architecture":                       "billing",
		"issues with the auth module":                "auth module",
	}
	for q, want := range cases {
		got := ExtractScope(q)
		if got != want {
			t.Errorf("ExtractScope(%q) = %q, want %q", q, got, want)
		}
	}
}

func buildFanoutGraph(fanOut, fanIn int) *graph.Graph {
	var symbols []parse.Symbol
	symbols = append(symbols, parse.Symbol{ID: "billing.God", Name: "God", Kind: parse.KindFunction, FilePath: "billing/god.go", StartLine: 1, EndLine: 100})
	symbols = append(symbols, parse.Symbol{ID: "billing.Hot", Name: "Hot", Kind: parse.KindFunction, FilePath: "billing/hot.go", StartLine: 1, EndLine: 10})

	var refs []parse.Reference
	for i := 0; i < fanOut; i++ {
		id := symbolID(i, "callee")
		symbols = append(symbols, parse.Symbol{ID: id, Name: id, Kind: parse.KindFunction, FilePath: "billing/leaf.go", StartLine: 1, EndLine: 2})
		refs = append(refs, parse.Reference{SourceID: "billing.God", TargetID: id, Kind: parse.RefCalls, Confidence: parse.ConfidenceHigh})
	}
	for i := 0; i < fanIn; i++ {
		id := symbolID(i, "caller")
		symbols = append(symbols, parse.Symbol{ID: id, Name: id, Kind: parse.KindFunction, FilePath: "billing/caller.go", StartLine: 1, EndLine: 2})
		refs = append(refs, parse.Reference{SourceID: id, TargetID: "billing.Hot", Kind: parse.RefCalls, Confidence: parse.ConfidenceHigh})
	}

	return graph.Build([]*parse.ParsedFile{{Symbols: symbols}}, refs)
}

func symbolID(i int, kind string) string {
	return kind + string(rune('a'+i))
}

func TestAnalyticalRetriever_FlagsGodFunctionAndHotspot(t *testing.T) {
	g := buildFanoutGraph(godFunctionFanOutThreshold+1, hotspotFanInThreshold+1)
	r := &AnalyticalRetriever{Graph: g}

	result, err := r.Retrieve("what are the flaws in the billing package")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	var sawGod, sawHotspot bool
	for _, e := range result.Evidence {
		if e.SymbolName == "God" && e.Note == "god function (high fan-out)" {
			sawGod = true
		}
		if e.SymbolName == "Hot" && e.Note == "hotspot (high fan-in)" {
			sawHotspot = true
		}
	}
	if !sawGod {
		t.Errorf("expected God flagged as god function, got %+v", result.Evidence)
	}
	if !sawHotspot {
		t.Errorf("expected Hot flagged as hotspot, got %+v", result.Evidence)
	}
}

func TestAnalyticalRetriever_BelowThresholdNotFlagged(t *testing.T) {
	g := buildFanoutGraph(2, 2)
	r := &AnalyticalRetriever{Graph: g}

	result, err := r.Retrieve("what are the flaws in the billing package")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, e := range result.Evidence {
		if e.SymbolName == "God" || e.SymbolName == "Hot" {
			t.Errorf("expected no flag below threshold, got %+v", e)
		}
	}
}
