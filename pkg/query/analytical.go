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
	"strings"

	"github.com/oyawiki/engine/pkg/graph"
)

const (
	godFunctionFanOutThreshold = 15
	hotspotFanInThreshold      = 20
)

var scopePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)flaws?\s+in\s+(?:the\s+)?(.+?)$`),
	regexp.MustCompile(`(?i)(.+?)\s+architecture\b`),
	regexp.MustCompile(`(?i)issues?\s+(?:with|in)\s+(?:the\s+)?(.+?)$`),
}

// ExtractScope pulls the architectural scope out of an analytical
// question, e.g. "what are the flaws in the auth package" -> "auth package".
func ExtractScope(question string) string {
	q := strings.TrimSpace(question)
	for _, p := range scopePatterns {
		if m := p.FindStringSubmatch(q); len(m) > 1 {
			scope := strings.TrimSpace(m[1])
			if scope != "" {
				return scope
			}
		}
	}
	return q
}

// FileIssue is a precomputed file-level concern produced by the Files
// generation phase, surfaced here when it falls inside a question's scope.
type FileIssue struct {
	FilePath string
	Issue    string
}

// AnalyticalRetriever flags structural concerns under a scope: god
// functions (high fan-out) and hotspots (high fan-in), optionally
// augmented with precomputed per-file issues.
type AnalyticalRetriever struct {
	Graph  *graph.Graph
	Issues []FileIssue // optional, from wiki front matter
}

func inScope(path, scope string) bool {
	scope = strings.ToLower(scope)
	for _, tok := range strings.Fields(scope) {
		tok = strings.Trim(tok, ".,!?")
		if tok == "" {
			continue
		}
		if strings.Contains(strings.ToLower(path), tok) {
			return true
		}
	}
	return false
}

// Retrieve scans every node under scope, flagging god functions and
// hotspots by fan-out/fan-in thresholds, and folds in matching
// precomputed file issues.
func (a *AnalyticalRetriever) Retrieve(question string) (RetrievalResult, error) {
	scope := ExtractScope(question)

	var evidence []Evidence
	for _, n := range a.Graph.Nodes() {
		if !inScope(n.FilePath, scope) {
			continue
		}
		fanOut := len(a.Graph.Callees(n.ID))
		fanIn := len(a.Graph.Callers(n.ID))
		if fanOut > godFunctionFanOutThreshold {
			evidence = append(evidence, Evidence{
				FilePath: n.FilePath, SymbolName: n.Name,
				StartLine: n.StartLine, EndLine: n.EndLine,
				Note: "god function (high fan-out)",
			})
		}
		if fanIn > hotspotFanInThreshold {
			evidence = append(evidence, Evidence{
				FilePath: n.FilePath, SymbolName: n.Name,
				StartLine: n.StartLine, EndLine: n.EndLine,
				Note: "hotspot (high fan-in)",
			})
		}
	}

	for _, issue := range a.Issues {
		if inScope(issue.FilePath, scope) {
			evidence = append(evidence, Evidence{
				FilePath: issue.FilePath,
				Note:     "recorded issue: " + issue.Issue,
			})
		}
	}

	return RetrievalResult{Mode: Analytical, Evidence: evidence}, nil
}
