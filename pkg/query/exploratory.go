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
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/oyawiki/engine/pkg/graph"
)

const (
	traceMaxDepth      = 3
	traceMaxBranch     = 3
	routeHandlerSuffix = "Handler"
)

var traceSubjectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)trace\s+(?:the\s+)?(.+?)(?:\s+flow)?$`),
	regexp.MustCompile(`(?i)(.+?)\s+flow\b`),
	regexp.MustCompile(`(?i)how\s+does\s+(.+?)\s+work\??$`),
}

// ExtractTraceSubject pulls the named subject out of an exploratory
// question, e.g. "trace the login flow" -> "login".
func ExtractTraceSubject(question string) string {
	q := strings.TrimSpace(question)
	for _, p := range traceSubjectPatterns {
		if m := p.FindStringSubmatch(q); len(m) > 1 {
			subject := strings.TrimSpace(m[1])
			if subject != "" {
				return subject
			}
		}
	}
	return q
}

// DefaultMinConfidence is the confidence floor a call edge must meet to
// be followed during an exploratory trace, matching the threshold
// Graph.Paths and Graph.Neighborhood apply elsewhere.
const DefaultMinConfidence = 0.7

// ExploratoryRetriever walks the call graph forward from an entry point
// matching the question's subject, producing a depth-indented flow.
type ExploratoryRetriever struct {
	Graph *graph.Graph

	// MinConfidence floors which call edges the trace follows; edges
	// below it are pruned rather than walked. Defaults to
	// DefaultMinConfidence when zero.
	MinConfidence float64
}

func (e *ExploratoryRetriever) minConfidence() float64 {
	if e.MinConfidence > 0 {
		return e.MinConfidence
	}
	return DefaultMinConfidence
}

// findEntryPoint ranks candidate nodes whose name contains subject:
// route handlers first, then plain functions, then methods.
func (e *ExploratoryRetriever) findEntryPoint(subject string) (graph.Node, bool) {
	subject = strings.ToLower(subject)
	var candidates []graph.Node
	for _, n := range e.Graph.Nodes() {
		if strings.Contains(strings.ToLower(n.Name), subject) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return graph.Node{}, false
	}
	rank := func(n graph.Node) int {
		switch {
		case strings.HasSuffix(n.Name, routeHandlerSuffix):
			return 0
		case n.Kind == "function":
			return 1
		case n.Kind == "method":
			return 2
		default:
			return 3
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return rank(candidates[i]) < rank(candidates[j]) })
	return candidates[0], true
}

type traceStep struct {
	node  graph.Node
	depth int
}

// Retrieve finds the best entry point for the question's subject and
// walks outward calls up to traceMaxDepth, branching at most
// traceMaxBranch callees per node, rendering an indented flow.
func (e *ExploratoryRetriever) Retrieve(question string) (RetrievalResult, error) {
	subject := ExtractTraceSubject(question)
	entry, ok := e.findEntryPoint(subject)
	if !ok {
		return RetrievalResult{Mode: Exploratory}, nil
	}

	var evidence []Evidence
	var flow strings.Builder
	visited := map[string]bool{entry.ID: true}

	var walk func(n graph.Node, depth int)
	walk = func(n graph.Node, depth int) {
		flow.WriteString(strings.Repeat("  ", depth))
		flow.WriteString(fmt.Sprintf("%s (%s:%d)\n", n.Name, n.FilePath, n.StartLine))
		evidence = append(evidence, Evidence{
			FilePath: n.FilePath, SymbolName: n.Name,
			StartLine: n.StartLine, EndLine: n.EndLine, Depth: depth,
		})
		if depth >= traceMaxDepth {
			return
		}
		callees := e.Graph.CalleesAbove(n.ID, e.minConfidence())
		branched := 0
		for _, c := range callees {
			if visited[c.ID] {
				continue
			}
			if branched >= traceMaxBranch {
				break
			}
			visited[c.ID] = true
			branched++
			walk(c, depth+1)
		}
	}
	walk(entry, 0)

	return RetrievalResult{Mode: Exploratory, Evidence: evidence, FlowText: flow.String()}, nil
}
