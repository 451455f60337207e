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

// Package graph holds the in-memory directed code graph: symbols as
// nodes, resolved references as edges, persisted as JSON for
// diffability. No third-party graph library appears anywhere in the
// retrieved example pack, so this part is implemented directly against
// the standard library (see DESIGN.md).
package graph

import (
	"fmt"
	"sort"

	"github.com/oyawiki/engine/pkg/parse"
)

// Node is a graph vertex: one symbol.
type Node struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Docstring string `json:"docstring,omitempty"`
}

// Edge is a directed, confidence-weighted relation between two nodes.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Line       int     `json:"line"`
}

// Graph is the in-memory directed code graph.
type Graph struct {
	nodes map[string]Node
	// outEdges/inEdges index edges for O(1) neighbor lookups; edges is
	// the canonical sorted list used for persistence and iteration.
	outEdges map[string][]Edge
	inEdges  map[string][]Edge
	edges    []Edge
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]Node),
		outEdges: make(map[string][]Edge),
		inEdges:  make(map[string][]Edge),
	}
}

// Build constructs a Graph from parsed files and resolved references.
// Edge endpoints that don't correspond to a known node are dropped,
// preserving invariant 1 (every persisted edge's endpoints exist).
func Build(files []*parse.ParsedFile, refs []parse.Reference) *Graph {
	g := New()
	for _, f := range files {
		for _, sym := range f.Symbols {
			g.nodes[sym.ID] = Node{
				ID:        sym.ID,
				Name:      sym.Name,
				Kind:      string(sym.Kind),
				FilePath:  sym.FilePath,
				StartLine: sym.StartLine,
				EndLine:   sym.EndLine,
				Docstring: sym.Docstring,
			}
		}
	}
	for _, r := range refs {
		if _, ok := g.nodes[r.SourceID]; !ok {
			continue
		}
		if _, ok := g.nodes[r.TargetID]; !ok {
			continue
		}
		g.addEdge(Edge{Source: r.SourceID, Target: r.TargetID, Kind: string(r.Kind), Confidence: r.Confidence, Line: r.Line})
	}
	g.sortEdges()
	return g
}

func (g *Graph) addEdge(e Edge) {
	g.edges = append(g.edges, e)
	g.outEdges[e.Source] = append(g.outEdges[e.Source], e)
	g.inEdges[e.Target] = append(g.inEdges[e.Target], e)
}

// sortEdges enforces invariant: deterministic iteration by (source, target).
func (g *Graph) sortEdges() {
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].Source != g.edges[j].Source {
			return g.edges[i].Source < g.edges[j].Source
		}
		return g.edges[i].Target < g.edges[j].Target
	})
	for k := range g.outEdges {
		sort.Slice(g.outEdges[k], func(i, j int) bool { return g.outEdges[k][i].Target < g.outEdges[k][j].Target })
	}
	for k := range g.inEdges {
		sort.Slice(g.inEdges[k], func(i, j int) bool { return g.inEdges[k][i].Source < g.inEdges[k][j].Source })
	}
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []Node {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges sorted by (source, target).
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Subgraph is a node-and-edge slice returned by graph queries.
type Subgraph struct {
	Nodes []Node
	Edges []Edge
}

// Neighborhood returns the subgraph within `hops` of node, following
// edges at or above minConfidence in either direction.
func (g *Graph) Neighborhood(nodeID string, hops int, minConfidence float64) Subgraph {
	if _, ok := g.nodes[nodeID]; !ok {
		return Subgraph{}
	}
	visited := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	var edgeSet []Edge
	edgeSeen := make(map[string]bool)

	for h := 0; h < hops; h++ {
		var next []string
		for _, id := range frontier {
			for _, e := range g.outEdges[id] {
				if e.Confidence < minConfidence {
					continue
				}
				key := e.Source + "->" + e.Target
				if !edgeSeen[key] {
					edgeSeen[key] = true
					edgeSet = append(edgeSet, e)
				}
				if !visited[e.Target] {
					visited[e.Target] = true
					next = append(next, e.Target)
				}
			}
			for _, e := range g.inEdges[id] {
				if e.Confidence < minConfidence {
					continue
				}
				key := e.Source + "->" + e.Target
				if !edgeSeen[key] {
					edgeSeen[key] = true
					edgeSet = append(edgeSet, e)
				}
				if !visited[e.Source] {
					visited[e.Source] = true
					next = append(next, e.Source)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	var nodes []Node
	for id := range visited {
		nodes = append(nodes, g.nodes[id])
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	sort.Slice(edgeSet, func(i, j int) bool {
		if edgeSet[i].Source != edgeSet[j].Source {
			return edgeSet[i].Source < edgeSet[j].Source
		}
		return edgeSet[i].Target < edgeSet[j].Target
	})
	return Subgraph{Nodes: nodes, Edges: edgeSet}
}

// Callers returns the nodes with an edge into symbol, sorted by source ID.
func (g *Graph) Callers(symbolID string) []Node {
	var out []Node
	for _, e := range g.inEdges[symbolID] {
		if n, ok := g.nodes[e.Source]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Callees returns the nodes symbol has an edge to, sorted by target ID.
func (g *Graph) Callees(symbolID string) []Node {
	var out []Node
	for _, e := range g.outEdges[symbolID] {
		if n, ok := g.nodes[e.Target]; ok {
			out = append(out, n)
		}
	}
	return out
}

// CalleesAbove returns the nodes symbol has an edge to whose confidence
// is at least minConfidence, the same threshold Paths applies.
func (g *Graph) CalleesAbove(symbolID string, minConfidence float64) []Node {
	var out []Node
	for _, e := range g.outEdges[symbolID] {
		if e.Confidence < minConfidence {
			continue
		}
		if n, ok := g.nodes[e.Target]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Paths finds simple paths from src to dst respecting minConfidence,
// depth-capped to avoid runaway traversal in cyclic graphs.
func (g *Graph) Paths(src, dst string, minConfidence float64) [][]string {
	const maxDepth = 12
	var results [][]string
	var walk func(node string, path []string, visited map[string]bool)
	walk = func(node string, path []string, visited map[string]bool) {
		if node == dst {
			cp := make([]string, len(path))
			copy(cp, path)
			results = append(results, cp)
			return
		}
		if len(path) >= maxDepth {
			return
		}
		for _, e := range g.outEdges[node] {
			if e.Confidence < minConfidence || visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			walk(e.Target, append(path, e.Target), visited)
			delete(visited, e.Target)
		}
	}
	walk(src, []string{src}, map[string]bool{src: true})
	return results
}

// ConfidenceHistogram buckets edges by confidence tier for metadata.json.
func (g *Graph) ConfidenceHistogram() map[string]int {
	h := map[string]int{"high": 0, "medium": 0, "low": 0}
	for _, e := range g.edges {
		switch {
		case e.Confidence >= parse.ConfidenceHigh:
			h["high"]++
		case e.Confidence >= parse.ConfidenceMedium:
			h["medium"]++
		default:
			h["low"]++
		}
	}
	return h
}

// String renders a node's short label for diagrams: name plus kind.
func (n Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, n.Kind)
}
