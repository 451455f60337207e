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

package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata accompanies nodes.json/edges.json with build provenance.
type Metadata struct {
	BuildTimestamp      string         `json:"build_timestamp"`
	SourceRepoHash      string         `json:"source_repo_hash"`
	ConfidenceHistogram map[string]int `json:"edge_confidence_histogram"`
}

// Persist writes nodes.json, edges.json, and metadata.json into dir,
// overwriting any previous contents (graph rebuilds fully each run).
func Persist(g *Graph, dir string, sourceRepoHash string, buildTimestamp string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "nodes.json"), g.Nodes()); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "edges.json"), g.Edges()); err != nil {
		return err
	}
	meta := Metadata{
		BuildTimestamp:      buildTimestamp,
		SourceRepoHash:      sourceRepoHash,
		ConfidenceHistogram: g.ConfidenceHistogram(),
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return err
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

// Load reconstructs a Graph from a directory previously written by
// Persist. Round-tripping (Persist then Load) yields the same nodes,
// edges, and attributes.
func Load(dir string) (*Graph, error) {
	var nodes []Node
	if err := readJSON(filepath.Join(dir, "nodes.json"), &nodes); err != nil {
		return nil, err
	}
	var edges []Edge
	if err := readJSON(filepath.Join(dir, "edges.json"), &edges); err != nil {
		return nil, err
	}

	g := New()
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	for _, e := range edges {
		g.addEdge(e)
	}
	g.sortEdges()
	return g, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
