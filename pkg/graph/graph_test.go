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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyawiki/engine/pkg/parse"
)

func sampleFiles() []*parse.ParsedFile {
	return []*parse.ParsedFile{
		{
			FilePath: "auth/login.go",
			Symbols: []parse.Symbol{
				{ID: "auth/login.go::login", Name: "login", Kind: parse.KindFunction, FilePath: "auth/login.go"},
				{ID: "auth/login.go::verify_token", Name: "verify_token", Kind: parse.KindFunction, FilePath: "auth/login.go"},
				{ID: "auth/login.go::save_session", Name: "save_session", Kind: parse.KindFunction, FilePath: "auth/login.go"},
				{ID: "auth/login.go::get_user", Name: "get_user", Kind: parse.KindFunction, FilePath: "auth/login.go"},
				{ID: "auth/login.go::db_query", Name: "db_query", Kind: parse.KindFunction, FilePath: "auth/login.go"},
			},
		},
	}
}

func sampleRefs() []parse.Reference {
	return []parse.Reference{
		{SourceID: "auth/login.go::login", TargetID: "auth/login.go::verify_token", Kind: parse.RefCalls, Confidence: 0.9},
		{SourceID: "auth/login.go::verify_token", TargetID: "auth/login.go::get_user", Kind: parse.RefCalls, Confidence: 0.8},
		{SourceID: "auth/login.go::verify_token", TargetID: "auth/login.go::save_session", Kind: parse.RefCalls, Confidence: 0.7},
		{SourceID: "auth/login.go::get_user", TargetID: "auth/login.go::db_query", Kind: parse.RefCalls, Confidence: 0.6},
	}
}

func TestBuild_DropsEdgesWithMissingEndpoints(t *testing.T) {
	refs := append(sampleRefs(), parse.Reference{SourceID: "auth/login.go::login", TargetID: "nonexistent::ghost", Confidence: 0.9})
	g := Build(sampleFiles(), refs)
	assert.Len(t, g.Edges(), 4)
}

func TestNeighborhood_RespectsMinConfidenceAndHops(t *testing.T) {
	g := Build(sampleFiles(), sampleRefs())
	sg := g.Neighborhood("auth/login.go::login", 2, 0.7)

	names := map[string]bool{}
	for _, n := range sg.Nodes {
		names[n.Name] = true
	}
	assert.True(t, names["login"])
	assert.True(t, names["verify_token"])
	assert.True(t, names["get_user"])
	assert.True(t, names["save_session"])
	assert.False(t, names["db_query"], "db_query is 3 hops away and behind a 0.6 edge")
}

func TestPersistAndLoad_RoundTrip(t *testing.T) {
	g := Build(sampleFiles(), sampleRefs())
	dir := t.TempDir()
	require.NoError(t, Persist(g, dir, "deadbeef", "2026-01-01T00:00:00Z"))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), loaded.Nodes())
	assert.Equal(t, g.Edges(), loaded.Edges())
}

func TestToMermaid_Deterministic(t *testing.T) {
	g := Build(sampleFiles(), sampleRefs())
	sg := g.Neighborhood("auth/login.go::login", 1, 0.0)
	out1 := ToMermaid(sg)
	out2 := ToMermaid(sg)
	assert.Equal(t, out1, out2)
	assert.Contains(t, out1, "flowchart TD")
}
