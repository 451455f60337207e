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
	"context"
	"path/filepath"
	"testing"

	"github.com/oyawiki/engine/pkg/search"
)

type fakeCatalog struct {
	content map[string]string
	typ     map[string]string
}

func (f *fakeCatalog) Lookup(ids []string) (map[string]string, map[string]string, error) {
	content := make(map[string]string)
	typ := make(map[string]string)
	for _, id := range ids {
		content[id] = f.content[id]
		typ[id] = f.typ[id]
	}
	return content, typ, nil
}

func TestConceptualRetriever_DefersToHybridSearch(t *testing.T) {
	dir := t.TempDir()
	fts, err := search.OpenFullTextStore(filepath.Join(dir, "fts.db"))
	if err != nil {
		t.Fatalf("open fts store: %v", err)
	}
	defer fts.Close()

	if err := fts.Upsert("wiki_auth_overview", "Auth", "Overview", "The auth package handles login and session tokens.", "wiki"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hybrid := &search.Hybrid{FullText: fts}
	catalog := &fakeCatalog{
		content: map[string]string{"wiki_auth_overview": "The auth package handles login and session tokens."},
		typ:     map[string]string{"wiki_auth_overview": "wiki"},
	}

	r := &ConceptualRetriever{Hybrid: hybrid, Catalog: catalog}
	result, env, err := r.Retrieve(context.Background(), "what does the auth package do")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(result.Evidence) == 0 {
		t.Fatal("expected at least one evidence entry from full-text fallback")
	}
	if !env.FullTextQueried {
		t.Error("expected FullTextQueried to be true")
	}
	if env.SemanticQueried {
		t.Error("expected SemanticQueried false when no semantic store configured")
	}
}
