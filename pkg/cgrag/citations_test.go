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

package cgrag

import "testing"

func TestExtractCitations_MatchesFilePathReference(t *testing.T) {
	context := []ContextChunk{
		{ChunkID: "api/routers/notes.py::get_notes_service", Content: "..."},
	}
	citations := ExtractCitations("See (api/routers/notes.py) for the implementation.", context)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d: %+v", len(citations), citations)
	}
	if !citations[0].Verified {
		t.Errorf("expected citation to verify against context, got %+v", citations[0])
	}
}

func TestExtractCitations_SourceIndexFallback(t *testing.T) {
	context := []ContextChunk{
		{ChunkID: "chunk-a", Content: "..."},
		{ChunkID: "chunk-b", Content: "..."},
	}
	citations := ExtractCitations("As shown in [Source 2].", context)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].ChunkID != "chunk-b" {
		t.Errorf("expected positional match to chunk-b, got %q", citations[0].ChunkID)
	}
}

func TestExtractCitations_UnmatchedReferenceIsUnverified(t *testing.T) {
	citations := ExtractCitations("See (nowhere.go) for details.", nil)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].Verified {
		t.Error("expected unverified citation with no matching context")
	}
}
