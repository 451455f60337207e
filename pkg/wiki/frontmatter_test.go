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

package wiki

import (
	"strings"
	"testing"
)

func TestRenderFileFrontMatter_NormalizesInvalidLayer(t *testing.T) {
	out, err := RenderFileFrontMatter(FileSummary{Purpose: "does things", Layer: "not-a-layer"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "layer: utility") {
		t.Errorf("expected invalid layer to default to utility, got:\n%s", out)
	}
}

func TestParseFileFrontMatter_RoundTrips(t *testing.T) {
	rendered, err := RenderFileFrontMatter(FileSummary{
		Purpose:         "handles auth",
		Layer:           LayerAPI,
		KeyAbstractions: []string{"Session"},
		ExternalDeps:    []string{"net/http"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := rendered + "\n# auth.go\n\nbody text\n"

	summary, rest, err := ParseFileFrontMatter(page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if summary.Purpose != "handles auth" || summary.Layer != LayerAPI {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !strings.Contains(rest, "body text") {
		t.Errorf("expected rest to contain page body, got %q", rest)
	}
}

func TestParseFileFrontMatter_MissingDelimiterErrors(t *testing.T) {
	_, _, err := ParseFileFrontMatter("# just a heading\n\nno front matter here\n")
	if err == nil {
		t.Fatal("expected error for page without front matter")
	}
}

func TestParseDirectoryFrontMatter_NormalizesLayer(t *testing.T) {
	rendered, err := RenderDirectoryFrontMatter(DirectorySummary{Purpose: "api layer", Layer: "bogus"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	summary, _, err := ParseDirectoryFrontMatter(rendered + "\nbody\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if summary.Layer != DefaultLayer {
		t.Errorf("expected default layer, got %q", summary.Layer)
	}
}
