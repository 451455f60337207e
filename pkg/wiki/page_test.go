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

func TestRenderFilePage_SectionsAppearInFixedOrder(t *testing.T) {
	page, err := RenderFilePage(FilePageInput{
		Title:           "auth.go",
		Summary:         FileSummary{Purpose: "validates tokens", Layer: LayerAPI},
		Synopsis:        Synopsis{Source: "callsite", Code: "validate(token)"},
		PublicAPI:       "func Validate(token string) error",
		InternalDetails: "uses an in-memory cache",
		Dependencies:    "net/http",
		OtherCallers:    []CallerRef{{Label: "handler.go:Login", Link: "./handler.md"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	order := []string{
		"## 1. Purpose", "## 2. Synopsis", "## 3. Public API",
		"## 4. Internal Details", "## 5. Dependencies", "## 6. Usage Examples",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(page, want)
		if idx < 0 {
			t.Fatalf("missing section %q in:\n%s", want, page)
		}
		if idx <= last {
			t.Fatalf("section %q out of order", want)
		}
		last = idx
	}
	if !strings.Contains(page, "_(real call site)_") {
		t.Error("expected callsite synopsis to be labeled")
	}
}

func TestRenderFilePage_TruncatesUsageExamplesList(t *testing.T) {
	var callers []CallerRef
	for i := 0; i < 8; i++ {
		callers = append(callers, CallerRef{Label: "caller", Link: "./x.md"})
	}
	page, err := RenderFilePage(FilePageInput{
		Title:        "x.go",
		Summary:      FileSummary{Purpose: "p", Layer: LayerDomain},
		OtherCallers: callers,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Count(page, "- [caller]") != MaxListedCallers {
		t.Errorf("expected %d listed callers, got %d", MaxListedCallers, strings.Count(page, "- [caller]"))
	}
}

func TestRenderDirectoryPage_IncludesBreadcrumbAndTables(t *testing.T) {
	page, err := RenderDirectoryPage(DirectoryPageInput{
		DirPath: "api/routers",
		Summary: DirectorySummary{Purpose: "HTTP routing layer", Layer: LayerAPI},
		SubdirRows: [][2]string{{"v1", "./api_routers_v1.md"}},
		FileRows:   [][2]string{{"notes.go", "./api_routers_notes.go.md"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(page, "routers") || !strings.Contains(page, "v1") || !strings.Contains(page, "notes.go") {
		t.Errorf("expected breadcrumb + tables present, got:\n%s", page)
	}
}
