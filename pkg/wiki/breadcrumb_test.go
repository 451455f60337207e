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

import "testing"

func TestBreadcrumb_ShortPathShowsAllSegments(t *testing.T) {
	got := Breadcrumb("api/routers")
	if got == "" {
		t.Fatal("expected non-empty breadcrumb")
	}
	want := "[root](./README.md) / [api](./api.md) / [routers](./api_routers.md)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBreadcrumb_DeepPathCollapsesMiddle(t *testing.T) {
	got := Breadcrumb("a/b/c/d/e/f")
	if !contains(got, "...") {
		t.Errorf("expected ellipsis for depth > %d, got %q", MaxBreadcrumbDepth, got)
	}
}

func TestBreadcrumb_RootPathIsJustRoot(t *testing.T) {
	got := Breadcrumb("")
	if got != "[root](./README.md)" {
		t.Errorf("got %q", got)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestLinkTable_EmptyRowsRendersNone(t *testing.T) {
	got := LinkTable("File", "Purpose", nil)
	if got != "_none_\n" {
		t.Errorf("got %q", got)
	}
}
