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
	"path"
	"strings"
)

// MaxBreadcrumbDepth is the segment count above which the breadcrumb
// collapses its middle segments behind an ellipsis.
const MaxBreadcrumbDepth = 4

// Breadcrumb renders a linked path breadcrumb for a directory or file
// page, e.g. "root / api / ... / v1 / handlers". dirPath is relative to the
// repo root ("" denotes the root).
func Breadcrumb(dirPath string) string {
	segs := pathSegments(dirPath)
	crumbs := make([]string, 0, len(segs)+1)
	crumbs = append(crumbs, link("root", rootPageLink()))

	if len(segs) <= MaxBreadcrumbDepth {
		for i, seg := range segs {
			crumbs = append(crumbs, link(seg, dirPageLink(path.Join(segs[:i+1]...))))
		}
		return strings.Join(crumbs, " / ")
	}

	crumbs = append(crumbs, link(segs[0], dirPageLink(segs[0])))
	crumbs = append(crumbs, "...")
	tailStart := len(segs) - 2
	for i := tailStart; i < len(segs); i++ {
		crumbs = append(crumbs, link(segs[i], dirPageLink(path.Join(segs[:i+1]...))))
	}
	return strings.Join(crumbs, " / ")
}

func pathSegments(p string) []string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

func link(label, target string) string {
	return "[" + label + "](" + target + ")"
}

func rootPageLink() string { return "./README.md" }

func dirPageLink(dirPath string) string {
	return "./" + strings.ReplaceAll(dirPath, "/", "_") + ".md"
}

func filePageLink(filePath string) string {
	return "./" + strings.ReplaceAll(filePath, "/", "_") + ".md"
}

// LinkTable renders a markdown table of (name, link) rows with the
// given header pair. Used for both the subdirectory and file tables on
// a directory page.
func LinkTable(headerA, headerB string, rows [][2]string) string {
	if len(rows) == 0 {
		return "_none_\n"
	}
	var b strings.Builder
	b.WriteString("| " + headerA + " | " + headerB + " |\n")
	b.WriteString("|---|---|\n")
	for _, row := range rows {
		b.WriteString("| " + row[0] + " | " + row[1] + " |\n")
	}
	return b.String()
}
