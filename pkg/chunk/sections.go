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

package chunk

import (
	"strings"
)

// SplitSections splits a generated markdown page on level-2 ("## ") and
// level-3 ("### ") headings. Content before the first heading forms a
// leading section with an empty header. A page with no headings yields
// a single section spanning the whole body.
func SplitSections(documentTitle, markdown string) []Section {
	lines := strings.Split(markdown, "\n")

	var sections []Section
	header := ""
	level := 0
	var body strings.Builder

	flush := func() {
		content := strings.TrimSpace(body.String())
		if content == "" && header == "" {
			return
		}
		sections = append(sections, Section{
			DocumentTitle: documentTitle,
			Header:        header,
			Body:          content,
			Level:         level,
		})
		body.Reset()
	}

	for _, line := range lines {
		if lvl, title, ok := headingLine(line); ok {
			flush()
			header = title
			level = lvl
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	if len(sections) == 0 {
		return []Section{{DocumentTitle: documentTitle, Body: strings.TrimSpace(markdown)}}
	}
	return sections
}

// headingLine reports whether line is a level-2 or level-3 markdown
// heading, returning its level and title text.
func headingLine(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimRight(line, " \t")
	switch {
	case strings.HasPrefix(trimmed, "### "):
		return 3, strings.TrimSpace(trimmed[4:]), true
	case strings.HasPrefix(trimmed, "## "):
		return 2, strings.TrimSpace(trimmed[3:]), true
	default:
		return 0, "", false
	}
}
