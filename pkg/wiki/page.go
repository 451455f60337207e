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
	"fmt"
	"strings"
)

// Synopsis is the rendered form of parse.Synopsis plus the fallback
// chain §6 requires: doc comment first, then a real call-site snippet,
// then an LLM-authored example explicitly marked as such.
type Synopsis struct {
	Source string // "doc" | "callsite" | "llm"
	Code   string
}

// CallerRef names one other caller of the symbol the synopsis was
// drawn from, listed in the Usage Examples section.
type CallerRef struct {
	Label string
	Link  string
}

// MaxListedCallers bounds how many additional callers the Usage
// Examples section lists beyond the one used for the synopsis.
const MaxListedCallers = 5

// FilePageInput carries everything RenderFilePage needs to produce the
// six fixed sections.
type FilePageInput struct {
	Title           string
	Summary         FileSummary
	Synopsis        Synopsis
	PublicAPI       string
	InternalDetails string
	Dependencies    string
	OtherCallers    []CallerRef
}

// RenderFilePage renders a complete file page: front matter followed
// by the six sections in fixed order (Purpose, Synopsis, Public API,
// Internal Details, Dependencies, Usage Examples).
func RenderFilePage(in FilePageInput) (string, error) {
	front, err := RenderFileFrontMatter(in.Summary)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(front)
	b.WriteString("\n# ")
	b.WriteString(in.Title)
	b.WriteString("\n\n")

	b.WriteString("## 1. Purpose\n\n")
	b.WriteString(in.Summary.Purpose)
	b.WriteString("\n\n")

	b.WriteString("## 2. Synopsis\n\n")
	b.WriteString(renderSynopsis(in.Synopsis))
	b.WriteString("\n\n")

	b.WriteString("## 3. Public API\n\n")
	b.WriteString(orNone(in.PublicAPI))
	b.WriteString("\n\n")

	b.WriteString("## 4. Internal Details\n\n")
	b.WriteString(orNone(in.InternalDetails))
	b.WriteString("\n\n")

	b.WriteString("## 5. Dependencies\n\n")
	b.WriteString(orNone(in.Dependencies))
	b.WriteString("\n\n")

	b.WriteString("## 6. Usage Examples\n\n")
	b.WriteString(renderUsageExamples(in.OtherCallers))

	return b.String(), nil
}

func renderSynopsis(s Synopsis) string {
	if s.Code == "" {
		return "_none available_"
	}
	var label string
	switch s.Source {
	case "doc":
		label = ""
	case "callsite":
		label = "_(real call site)_\n\n"
	case "llm":
		label = "_(LLM-generated example)_\n\n"
	}
	return label + "```\n" + s.Code + "\n```"
}

func renderUsageExamples(callers []CallerRef) string {
	if len(callers) == 0 {
		return "_no other callers found_\n"
	}
	n := len(callers)
	if n > MaxListedCallers {
		n = MaxListedCallers
	}
	var b strings.Builder
	for _, c := range callers[:n] {
		b.WriteString(fmt.Sprintf("- [%s](%s)\n", c.Label, c.Link))
	}
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_none_"
	}
	return s
}

// DirectoryPageInput carries everything RenderDirectoryPage needs.
type DirectoryPageInput struct {
	DirPath     string // relative to repo root, "" for the root directory
	Summary     DirectorySummary
	SubdirRows  [][2]string // (name, link)
	FileRows    [][2]string // (name, link)
}

// RenderDirectoryPage renders front matter, a breadcrumb, the purpose
// text, and the linked subdirectory/file tables.
func RenderDirectoryPage(in DirectoryPageInput) (string, error) {
	front, err := RenderDirectoryFrontMatter(in.Summary)
	if err != nil {
		return "", err
	}

	title := in.DirPath
	if title == "" {
		title = "/"
	}

	var b strings.Builder
	b.WriteString(front)
	b.WriteString("\n")
	b.WriteString(Breadcrumb(in.DirPath))
	b.WriteString("\n\n# ")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(in.Summary.Purpose)
	b.WriteString("\n\n## Subdirectories\n\n")
	b.WriteString(LinkTable("Directory", "Purpose", in.SubdirRows))
	b.WriteString("\n## Files\n\n")
	b.WriteString(LinkTable("File", "Purpose", in.FileRows))

	return b.String(), nil
}

// FilePageLink and DirPageLink expose the link-naming scheme to callers
// building subdirectory/file tables outside this package.
func FilePageLink(filePath string) string { return filePageLink(filePath) }
func DirPageLink(dirPath string) string   { return dirPageLink(dirPath) }
