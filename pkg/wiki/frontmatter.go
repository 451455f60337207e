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

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

type fileFrontMatter struct {
	FileSummary FileSummary `yaml:"file_summary"`
}

type dirFrontMatter struct {
	DirectorySummary DirectorySummary `yaml:"directory_summary"`
}

// RenderFileFrontMatter marshals summary under the file_summary key,
// normalizing Layer to one of the six recognized values.
func RenderFileFrontMatter(summary FileSummary) (string, error) {
	summary.Layer = NormalizeLayer(string(summary.Layer))
	data, err := yaml.Marshal(fileFrontMatter{FileSummary: summary})
	if err != nil {
		return "", fmt.Errorf("marshal file front matter: %w", err)
	}
	return wrapFrontMatter(string(data)), nil
}

// RenderDirectoryFrontMatter marshals summary under the
// directory_summary key.
func RenderDirectoryFrontMatter(summary DirectorySummary) (string, error) {
	summary.Layer = NormalizeLayer(string(summary.Layer))
	data, err := yaml.Marshal(dirFrontMatter{DirectorySummary: summary})
	if err != nil {
		return "", fmt.Errorf("marshal directory front matter: %w", err)
	}
	return wrapFrontMatter(string(data)), nil
}

func wrapFrontMatter(body string) string {
	var b strings.Builder
	b.WriteString(frontMatterDelim)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString(frontMatterDelim)
	b.WriteString("\n")
	return b.String()
}

// ParseFileFrontMatter extracts and unmarshals the file_summary block
// from a generated page's leading front matter. Layer is normalized
// (invalid values default to utility) so a malformed LLM response
// never produces an unrenderable page.
func ParseFileFrontMatter(page string) (FileSummary, string, error) {
	raw, rest, err := splitFrontMatter(page)
	if err != nil {
		return FileSummary{}, page, err
	}
	var fm fileFrontMatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return FileSummary{}, page, fmt.Errorf("parse file front matter: %w", err)
	}
	fm.FileSummary.Layer = NormalizeLayer(string(fm.FileSummary.Layer))
	return fm.FileSummary, rest, nil
}

// ParseDirectoryFrontMatter is the directory-page analog of
// ParseFileFrontMatter.
func ParseDirectoryFrontMatter(page string) (DirectorySummary, string, error) {
	raw, rest, err := splitFrontMatter(page)
	if err != nil {
		return DirectorySummary{}, page, err
	}
	var fm dirFrontMatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return DirectorySummary{}, page, fmt.Errorf("parse directory front matter: %w", err)
	}
	fm.DirectorySummary.Layer = NormalizeLayer(string(fm.DirectorySummary.Layer))
	return fm.DirectorySummary, rest, nil
}

// splitFrontMatter returns the YAML body between the two leading "---"
// delimiters and the remainder of the page after the closing delimiter.
func splitFrontMatter(page string) (yamlBody string, rest string, err error) {
	trimmed := strings.TrimLeft(page, "\n")
	if !strings.HasPrefix(trimmed, frontMatterDelim) {
		return "", page, fmt.Errorf("page has no front matter")
	}
	after := strings.TrimPrefix(trimmed, frontMatterDelim)
	after = strings.TrimPrefix(after, "\n")
	idx := strings.Index(after, "\n"+frontMatterDelim)
	if idx < 0 {
		return "", page, fmt.Errorf("front matter missing closing delimiter")
	}
	yamlBody = after[:idx]
	rest = after[idx+len("\n"+frontMatterDelim):]
	rest = strings.TrimPrefix(rest, "\n")
	return yamlBody, rest, nil
}
