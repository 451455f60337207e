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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oyawiki/engine/pkg/llm"
)

// Classifier calls an LLM at temperature 0 to classify a question into
// one of the four modes, defaulting to Conceptual on any parse failure.
type Classifier struct {
	Provider llm.Provider
	Model    string
}

func (c *Classifier) Classify(ctx context.Context, question string) (Classification, error) {
	resp, err := c.Provider.Chat(ctx, llm.ChatRequest{
		Model:       c.Model,
		Temperature: 0,
		Messages: []llm.Message{
			{Role: "system", Content: llm.QueryPrompts.Classify},
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return Classification{Mode: Conceptual, Reasoning: fmt.Sprintf("classifier call failed: %v", err)}, nil
	}

	cls, ok := parseClassification(resp.Message.Content)
	if !ok {
		return Classification{Mode: Conceptual, Reasoning: "classifier response was not parseable JSON"}, nil
	}
	return cls, nil
}

func parseClassification(text string) (Classification, bool) {
	jsonText := extractJSONObject(text)
	if jsonText == "" {
		return Classification{}, false
	}
	var cls Classification
	if err := json.Unmarshal([]byte(jsonText), &cls); err != nil {
		return Classification{}, false
	}
	cls.Mode = normalizeMode(cls.Mode)
	return cls, true
}

func normalizeMode(m Mode) Mode {
	switch strings.ToUpper(string(m)) {
	case string(Diagnostic):
		return Diagnostic
	case string(Exploratory):
		return Exploratory
	case string(Analytical):
		return Analytical
	default:
		return Conceptual
	}
}

// extractJSONObject returns the first top-level {...} object found in
// text, tolerating surrounding prose or markdown code fences.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
