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

//go:build integration
// +build integration

package llm

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestLLMServer_Integration exercises a real OpenAI-compatible endpoint.
// Set LLM_SERVER_URL (and optionally LLM_SERVER_MODEL) to point it at a
// local Ollama-compatible server or hosted API; it skips otherwise.
func TestLLMServer_Integration(t *testing.T) {
	serverURL := os.Getenv("LLM_SERVER_URL")
	if serverURL == "" {
		t.Skip("LLM_SERVER_URL not set, skipping live provider integration test")
	}

	model := os.Getenv("LLM_SERVER_MODEL")
	if model == "" {
		model = "qwen2.5-coder:7b"
	}

	provider, err := NewProvider(ProviderConfig{
		Type:         "openai",
		BaseURL:      serverURL,
		DefaultModel: model,
		Timeout:      2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	t.Logf("Provider: %s", provider.Name())

	ctx := context.Background()
	resp, err := provider.Chat(ctx, ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a helpful coding assistant. Be concise."},
			{Role: "user", Content: "What is 2+2? Answer with just the number."},
		},
		MaxTokens:   10,
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}

	t.Logf("Response: %s", resp.Message.Content)
	t.Logf("Tokens: %d prompt + %d output = %d total", resp.PromptTokens, resp.OutputTokens, resp.TotalTokens)
	t.Logf("Duration: %v", resp.Duration)
}

// TestLLMServer_EmbedIntegration exercises the embeddings path the search
// index relies on, against the same live server as TestLLMServer_Integration.
func TestLLMServer_EmbedIntegration(t *testing.T) {
	serverURL := os.Getenv("LLM_SERVER_URL")
	if serverURL == "" {
		t.Skip("LLM_SERVER_URL not set, skipping live provider integration test")
	}

	embedModel := os.Getenv("LLM_SERVER_EMBED_MODEL")
	if embedModel == "" {
		t.Skip("LLM_SERVER_EMBED_MODEL not set, skipping embedding integration test")
	}
	t.Setenv("OPENAI_EMBEDDING_MODEL", embedModel)

	provider, err := NewProvider(ProviderConfig{
		Type:    "openai",
		BaseURL: serverURL,
		Timeout: 2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	vec, err := provider.Embed(context.Background(), "func add(a, b int) int { return a + b }")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	t.Logf("Embedding dimensions: %d", len(vec))
}
