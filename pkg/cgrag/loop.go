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

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyawiki/engine/pkg/llm"
)

const defaultMaxPasses = 3

const cgragSystemPrompt = `You answer questions about a codebase using only the context provided.
Cite specific files and symbols. Wrap your answer in <answer></answer> tags.
If you are missing information essential to answering completely, list each
specific gap — ideally naming a file or function — inside <missing></missing>,
one gap per line. Omit <missing> entirely once you have enough context.`

// Request is the Q&A contract's request shape.
type Request struct {
	Question    string
	SessionID   string
	QuickMode   bool
	Temperature float64
	UseGraph    bool
}

// SearchQuality reports which stores served the initial retrieval.
type SearchQuality struct {
	SemanticSearched bool
	FTSSearched      bool
	ResultsFound     int
	ResultsUsed      int
}

// Info reports CGRAG-specific bookkeeping, populated only when the loop
// actually ran (nil for Quick mode).
type Info struct {
	PassesUsed        int
	GapsIdentified    int
	GapsResolved      int
	GapsUnresolved    int
	SessionID         string
	ContextFromCache  bool
}

// Response is the Q&A contract's response shape.
type Response struct {
	Answer        string
	Citations     []Citation
	Confidence    Confidence
	Disclaimer    string
	SearchQuality SearchQuality
	CGRAG         *Info
}

// Loop runs the CGRAG iterative retrieve-answer-identify-gaps-resolve
// cycle, or its Quick-mode bypass, sharing the same tag-tolerant
// answer-parsing path either way.
type Loop struct {
	Provider llm.Provider
	Model    string
	Sessions *SessionStore
	Resolver *Resolver
	// MaxPasses bounds CGRAG iterations; defaults to 3 if unset.
	MaxPasses int
}

func (l *Loop) maxPasses() int {
	if l.MaxPasses > 0 {
		return l.MaxPasses
	}
	return defaultMaxPasses
}

// Answer runs either Quick mode (one LLM call) or the full CGRAG loop,
// given the initial retrieval's context chunks, the search distances
// backing confidence derivation, and the search-quality envelope.
func (l *Loop) Answer(ctx context.Context, req Request, initial []ContextChunk, distances []float64, sq SearchQuality) (Response, error) {
	confidence := DeriveConfidence(distances)

	if req.QuickMode {
		return l.answerQuick(ctx, req, initial, confidence, sq)
	}
	return l.answerCGRAG(ctx, req, initial, confidence, sq)
}

func (l *Loop) answerQuick(ctx context.Context, req Request, ctxChunks []ContextChunk, confidence Confidence, sq SearchQuality) (Response, error) {
	resp, err := l.call(ctx, req, ctxChunks)
	if err != nil {
		return Response{
			Answer: "", Confidence: Low,
			Disclaimer:    fmt.Sprintf("quick mode call failed: %v", err),
			SearchQuality: sq,
		}, nil
	}
	parsed := ParseResponse(resp.Message.Content)
	return Response{
		Answer:        parsed.Answer,
		Citations:     ExtractCitations(parsed.Answer, ctxChunks),
		Confidence:    confidence,
		SearchQuality: sq,
	}, nil
}

func (l *Loop) answerCGRAG(ctx context.Context, req Request, initial []ContextChunk, confidence Confidence, sq SearchQuality) (Response, error) {
	session := l.Sessions.GetOrCreate(req.SessionID)
	fromCache := len(session.Context) > 0
	for _, c := range initial {
		session.AddContext(c.ChunkID, c.Content)
	}

	var lastAnswer string
	gapsIdentified, gapsResolved, gapsUnresolved := 0, 0, 0

	for pass := 0; pass < l.maxPasses(); pass++ {
		if err := ctx.Err(); err != nil {
			return Response{
				Answer: lastAnswer, Confidence: confidence,
				Disclaimer:    "request cancelled before completion",
				SearchQuality: sq,
				CGRAG: &Info{
					PassesUsed: pass, GapsIdentified: gapsIdentified,
					GapsResolved: gapsResolved, GapsUnresolved: gapsUnresolved,
					SessionID: session.ID, ContextFromCache: fromCache,
				},
			}, nil
		}

		resp, err := l.call(ctx, req, session.Context)
		if err != nil {
			return Response{
				Answer: lastAnswer, Confidence: confidence,
				Disclaimer:    fmt.Sprintf("CGRAG pass %d failed: %v", pass+1, err),
				SearchQuality: sq,
				CGRAG: &Info{
					PassesUsed: pass, GapsIdentified: gapsIdentified,
					GapsResolved: gapsResolved, GapsUnresolved: gapsUnresolved,
					SessionID: session.ID, ContextFromCache: fromCache,
				},
			}, nil
		}

		parsed := ParseResponse(resp.Message.Content)
		lastAnswer = parsed.Answer
		session.Passes++

		if len(parsed.Gaps) == 0 {
			break
		}
		gapsIdentified += len(parsed.Gaps)

		anyResolved := false
		for _, gap := range parsed.Gaps {
			chunks, resolved, err := l.Resolver.Resolve(ctx, gap)
			if err != nil || !resolved {
				session.UnresolvedGaps = append(session.UnresolvedGaps, gap)
				gapsUnresolved++
				continue
			}
			for _, c := range chunks {
				session.AddContext(c.ChunkID, c.Content)
			}
			session.ResolvedGaps = append(session.ResolvedGaps, gap)
			gapsResolved++
			anyResolved = true
		}
		if !anyResolved {
			break
		}
	}

	return Response{
		Answer:        lastAnswer,
		Citations:     ExtractCitations(lastAnswer, session.Context),
		Confidence:    confidence,
		SearchQuality: sq,
		CGRAG: &Info{
			PassesUsed: session.Passes, GapsIdentified: gapsIdentified,
			GapsResolved: gapsResolved, GapsUnresolved: gapsUnresolved,
			SessionID: session.ID, ContextFromCache: fromCache,
		},
	}, nil
}

func (l *Loop) call(ctx context.Context, req Request, ctxChunks []ContextChunk) (*llm.ChatResponse, error) {
	return l.Provider.Chat(ctx, llm.ChatRequest{
		Model:       l.Model,
		Temperature: req.Temperature,
		Messages: []llm.Message{
			{Role: "system", Content: cgragSystemPrompt},
			{Role: "user", Content: buildPrompt(req.Question, ctxChunks)},
		},
	})
}

func buildPrompt(question string, ctxChunks []ContextChunk) string {
	var b strings.Builder
	for i, c := range ctxChunks {
		fmt.Fprintf(&b, "--- Source %d: %s ---\n%s\n\n", i+1, c.ChunkID, c.Content)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
