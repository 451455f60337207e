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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/oyawiki/engine/internal/errors"
	"github.com/oyawiki/engine/internal/output"
	"github.com/oyawiki/engine/internal/ui"
	"github.com/oyawiki/engine/pkg/cgrag"
	"github.com/oyawiki/engine/pkg/graph"
	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/query"
	"github.com/oyawiki/engine/pkg/search"
)

// runQuery executes the 'query' command: classifies the question into
// one of the four modes, dispatches to the matching retriever, resolves
// its evidence into source text, then runs the CGRAG loop to produce a
// cited, confidence-scored answer.
//
// Examples:
//
//	oyawiki query "why does login fail with InvalidTokenError"
//	oyawiki query --json "trace the checkout flow"
func runQuery(args []string, configPath string) {
	fs := pflag.NewFlagSet("query", pflag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output the response as JSON")
	quick := fs.Bool("quick", false, "Skip the CGRAG gap-resolution loop")
	timeout := fs.Duration("timeout", 60*time.Second, "Overall query timeout")
	sessionID := fs.String("session", "", "Session ID to accumulate context across turns")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki query [options] "<question>"

Asks a question about the current repository.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	question := fs.Arg(0)

	cfg, err := loadRepoConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load oyawiki configuration",
			err.Error(),
			"Run 'oyawiki init' to create a new configuration",
			err,
		), *jsonOutput)
	}
	provider, err := providerFor(cfg)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot create the LLM provider",
			err.Error(),
			"Check the llm/llm_model settings and the provider's API key environment variable",
			err,
		), *jsonOutput)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	metaDir := filepath.Join(cfg.DataDir, "meta")

	idx, err := index.Open(filepath.Join(metaDir, "code_index.db"))
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open the code index",
			err.Error(),
			"Run 'oyawiki generate' to build the index first",
			err,
		), *jsonOutput)
	}
	defer idx.Close()

	g, err := graph.Load(filepath.Join(cfg.DataDir, "graph"))
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot load the symbol graph",
			err.Error(),
			"Run 'oyawiki generate' to build the graph first",
			err,
		), *jsonOutput)
	}

	semantic, err := search.OpenSemanticStore(filepath.Join(metaDir, "search_semantic.db"), cfg.EmbeddingDimensions)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open the semantic search store",
			err.Error(),
			"Run 'oyawiki generate' to build the index first",
			err,
		), *jsonOutput)
	}
	defer semantic.Close()
	fullText, err := search.OpenFullTextStore(filepath.Join(metaDir, "search_fulltext.db"))
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open the full-text search store",
			err.Error(),
			"Run 'oyawiki generate' to build the index first",
			err,
		), *jsonOutput)
	}
	defer fullText.Close()
	hybrid := &search.Hybrid{Semantic: semantic, FullText: fullText, Embedder: provider}

	classifier := &query.Classifier{Provider: provider, Model: cfg.LLMModel}
	classification, err := classifier.Classify(ctx, question)
	if err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Cannot classify the question",
			err.Error(),
			"Check your network connection and the LLM provider's availability",
			err,
		), *jsonOutput)
	}

	fetcher := query.NewSourceFetcher(cfg.RepoRoot)

	chunks, distances, sq, err := retrieveContext(ctx, classification.Mode, question, idx, g, hybrid, fullText, fetcher)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot retrieve context for the question",
			err.Error(),
			"This may be a bug worth reporting",
			err,
		), *jsonOutput)
	}

	loop := &cgrag.Loop{
		Provider: provider,
		Model:    cfg.LLMModel,
		Sessions: cgrag.NewSessionStore(newSessionID),
		Resolver: &cgrag.Resolver{
			Index:   idx,
			Fetcher: fetcher,
			Search:  &hybridGapSearcher{hybrid: hybrid, catalog: fullText},
		},
	}

	resp, err := loop.Answer(ctx, cgrag.Request{
		Question:  question,
		SessionID: *sessionID,
		QuickMode: *quick,
	}, chunks, distances, sq)
	if err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Cannot answer the question",
			err.Error(),
			"Check your network connection and the LLM provider's availability",
			err,
		), *jsonOutput)
	}

	printQueryResponse(classification, resp, *jsonOutput)
}

// retrieveContext dispatches to the mode-specific retriever, resolves
// its evidence (or, for Conceptual, its already-fused search results)
// into cgrag.ContextChunks, and reports distances DeriveConfidence can
// use: real vector distances for Conceptual, and a synthetic ramp for
// the graph-based modes, which have no vector signal of their own.
func retrieveContext(
	ctx context.Context,
	mode query.Mode,
	question string,
	idx *index.Index,
	g *graph.Graph,
	hybrid *search.Hybrid,
	catalog query.ChunkCatalog,
	fetcher *query.SourceFetcher,
) ([]cgrag.ContextChunk, []float64, cgrag.SearchQuality, error) {
	switch mode {
	case query.Conceptual:
		retriever := &query.ConceptualRetriever{Hybrid: hybrid, Catalog: catalog}
		result, env, err := retriever.Retrieve(ctx, question)
		if err != nil {
			return nil, nil, cgrag.SearchQuality{}, err
		}
		chunks := make([]cgrag.ContextChunk, 0, len(env.Results))
		distances := make([]float64, 0, len(env.Results))
		for _, r := range env.Results {
			chunks = append(chunks, cgrag.ContextChunk{ChunkID: r.ChunkID, Content: r.Content})
			distances = append(distances, 1-r.Score)
		}
		sq := cgrag.SearchQuality{
			SemanticSearched: env.SemanticQueried,
			FTSSearched:      env.FullTextQueried,
			ResultsFound:     len(env.Results),
			ResultsUsed:      len(result.Evidence),
		}
		return chunks, distances, sq, nil

	case query.Exploratory:
		result, err := (&query.ExploratoryRetriever{Graph: g}).Retrieve(question)
		if err != nil {
			return nil, nil, cgrag.SearchQuality{}, err
		}
		return evidenceToContext(result, fetcher)

	case query.Analytical:
		result, err := (&query.AnalyticalRetriever{Graph: g}).Retrieve(question)
		if err != nil {
			return nil, nil, cgrag.SearchQuality{}, err
		}
		return evidenceToContext(result, fetcher)

	default: // query.Diagnostic
		result, err := (&query.DiagnosticRetriever{Index: idx}).Retrieve(question)
		if err != nil {
			return nil, nil, cgrag.SearchQuality{}, err
		}
		return evidenceToContext(result, fetcher)
	}
}

// evidenceToContext resolves a graph-based retriever's evidence into
// source snippets, deriving a synthetic distance ramp (closer matches
// earlier) since these retrievers have no vector distance of their own
// for DeriveConfidence to read.
func evidenceToContext(result query.RetrievalResult, fetcher *query.SourceFetcher) ([]cgrag.ContextChunk, []float64, cgrag.SearchQuality, error) {
	snippets, err := fetcher.Resolve(result.Evidence)
	if err != nil {
		return nil, nil, cgrag.SearchQuality{}, err
	}
	chunks := make([]cgrag.ContextChunk, 0, len(snippets))
	distances := make([]float64, 0, len(snippets))
	for i, s := range snippets {
		chunkID := fmt.Sprintf("%s::%s", s.Evidence.FilePath, s.Evidence.SymbolName)
		chunks = append(chunks, cgrag.ContextChunk{ChunkID: chunkID, Content: s.Text})
		distances = append(distances, 0.1+0.1*float64(i))
	}
	if result.FlowText != "" {
		chunks = append(chunks, cgrag.ContextChunk{ChunkID: "trace::flow", Content: result.FlowText})
	}
	sq := cgrag.SearchQuality{ResultsFound: len(result.Evidence), ResultsUsed: len(chunks)}
	return chunks, distances, sq, nil
}

// hybridGapSearcher adapts hybrid search to cgrag.GapSearcher, the path
// a CGRAG gap takes when the Code Index has nothing under that name.
type hybridGapSearcher struct {
	hybrid  *search.Hybrid
	catalog query.ChunkCatalog
}

func (h *hybridGapSearcher) SearchGap(ctx context.Context, text string) ([]cgrag.ContextChunk, error) {
	probe, err := h.hybrid.Search(ctx, text, conceptualGapLimit, map[string]string{}, map[string]string{})
	if err != nil {
		return nil, fmt.Errorf("gap search probe: %w", err)
	}
	ids := make([]string, 0, len(probe.Results))
	for _, r := range probe.Results {
		ids = append(ids, r.ChunkID)
	}
	contentByID, typeByID, err := h.catalog.Lookup(ids)
	if err != nil {
		return nil, fmt.Errorf("resolve gap chunk catalog: %w", err)
	}
	env, err := h.hybrid.Search(ctx, text, conceptualGapLimit, contentByID, typeByID)
	if err != nil {
		return nil, fmt.Errorf("gap search: %w", err)
	}
	chunks := make([]cgrag.ContextChunk, 0, len(env.Results))
	for _, r := range env.Results {
		chunks = append(chunks, cgrag.ContextChunk{ChunkID: r.ChunkID, Content: r.Content})
	}
	return chunks, nil
}

const conceptualGapLimit = 5

var sessionCounter int

// newSessionID mints a session ID when the caller doesn't supply one;
// queries are one-shot CLI invocations so collisions across processes
// don't matter.
func newSessionID() string {
	sessionCounter++
	return fmt.Sprintf("cli-%d", sessionCounter)
}

func printQueryResponse(cls query.Classification, resp cgrag.Response, asJSON bool) {
	if asJSON {
		output.JSON(struct {
			Mode       query.Mode       `json:"mode"`
			Answer     string           `json:"answer"`
			Citations  []cgrag.Citation `json:"citations"`
			Confidence cgrag.Confidence `json:"confidence"`
			Disclaimer string           `json:"disclaimer,omitempty"`
		}{cls.Mode, resp.Answer, resp.Citations, resp.Confidence, resp.Disclaimer})
		return
	}

	ui.SubHeader(fmt.Sprintf("Mode: %s", cls.Mode))
	fmt.Println()
	fmt.Println(resp.Answer)
	if len(resp.Citations) > 0 {
		fmt.Println()
		fmt.Println(ui.Label("Citations:"))
		for _, c := range resp.Citations {
			fmt.Printf("  - %s (%s)\n", c.Text, c.ChunkID)
		}
	}
	fmt.Println()
	fmt.Printf("Confidence: %s\n", resp.Confidence)
	if resp.Disclaimer != "" {
		ui.Warning(resp.Disclaimer)
	}
}
