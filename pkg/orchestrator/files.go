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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/llm"
	"github.com/oyawiki/engine/pkg/parse"
	"github.com/oyawiki/engine/pkg/wiki"
)

// fileRetries and fileRetryBackoff bound how hard the Files phase
// fights a transient LLM failure before giving up on a single file.
// Grounded on the teacher's checkpoint-and-retry posture in
// local_pipeline.go, simplified to a backoff that grows linearly with
// the attempt number (fileRetryBackoff * attempt) since the teacher's
// batching/rate-limit logic doesn't apply to a one-file-at-a-time call.
const fileRetries = 3

var fileRetryBackoff = 500 * time.Millisecond

// FilePageResult is one file's Files-phase outcome.
type FilePageResult struct {
	RelPath  string
	Page     string
	Summary  wiki.FileSummary
	Sig      string
	Skipped  bool // unchanged per SignatureStore, page not regenerated
	Degraded bool // LLM failed after retries; stub page emitted
}

// llmFileOutput is the structured shape the Files-phase prompt asks the
// model to return.
type llmFileOutput struct {
	Purpose         string      `json:"purpose"`
	Layer           string      `json:"layer"`
	KeyAbstractions []string    `json:"key_abstractions"`
	ExternalDeps    []string    `json:"external_deps"`
	Issues          []wiki.Issue `json:"issues"`
	PublicAPI       string      `json:"public_api"`
	InternalDetails string      `json:"internal_details"`
	ExampleCode     string      `json:"example_code"` // only used when no doc/callsite synopsis exists
}

// GenerateFilePages runs the Files phase: for every parsed file whose
// signature changed (content hash or correction notes), it generates a
// page via the LLM and renders it through pkg/wiki; unchanged files are
// skipped and their previously rendered page is left untouched.
//
// Parallelism is grounded on the teacher's local_pipeline.go worker-pool
// shape (analyze.go's Analyze already reuses it for parsing); here a
// fixed-size pool of goroutines pulls from a shared job channel instead
// of fanning out unconditionally, since each job is an LLM call and the
// caller wants a hard concurrency ceiling (RepoConfig.ParallelFileLimit).
func GenerateFilePages(
	ctx context.Context,
	provider llm.Provider,
	model string,
	idx *index.Index,
	files []*parse.ParsedFile,
	sigStore *SignatureStore,
	notes CorrectionNotesProvider,
	parallelLimit int,
	progress ProgressFunc,
) ([]FilePageResult, error) {
	if parallelLimit <= 0 {
		parallelLimit = 2
	}

	byPath := make(map[string]*parse.ParsedFile, len(files))
	for _, pf := range files {
		byPath[pf.FilePath] = pf
	}

	jobs := make(chan *parse.ParsedFile, len(files))
	results := make(chan FilePageResult, len(files))

	var wg sync.WaitGroup
	for w := 0; w < parallelLimit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pf := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- generateOneFilePage(ctx, provider, model, idx, pf, sigStore, notes)
			}
		}()
	}
	for _, pf := range files {
		jobs <- pf
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]FilePageResult, 0, len(files))
	for r := range results {
		out = append(out, r)
		progress.report(len(out), len(files))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func generateOneFilePage(
	ctx context.Context,
	provider llm.Provider,
	model string,
	idx *index.Index,
	pf *parse.ParsedFile,
	sigStore *SignatureStore,
	notes CorrectionNotesProvider,
) FilePageResult {
	note := notes.NotesForFile(pf.FilePath)
	sig := FileSignature(pf.Content, note)

	if sigStore.FileUnchanged(pf.FilePath, sig) {
		return FilePageResult{RelPath: pf.FilePath, Sig: sig, Skipped: true}
	}

	synopsis, otherCallers := buildSynopsis(idx, pf)

	out, err := requestFileSummary(ctx, provider, model, pf, note, synopsis)
	if err != nil {
		page := stubFilePage(pf, err)
		sigStore.SetFile(pf.FilePath, sig)
		recordFileDegraded()
		return FilePageResult{RelPath: pf.FilePath, Page: page, Sig: sig, Degraded: true}
	}

	if synopsis.Code == "" && out.ExampleCode != "" {
		synopsis = wiki.Synopsis{Source: "llm", Code: out.ExampleCode}
	}

	summary := wiki.FileSummary{
		Purpose:         out.Purpose,
		Layer:           wiki.NormalizeLayer(out.Layer),
		KeyAbstractions: out.KeyAbstractions,
		InternalDeps:    internalDeps(pf),
		ExternalDeps:    out.ExternalDeps,
		Issues:          out.Issues,
	}
	page, err := wiki.RenderFilePage(wiki.FilePageInput{
		Title:           pf.FilePath,
		Summary:         summary,
		Synopsis:        synopsis,
		PublicAPI:       out.PublicAPI,
		InternalDetails: out.InternalDetails,
		Dependencies:    renderDependencies(pf, out.ExternalDeps),
		OtherCallers:    otherCallers,
	})
	if err != nil {
		page = stubFilePage(pf, err)
		sigStore.SetFile(pf.FilePath, sig)
		recordFileDegraded()
		return FilePageResult{RelPath: pf.FilePath, Page: page, Sig: sig, Degraded: true}
	}

	sigStore.SetFile(pf.FilePath, sig)
	return FilePageResult{RelPath: pf.FilePath, Page: page, Summary: summary, Sig: sig}
}

// requestFileSummary calls the LLM with retries and parses its JSON
// reply. A syntax error in the reply is retried like any other
// transient failure; only exhausting fileRetries is treated as
// permanent.
func requestFileSummary(ctx context.Context, provider llm.Provider, model string, pf *parse.ParsedFile, note string, synopsis wiki.Synopsis) (llmFileOutput, error) {
	prompt := buildFilePrompt(pf, note, synopsis)

	var lastErr error
	for attempt := 0; attempt < fileRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return llmFileOutput{}, ctx.Err()
			case <-time.After(fileRetryBackoff * time.Duration(attempt)):
			}
		}

		resp, err := provider.Chat(ctx, llm.ChatRequest{
			Model: model,
			Messages: []llm.Message{
				{Role: "system", Content: llm.WikiPrompts.FileSummary},
				{Role: "user", Content: prompt},
			},
			Temperature: 0.2,
		})
		if err != nil {
			lastErr = err
			continue
		}

		var out llmFileOutput
		if err := json.Unmarshal([]byte(extractJSON(resp.Message.Content)), &out); err != nil {
			lastErr = fmt.Errorf("parse file summary response: %w", err)
			continue
		}
		return out, nil
	}
	return llmFileOutput{}, fmt.Errorf("file summary generation failed after %d attempts: %w", fileRetries, lastErr)
}

func buildFilePrompt(pf *parse.ParsedFile, note string, synopsis wiki.Synopsis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s (%s, %d lines)\n\n", pf.FilePath, pf.Language, pf.LineCount)
	if note != "" {
		b.WriteString("Correction notes from a human collaborator (treat as authoritative):\n")
		b.WriteString(note)
		b.WriteString("\n\n")
	}
	b.WriteString("Symbols:\n")
	for _, s := range pf.Symbols {
		fmt.Fprintf(&b, "- %s %s (lines %d-%d): %s\n", s.Kind, s.Name, s.StartLine, s.EndLine, firstLine(s.Docstring))
	}
	b.WriteString("\nImports:\n")
	for _, imp := range pf.Imports {
		fmt.Fprintf(&b, "- %s\n", imp.ImportPath)
	}
	if synopsis.Code == "" {
		b.WriteString("\nNo doc comment or call-site example is available for this file; include a short, representative usage example in example_code.\n")
	}
	b.WriteString("\nRespond with a JSON object: {\"purpose\":\"...\",\"layer\":\"...\",\"key_abstractions\":[...],\"external_deps\":[...],\"issues\":[{\"category\":\"...\",\"severity\":\"...\",\"title\":\"...\",\"description\":\"...\"}],\"public_api\":\"markdown\",\"internal_details\":\"markdown\",\"example_code\":\"...\"}.\n")
	b.WriteString("\nSource:\n")
	b.Write(pf.Content)
	return b.String()
}

// buildSynopsis applies the §6 fallback chain: a doc-comment synopsis
// the parser already extracted wins outright; otherwise the highest-
// priority caller of an exported symbol supplies a real call-site
// snippet, with up to wiki.MaxListedCallers other callers listed.
func buildSynopsis(idx *index.Index, pf *parse.ParsedFile) (wiki.Synopsis, []wiki.CallerRef) {
	if pf.Synopsis != nil {
		return wiki.Synopsis{Source: pf.Synopsis.Source, Code: pf.Synopsis.Code}, nil
	}

	for _, sym := range pf.Symbols {
		if !isExported(sym.Name) {
			continue
		}
		callers, err := idx.Callers(sym.Name)
		if err != nil || len(callers) == 0 {
			continue
		}
		sortCallersByPriority(callers)

		chosen := callers[0]
		snippet := fmt.Sprintf("// called from %s\n%s(...)", chosen.FilePath, sym.Name)

		var refs []wiki.CallerRef
		for _, c := range callers[1:] {
			refs = append(refs, wiki.CallerRef{
				Label: fmt.Sprintf("%s::%s", c.FilePath, c.SymbolName),
				Link:  wiki.FilePageLink(c.FilePath),
			})
		}
		return wiki.Synopsis{Source: "callsite", Code: snippet}, refs
	}

	return wiki.Synopsis{}, nil
}

// sortCallersByPriority prefers call sites outside test files (paths
// containing "_test.go" or "/test/"), then falls back to file path order
// for determinism.
func sortCallersByPriority(callers []index.Entry) {
	priority := func(e index.Entry) int {
		if strings.Contains(e.FilePath, "_test.go") || strings.Contains(e.FilePath, "/test/") {
			return 1
		}
		return 0
	}
	sort.SliceStable(callers, func(i, j int) bool {
		pi, pj := priority(callers[i]), priority(callers[j])
		if pi != pj {
			return pi < pj
		}
		return callers[i].FilePath < callers[j].FilePath
	})
}

func isExported(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

func internalDeps(pf *parse.ParsedFile) []string {
	var deps []string
	for _, imp := range pf.Imports {
		if isLikelyInternal(imp.ImportPath) {
			deps = append(deps, imp.ImportPath)
		}
	}
	return deps
}

// isLikelyInternal treats relative-looking or module-local import paths
// as internal; anything else (a third-party module path) is external.
// internalDeps uses the result as is: the repo's own module path is not
// consulted.
func isLikelyInternal(importPath string) bool {
	return strings.HasPrefix(importPath, ".") || strings.Contains(importPath, "internal/")
}

func renderDependencies(pf *parse.ParsedFile, externalDeps []string) string {
	if len(pf.Imports) == 0 && len(externalDeps) == 0 {
		return ""
	}
	var b strings.Builder
	for _, imp := range pf.Imports {
		fmt.Fprintf(&b, "- `%s`\n", imp.ImportPath)
	}
	for _, dep := range externalDeps {
		fmt.Fprintf(&b, "- %s\n", dep)
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// extractJSON strips a leading/trailing markdown code fence if the
// model wrapped its JSON reply in one, a common enough quirk that the
// teacher's own ingestion prompts (pkg/ingestion) guard against too.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// stubFilePage renders a minimal degraded page when LLM generation
// fails permanently, so one file's failure can't halt the run.
func stubFilePage(pf *parse.ParsedFile, cause error) string {
	summary := wiki.FileSummary{
		Purpose: fmt.Sprintf("Page generation failed for this file: %s", cause),
		Layer:   wiki.DefaultLayer,
	}
	page, err := wiki.RenderFilePage(wiki.FilePageInput{
		Title:   pf.FilePath,
		Summary: summary,
	})
	if err != nil {
		// RenderFilePage only fails on YAML marshal errors against a
		// struct this package controls; fall back to a bare heading.
		return "# " + pf.FilePath + "\n\nPage generation failed: " + cause.Error() + "\n"
	}
	return page
}
