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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oyawiki/engine/internal/config"
	"github.com/oyawiki/engine/pkg/chunk"
	"github.com/oyawiki/engine/pkg/graph"
	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/llm"
	"github.com/oyawiki/engine/pkg/search"
	"github.com/oyawiki/engine/pkg/wiki"
)

// Orchestrator sequences the six-phase pipeline that turns a source
// repository into a generated, indexed wiki.
//
// Adapted from the teacher's pkg/ingestion.LocalPipeline, which runs a
// similar sequence (load -> parse -> extract -> batch -> send) against
// CozoDB; this orchestrator retargets every phase to wiki generation and
// adds the bottom-up Directories fan-out and signature gating the
// teacher's flat ingestion run never needed.
type Orchestrator struct {
	Config   *config.RepoConfig
	Provider llm.Provider
	Notes    CorrectionNotesProvider

	// Embedder backs the hybrid search index; defaults to Provider if nil.
	Embedder search.Embedder

	// Progress, if set, is called as the Files and Directories phases
	// complete each item, e.g. to drive a CLI progress bar.
	Progress ProgressFunc
}

// RunResult summarizes one generation run across all six phases.
type RunResult struct {
	FilesDiscovered int
	SkipReasons     SkipReasons
	ParseErrors     int
	FilesGenerated  int
	FilesSkipped    int
	DirsGenerated   int
	DirsSkipped     int
	ChunksIndexed   int
	Duration        time.Duration
}

// Run executes Discover, Analyze, Files, Directories, Synthesize, and
// Index in order, promoting the staged wiki only after every page has
// rendered.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	cfg := o.Config
	notes := o.Notes
	if notes == nil {
		notes = NoCorrectionNotes{}
	}
	embedder := o.Embedder
	if embedder == nil {
		embedder = o.Provider
	}

	discoverStart := time.Now()
	discovered, err := Discover(cfg.RepoRoot, IgnoreSpec{
		MaxFileSize:  cfg.MaxFileSizeBytes,
		ExcludeGlobs: cfg.IgnoreGlobs,
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("discover phase: %w", err)
	}
	observePhase("discover", time.Since(discoverStart))

	metaDir := filepath.Join(cfg.DataDir, "meta")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("create meta directory: %w", err)
	}

	idx, err := index.Open(filepath.Join(metaDir, "code_index.db"))
	if err != nil {
		return RunResult{}, fmt.Errorf("open code index: %w", err)
	}
	defer idx.Close()

	analyzeStart := time.Now()
	analysis, err := Analyze(ctx, idx, discovered.Files, cfg.ParallelFileLimit)
	if err != nil {
		return RunResult{}, fmt.Errorf("analyze phase: %w", err)
	}
	observePhase("analyze", time.Since(analyzeStart))

	graphDir := filepath.Join(cfg.DataDir, "graph")
	if err := os.MkdirAll(graphDir, 0o755); err != nil {
		return RunResult{}, fmt.Errorf("create graph directory: %w", err)
	}
	if err := graph.Persist(analysis.Graph, graphDir, sourceRepoHash(analysis.FileHashes), start.Format(time.RFC3339)); err != nil {
		return RunResult{}, fmt.Errorf("persist graph: %w", err)
	}

	sigStore, err := OpenSignatureStore(filepath.Join(metaDir, "signatures.json"))
	if err != nil {
		return RunResult{}, fmt.Errorf("open signature store: %w", err)
	}

	stager := NewStager(cfg.DataDir)
	if err := stager.Reset(); err != nil {
		return RunResult{}, fmt.Errorf("reset staging directory: %w", err)
	}

	filesStart := time.Now()
	fileResults, err := GenerateFilePages(ctx, o.Provider, cfg.LLMModel, idx, analysis.Files, sigStore, notes, cfg.ParallelFileLimit, o.Progress)
	if err != nil {
		return RunResult{}, fmt.Errorf("files phase: %w", err)
	}
	observePhase("files", time.Since(filesStart))

	fileSummaries := make(map[string]wiki.FileSummary, len(fileResults))
	generated, skipped := 0, 0
	for _, r := range fileResults {
		if r.Skipped {
			skipped++
			if err := copyForwardPage(stager, wiki.FilePageLink(r.RelPath)); err != nil {
				return RunResult{}, fmt.Errorf("carry forward unchanged page for %s: %w", r.RelPath, err)
			}
			continue
		}
		generated++
		fileSummaries[r.RelPath] = r.Summary
		if err := stager.WriteFile(pageFilename(wiki.FilePageLink(r.RelPath)), []byte(r.Page)); err != nil {
			return RunResult{}, fmt.Errorf("stage page for %s: %w", r.RelPath, err)
		}
	}

	directoriesStart := time.Now()
	dirResults, err := GenerateDirectoryPages(ctx, o.Provider, cfg.LLMModel, fileResults, fileSummaries, sigStore, notes, cfg.ParallelFileLimit, o.Progress)
	if err != nil {
		return RunResult{}, fmt.Errorf("directories phase: %w", err)
	}
	observePhase("directories", time.Since(directoriesStart))

	dirsGenerated, dirsSkipped := 0, 0
	for _, r := range dirResults {
		link := wiki.DirPageLink(r.DirPath)
		if r.DirPath == "" {
			link = "./README.md"
		}
		if r.Skipped {
			dirsSkipped++
			if err := copyForwardPage(stager, link); err != nil {
				return RunResult{}, fmt.Errorf("carry forward unchanged directory page for %q: %w", r.DirPath, err)
			}
			continue
		}
		dirsGenerated++
		if err := stager.WriteFile(pageFilename(link), []byte(r.Page)); err != nil {
			return RunResult{}, fmt.Errorf("stage directory page for %q: %w", r.DirPath, err)
		}
	}

	synthesizeStart := time.Now()
	architecture, err := Synthesize(ctx, o.Provider, cfg.LLMModel, dirResults)
	if err != nil {
		return RunResult{}, fmt.Errorf("synthesize phase: %w", err)
	}
	if err := stager.WriteFile("architecture.md", []byte("# "+architecture.Title+"\n\n"+architecture.Content+"\n")); err != nil {
		return RunResult{}, fmt.Errorf("stage architecture page: %w", err)
	}
	observePhase("synthesize", time.Since(synthesizeStart))

	if err := stager.Promote(); err != nil {
		return RunResult{}, fmt.Errorf("promote staged wiki: %w", err)
	}

	if err := sigStore.Save(); err != nil {
		return RunResult{}, fmt.Errorf("save signature store: %w", err)
	}

	indexStart := time.Now()
	chunksIndexed, err := o.indexWiki(ctx, stager.LiveDir, embedder, filepath.Join(metaDir, "search_semantic.db"), filepath.Join(metaDir, "search_fulltext.db"))
	if err != nil {
		return RunResult{}, fmt.Errorf("index phase: %w", err)
	}
	observePhase("index", time.Since(indexStart))

	result := RunResult{
		FilesDiscovered: len(discovered.Files),
		SkipReasons:     discovered.SkipReasons,
		ParseErrors:     analysis.ParseErrors,
		FilesGenerated:  generated,
		FilesSkipped:    skipped,
		DirsGenerated:   dirsGenerated,
		DirsSkipped:     dirsSkipped,
		ChunksIndexed:   chunksIndexed,
		Duration:        time.Since(start),
	}
	recordRunResult(result)
	return result, nil
}

// indexWiki hands every promoted page to the chunker and the hybrid
// search index: C5/C6 reindexing per the Index phase.
func (o *Orchestrator) indexWiki(ctx context.Context, liveDir string, embedder search.Embedder, semanticPath, fullTextPath string) (int, error) {
	semantic, err := search.OpenSemanticStore(semanticPath, o.Config.EmbeddingDimensions)
	if err != nil {
		return 0, fmt.Errorf("open semantic store: %w", err)
	}
	fullText, err := search.OpenFullTextStore(fullTextPath)
	if err != nil {
		return 0, fmt.Errorf("open full-text store: %w", err)
	}

	hybrid := &search.Hybrid{Semantic: semantic, FullText: fullText, Embedder: embedder}
	chunker := chunk.New(chunk.Config{})

	entries, err := os.ReadDir(liveDir)
	if err != nil {
		return 0, fmt.Errorf("list promoted pages: %w", err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(liveDir, e.Name()))
		if err != nil {
			return count, fmt.Errorf("read promoted page %s: %w", e.Name(), err)
		}

		sections := chunk.SplitSections(e.Name(), string(data))
		for _, ch := range chunker.Chunk(e.Name(), sections) {
			rec := search.ChunkRecord{
				ID:      ch.ID,
				Title:   ch.DocumentTitle,
				Header:  ch.Header,
				Content: ch.Content,
				Type:    "wiki",
			}
			if err := hybrid.Index(ctx, rec); err != nil {
				return count, fmt.Errorf("index chunk %s: %w", ch.ID, err)
			}
			count++
		}
	}
	return count, nil
}

// copyForwardPage copies an already-promoted page into the new staging
// tree unchanged, so a run that regenerates some pages doesn't lose the
// others to the staging directory's whole-tree promotion.
func copyForwardPage(stager *Stager, link string) error {
	name := pageFilename(link)
	data, err := os.ReadFile(filepath.Join(stager.LiveDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing was ever promoted for this page (e.g. first run
			// restored from a signature store without its wiki tree);
			// leave it absent rather than failing the run.
			return nil
		}
		return err
	}
	return stager.WriteFile(name, data)
}

func pageFilename(link string) string {
	return strings.TrimPrefix(link, "./")
}

// sourceRepoHash folds all file content hashes into a single digest
// identifying the analyzed snapshot, recorded in the graph's metadata.
func sourceRepoHash(fileHashes map[string]string) string {
	return DirectorySignature(fileHashes, nil)
}
