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
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/oyawiki/engine/pkg/graph"
	"github.com/oyawiki/engine/pkg/index"
	"github.com/oyawiki/engine/pkg/parse"
)

// parallelParseThreshold mirrors the teacher's local_pipeline.go cutoff
// below which sequential parsing beats worker-pool overhead.
const parallelParseThreshold = 10

// AnalyzeResult is the Analyze phase's output: parsed files, the
// resolved reference set, the built graph and code index, and each
// file's content hash (the input to FileSignature).
type AnalyzeResult struct {
	Files      []*parse.ParsedFile
	References parse.ResolvedReferences
	Graph      *graph.Graph
	Index      *index.Index
	FileHashes map[string]string // rel path -> sha256 hex of content
	ParseErrors int
}

// Analyze runs C1 across every discovered file, resolves cross-file
// references, and builds C2 (graph) and C3 (code index) from the
// result. Parsing runs in parallel up to numWorkers (CPU count if 0),
// falling back to sequential parsing for small file sets.
//
// Grounded on the teacher's local_pipeline.go parseFilesParallel/
// parseFilesSequential split: jobs channel, WaitGroup, atomic error
// count, mutex-protected shared map -- here the shared map accumulates
// file hashes instead of package names.
func Analyze(ctx context.Context, idx *index.Index, files []DiscoveredFile, numWorkers int) (AnalyzeResult, error) {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	var parsed []*parse.ParsedFile
	var hashes map[string]string
	var errCount int

	if len(files) < parallelParseThreshold || numWorkers <= 1 {
		parsed, hashes, errCount = analyzeSequential(files)
	} else {
		parsed, hashes, errCount = analyzeParallel(ctx, files, numWorkers)
	}

	resolver := parse.NewResolver()
	resolver.BuildIndex(parsed)
	refs := resolver.Resolve(parsed)

	g := graph.Build(parsed, refs.References)

	entries := index.EntriesFromFiles(parsed)
	if err := idx.Build(entries); err != nil {
		return AnalyzeResult{}, err
	}

	return AnalyzeResult{
		Files:       parsed,
		References:  refs,
		Graph:       g,
		Index:       idx,
		FileHashes:  hashes,
		ParseErrors: errCount,
	}, nil
}

func analyzeSequential(files []DiscoveredFile) ([]*parse.ParsedFile, map[string]string, int) {
	var parsed []*parse.ParsedFile
	hashes := make(map[string]string, len(files))
	errCount := 0

	for _, f := range files {
		pf, hash, err := parseOne(f)
		if err != nil {
			errCount++
			continue
		}
		parsed = append(parsed, pf)
		hashes[f.RelPath] = hash
	}
	return parsed, hashes, errCount
}

func analyzeParallel(ctx context.Context, files []DiscoveredFile, numWorkers int) ([]*parse.ParsedFile, map[string]string, int) {
	jobs := make(chan int, len(files))

	type job struct {
		pf   *parse.ParsedFile
		hash string
		rel  string
		err  error
	}
	resultsChan := make(chan job, len(files))

	var errorCount int32
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				f := files[i]
				pf, hash, err := parseOne(f)
				if err != nil {
					atomic.AddInt32(&errorCount, 1)
					resultsChan <- job{err: err}
					continue
				}
				resultsChan <- job{pf: pf, hash: hash, rel: f.RelPath}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var parsed []*parse.ParsedFile
	hashes := make(map[string]string, len(files))
	var mu sync.Mutex
	for r := range resultsChan {
		if r.err != nil {
			continue
		}
		mu.Lock()
		parsed = append(parsed, r.pf)
		hashes[r.rel] = r.hash
		mu.Unlock()
	}

	return parsed, hashes, int(errorCount)
}

// parseOne parses f and rewrites the result's FilePath to f's
// repo-relative path: every downstream consumer (graph, index, wiki
// links, signature store) identifies files by that relative path, not
// the absolute path ParsePath records by default.
func parseOne(f DiscoveredFile) (*parse.ParsedFile, string, error) {
	pf, err := parse.ParsePath(f.AbsPath)
	if err != nil {
		return nil, "", err
	}
	pf.FilePath = f.RelPath
	sum := sha256.Sum256(pf.Content)
	return pf, hex.EncodeToString(sum[:]), nil
}
