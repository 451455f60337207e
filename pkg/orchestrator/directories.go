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
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oyawiki/engine/pkg/llm"
	"github.com/oyawiki/engine/pkg/wiki"
)

// DirPageResult is one directory's Directories-phase outcome.
type DirPageResult struct {
	DirPath  string // "" for the repository root
	Page     string
	Purpose  string
	Sig      string
	Skipped  bool
	Degraded bool
}

type llmDirOutput struct {
	Purpose string `json:"purpose"`
	Layer   string `json:"layer"`
}

// dirNode is one directory discovered by grouping the Files-phase
// results by parent path.
type dirNode struct {
	path     string // "" is the repository root
	depth    int
	files    []string // direct child file rel paths
	children []string // direct child directory paths
}

// GenerateDirectoryPages runs the Directories phase: directories are
// processed bottom-up by depth, with a join barrier at each depth level,
// so every parent sees its children's finalized purposes before it
// computes its own signature. The repository root is processed last.
//
// Grounded on spec.md's bottom-up aggregation requirement and the
// teacher's phase-at-a-time LocalPipeline shape; the depth-barrier
// fan-out itself has no teacher analogue (the teacher ingests files
// independently of directory structure), so it is built directly from
// the ordering DirectorySignature's cascade requires: see DESIGN.md.
func GenerateDirectoryPages(
	ctx context.Context,
	provider llm.Provider,
	model string,
	fileResults []FilePageResult,
	fileSummaries map[string]wiki.FileSummary,
	sigStore *SignatureStore,
	notes CorrectionNotesProvider,
	parallelLimit int,
	progress ProgressFunc,
) ([]DirPageResult, error) {
	if parallelLimit <= 0 {
		parallelLimit = 2
	}

	nodes := buildDirTree(fileResults)
	byDepth := groupByDepthDescending(nodes)

	childPurposes := make(map[string]map[string]string) // dir -> child dir -> purpose
	fileHashByDir := make(map[string]map[string]string)  // dir -> file name -> content hash
	for _, r := range fileResults {
		dir := NormalizeDirPath(path.Dir(r.RelPath))
		if fileHashByDir[dir] == nil {
			fileHashByDir[dir] = make(map[string]string)
		}
		fileHashByDir[dir][path.Base(r.RelPath)] = r.Sig
	}

	var mu sync.Mutex
	var all []DirPageResult

	for _, depth := range byDepth {
		results := processDirDepth(ctx, provider, model, depth, nodes, childPurposes, fileHashByDir, fileSummaries, sigStore, notes, parallelLimit)
		for _, r := range results {
			mu.Lock()
			all = append(all, r)
			parent := NormalizeDirPath(path.Dir(r.DirPath))
			if parent == r.DirPath {
				parent = ""
			}
			if childPurposes[parent] == nil {
				childPurposes[parent] = make(map[string]string)
			}
			childPurposes[parent][r.DirPath] = r.Purpose
			mu.Unlock()
		}
		progress.report(len(all), len(nodes))
	}

	sort.Slice(all, func(i, j int) bool { return all[i].DirPath < all[j].DirPath })
	return all, nil
}

func buildDirTree(fileResults []FilePageResult) map[string]*dirNode {
	nodes := map[string]*dirNode{"": {path: "", depth: 0}}

	ensure := func(dir string) *dirNode {
		if n, ok := nodes[dir]; ok {
			return n
		}
		n := &dirNode{path: dir, depth: strings.Count(dir, "/") + 1}
		nodes[dir] = n
		return n
	}

	for _, r := range fileResults {
		dir := NormalizeDirPath(path.Dir(r.RelPath))
		node := ensure(dir)
		node.files = append(node.files, r.RelPath)

		// Walk up registering each ancestor as a child of its parent.
		cur := dir
		for cur != "" {
			parent := NormalizeDirPath(path.Dir(cur))
			if parent == cur {
				parent = ""
			}
			pNode := ensure(parent)
			if !containsStr(pNode.children, cur) {
				pNode.children = append(pNode.children, cur)
			}
			cur = parent
		}
	}
	return nodes
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// groupByDepthDescending returns directory paths grouped into depth
// buckets ordered deepest-first, root ("", depth 0) last.
func groupByDepthDescending(nodes map[string]*dirNode) [][]string {
	maxDepth := 0
	for _, n := range nodes {
		if n.depth > maxDepth {
			maxDepth = n.depth
		}
	}
	buckets := make([][]string, maxDepth+1)
	for dir, n := range nodes {
		buckets[n.depth] = append(buckets[n.depth], dir)
	}
	for i := range buckets {
		sort.Strings(buckets[i])
	}

	out := make([][]string, 0, len(buckets))
	for i := len(buckets) - 1; i >= 0; i-- {
		if len(buckets[i]) > 0 {
			out = append(out, buckets[i])
		}
	}
	return out
}

func processDirDepth(
	ctx context.Context,
	provider llm.Provider,
	model string,
	dirs []string,
	nodes map[string]*dirNode,
	childPurposes map[string]map[string]string,
	fileHashByDir map[string]map[string]string,
	fileSummaries map[string]wiki.FileSummary,
	sigStore *SignatureStore,
	notes CorrectionNotesProvider,
	parallelLimit int,
) []DirPageResult {
	jobs := make(chan string, len(dirs))
	results := make(chan DirPageResult, len(dirs))

	var wg sync.WaitGroup
	workers := parallelLimit
	if workers > len(dirs) {
		workers = len(dirs)
	}
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dir := range jobs {
				results <- generateOneDirPage(ctx, provider, model, nodes[dir], childPurposes[dir], fileHashByDir[dir], fileSummaries, sigStore, notes)
			}
		}()
	}
	for _, dir := range dirs {
		jobs <- dir
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]DirPageResult, 0, len(dirs))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func generateOneDirPage(
	ctx context.Context,
	provider llm.Provider,
	model string,
	node *dirNode,
	childPurposes map[string]string,
	fileHashes map[string]string,
	fileSummaries map[string]wiki.FileSummary,
	sigStore *SignatureStore,
	notes CorrectionNotesProvider,
) DirPageResult {
	note := notes.NotesForDirectory(node.path)
	sig := DirectorySignature(fileHashes, childPurposes)

	if sigStore.DirUnchanged(node.path, sig) {
		purpose, _ := sigStore.DirPurpose(node.path)
		return DirPageResult{DirPath: node.path, Sig: sig, Skipped: true, Purpose: purpose}
	}

	out, err := requestDirectorySummary(ctx, provider, model, node, childPurposes, fileSummaries, note)
	if err != nil {
		purpose := fmt.Sprintf("Directory summary generation failed: %s", err)
		page := stubDirPage(node, purpose)
		sigStore.SetDir(node.path, sig)
		sigStore.SetDirPurpose(node.path, purpose)
		return DirPageResult{DirPath: node.path, Page: page, Purpose: purpose, Sig: sig, Degraded: true}
	}

	summary := wiki.DirectorySummary{
		Purpose:   out.Purpose,
		Layer:     wiki.NormalizeLayer(out.Layer),
		ChildDirs: sortedKeys(childPurposes),
		ChildFiles: node.files,
	}

	var subdirRows, fileRows [][2]string
	for _, child := range summary.ChildDirs {
		subdirRows = append(subdirRows, [2]string{child, wiki.DirPageLink(child)})
	}
	for _, f := range node.files {
		fileRows = append(fileRows, [2]string{f, wiki.FilePageLink(f)})
	}

	page, err := wiki.RenderDirectoryPage(wiki.DirectoryPageInput{
		DirPath:    node.path,
		Summary:    summary,
		SubdirRows: subdirRows,
		FileRows:   fileRows,
	})
	if err != nil {
		page = stubDirPage(node, out.Purpose)
	}

	sigStore.SetDir(node.path, sig)
	sigStore.SetDirPurpose(node.path, out.Purpose)
	return DirPageResult{DirPath: node.path, Page: page, Purpose: out.Purpose, Sig: sig}
}

func requestDirectorySummary(
	ctx context.Context,
	provider llm.Provider,
	model string,
	node *dirNode,
	childPurposes map[string]string,
	fileSummaries map[string]wiki.FileSummary,
	note string,
) (llmDirOutput, error) {
	prompt := buildDirPrompt(node, childPurposes, fileSummaries, note)

	var lastErr error
	for attempt := 0; attempt < fileRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return llmDirOutput{}, ctx.Err()
			case <-time.After(fileRetryBackoff * time.Duration(attempt)):
			}
		}

		resp, err := provider.Chat(ctx, llm.ChatRequest{
			Model: model,
			Messages: []llm.Message{
				{Role: "system", Content: llm.WikiPrompts.DirectorySummary},
				{Role: "user", Content: prompt},
			},
			Temperature: 0.2,
		})
		if err != nil {
			lastErr = err
			continue
		}
		var out llmDirOutput
		if err := json.Unmarshal([]byte(extractJSON(resp.Message.Content)), &out); err != nil {
			lastErr = fmt.Errorf("parse directory summary response: %w", err)
			continue
		}
		return out, nil
	}
	return llmDirOutput{}, fmt.Errorf("directory summary generation failed after %d attempts: %w", fileRetries, lastErr)
}

func buildDirPrompt(node *dirNode, childPurposes map[string]string, fileSummaries map[string]wiki.FileSummary, note string) string {
	dir := node.path
	if dir == "" {
		dir = "(repository root)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Directory: %s\n\n", dir)
	if note != "" {
		b.WriteString("Correction notes from a human collaborator (treat as authoritative):\n")
		b.WriteString(note)
		b.WriteString("\n\n")
	}
	b.WriteString("Files:\n")
	for _, f := range node.files {
		s := fileSummaries[f]
		fmt.Fprintf(&b, "- %s: %s\n", f, s.Purpose)
	}
	b.WriteString("\nSubdirectories:\n")
	for _, child := range sortedKeys(childPurposes) {
		fmt.Fprintf(&b, "- %s: %s\n", child, childPurposes[child])
	}
	b.WriteString("\nRespond with a JSON object: {\"purpose\":\"...\",\"layer\":\"...\"}.\n")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stubDirPage(node *dirNode, purpose string) string {
	summary := wiki.DirectorySummary{Purpose: purpose, Layer: wiki.DefaultLayer}
	page, err := wiki.RenderDirectoryPage(wiki.DirectoryPageInput{DirPath: node.path, Summary: summary})
	if err != nil {
		return "# " + node.path + "\n\n" + purpose + "\n"
	}
	return page
}
