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

package parse

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Resolver performs global two-pass cross-file reference resolution.
// Pass 1 (BuildIndex) builds a symbol table and per-file import maps;
// Pass 2 (Resolve) walks each file's unresolved candidates against it,
// emitting references at the confidence the match strategy warrants.
type Resolver struct {
	// symbolsByName: simple name -> candidate symbol IDs anywhere in the
	// repo. Used for the low-confidence "many candidates" fallback.
	symbolsByName map[string][]string

	// packageFunctions: package (directory) path -> simple name -> symbol ID.
	packageFunctions map[string]map[string]string

	// fileImports: file path -> alias -> import path.
	fileImports map[string]map[string]string

	// importPathToPackage: import path -> local package (directory) path.
	importPathToPackage map[string]string

	// localScope: file path -> simple name -> symbol ID, for same-file
	// (nearest-enclosing-scope) resolution at confidence >= 0.9.
	localScope map[string]map[string]string

	// packageOf: file path -> package (directory) path. The static types
	// of local variables are not tracked, so a method call on a value is
	// resolved by name within the caller's package (Strategy 3).
	packageOf map[string]string
}

// NewResolver constructs an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		symbolsByName:       make(map[string][]string),
		packageFunctions:    make(map[string]map[string]string),
		fileImports:         make(map[string]map[string]string),
		importPathToPackage: make(map[string]string),
		localScope:          make(map[string]map[string]string),
		packageOf:           make(map[string]string),
	}
}

// BuildIndex implements Pass 1: the global symbol table and per-file
// import maps. Must be called once with every parsed file before Resolve.
func (r *Resolver) BuildIndex(files []*ParsedFile) {
	for _, f := range files {
		pkgPath := filepath.Dir(f.FilePath)
		r.packageOf[f.FilePath] = pkgPath

		if _, ok := r.packageFunctions[pkgPath]; !ok {
			r.packageFunctions[pkgPath] = make(map[string]string)
		}
		if _, ok := r.localScope[f.FilePath]; !ok {
			r.localScope[f.FilePath] = make(map[string]string)
		}

		for _, sym := range f.Symbols {
			simple := extractSimpleName(sym.Name)
			r.packageFunctions[pkgPath][simple] = sym.ID
			r.localScope[f.FilePath][simple] = sym.ID
			r.symbolsByName[simple] = append(r.symbolsByName[simple], sym.ID)
		}

		if _, ok := r.fileImports[f.FilePath]; !ok {
			r.fileImports[f.FilePath] = make(map[string]string)
		}
		for _, imp := range f.Imports {
			alias := imp.Alias
			if alias == "" || alias == "_" {
				alias = lastPathComponent(imp.ImportPath)
			}
			if alias == "_" {
				continue
			}
			r.fileImports[f.FilePath][alias] = imp.ImportPath
		}
	}

	for pkgPath := range r.packageFunctions {
		r.importPathToPackage[pkgPath] = pkgPath
	}
}

// Resolve implements Pass 2 across every parsed file's unresolved
// candidates. Uses parallel workers above a size threshold; below it,
// sequential resolution avoids goroutine overhead.
func (r *Resolver) Resolve(files []*ParsedFile) ResolvedReferences {
	var all []UnresolvedReference
	for _, f := range files {
		all = append(all, f.Unresolved...)
	}

	var refs []Reference
	if len(all) < 1000 {
		refs = r.resolveSequential(all)
	} else {
		refs = r.resolveParallel(all)
	}

	coverage := 0.0
	if len(all) > 0 {
		coverage = float64(len(refs)) / float64(len(all))
	}
	return ResolvedReferences{References: refs, Coverage: coverage}
}

func (r *Resolver) resolveSequential(candidates []UnresolvedReference) []Reference {
	seen := make(map[string]bool)
	var out []Reference
	for _, c := range candidates {
		for _, ref := range r.resolveOne(c) {
			key := ref.SourceID + "->" + ref.TargetID
			if !seen[key] {
				seen[key] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

func (r *Resolver) resolveParallel(candidates []UnresolvedReference) []Reference {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	jobs := make(chan int, len(candidates))
	results := make(chan []Reference, len(candidates))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results <- r.resolveOne(candidates[i])
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	go func() { wg.Wait(); close(results) }()

	seen := make(map[string]bool)
	var out []Reference
	for batch := range results {
		for _, ref := range batch {
			key := ref.SourceID + "->" + ref.TargetID
			if !seen[key] {
				seen[key] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

// resolveOne applies the resolution strategy ladder from §4.1 Pass 2,
// returning zero or more references (more than one only for the capped
// ambiguous-candidates case).
func (r *Resolver) resolveOne(c UnresolvedReference) []Reference {
	name := c.TargetName

	// Strategy 1: nearest-enclosing (same-file) scope, unambiguous -> high.
	if scope, ok := r.localScope[c.FilePath]; ok {
		simple := extractSimpleName(name)
		if id, ok := scope[simple]; ok {
			return []Reference{{SourceID: c.CallerID, TargetID: id, Kind: c.Kind, Confidence: ConfidenceHigh, Line: c.Line}}
		}
	}

	// Strategy 2: qualified call via the file's import map -> 0.8-0.9.
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		alias, funcName := parts[0], parts[1]
		if idx := strings.LastIndex(funcName, "."); idx >= 0 {
			funcName = funcName[idx+1:]
		}
		if imports, ok := r.fileImports[c.FilePath]; ok {
			if importPath, ok := imports[alias]; ok {
				if pkgPath := r.findPackageByImportPath(importPath); pkgPath != "" {
					if funcs, ok := r.packageFunctions[pkgPath]; ok {
						if id, ok := funcs[funcName]; ok {
							conf := ConfidenceMedium + 0.2 // 0.8 for an unexported name
							if isExported(funcName) {
								conf = 0.9
							}
							return []Reference{{SourceID: c.CallerID, TargetID: id, Kind: c.Kind, Confidence: conf, Line: c.Line}}
						}
					}
				}
			}
			// dot import
			for alias, importPath := range imports {
				if alias != "." {
					continue
				}
				if pkgPath := r.findPackageByImportPath(importPath); pkgPath != "" {
					if funcs, ok := r.packageFunctions[pkgPath]; ok {
						if id, ok := funcs[name]; ok {
							return []Reference{{SourceID: c.CallerID, TargetID: id, Kind: c.Kind, Confidence: 0.85, Line: c.Line}}
						}
					}
				}
			}
		}
		// Strategy 3: method call on a value whose static type we don't
		// track across files -> treat as same-package method guess at 0.7.
		if pkgPath, ok := r.packageOf[c.FilePath]; ok {
			if funcs, ok := r.packageFunctions[pkgPath]; ok {
				if id, ok := funcs[funcName]; ok {
					return []Reference{{SourceID: c.CallerID, TargetID: id, Kind: c.Kind, Confidence: 0.7, Line: c.Line}}
				}
			}
		}
		return nil
	}

	// Strategy 4: bare name, multiple candidates anywhere in the repo ->
	// low confidence, one edge per candidate, capped.
	if ids, ok := r.symbolsByName[name]; ok && len(ids) > 0 {
		if len(ids) > MaxAmbiguousCandidates {
			return nil
		}
		out := make([]Reference, 0, len(ids))
		for _, id := range ids {
			if id == c.CallerID {
				continue
			}
			out = append(out, Reference{SourceID: c.CallerID, TargetID: id, Kind: c.Kind, Confidence: ConfidenceLow, Line: c.Line})
		}
		return out
	}

	return nil
}

func (r *Resolver) findPackageByImportPath(importPath string) string {
	if pkgPath, ok := r.importPathToPackage[importPath]; ok {
		return pkgPath
	}
	for pkgPath := range r.packageFunctions {
		if strings.HasSuffix(importPath, pkgPath) {
			r.importPathToPackage[importPath] = pkgPath
			return pkgPath
		}
	}
	base := lastPathComponent(importPath)
	for pkgPath := range r.packageFunctions {
		if lastPathComponent(pkgPath) == base {
			r.importPathToPackage[importPath] = pkgPath
			return pkgPath
		}
	}
	return ""
}

func isExported(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}
