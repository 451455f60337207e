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
	"regexp"
	"strings"
)

// SimplifiedParser extracts symbols with line/brace-counting heuristics
// rather than a full grammar. It never fails on syntactically broken
// source: it just extracts what it can match.
type SimplifiedParser struct {
	language string
}

// NewSimplifiedParser builds a SimplifiedParser for the given language.
func NewSimplifiedParser(language string) *SimplifiedParser {
	return &SimplifiedParser{language: language}
}

var (
	pyDefRe       = regexp.MustCompile(`^(\s*)def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	pyClassRe     = regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	pyRaiseRe     = regexp.MustCompile(`raise\s+([A-Za-z_][A-Za-z0-9_.]*)`)
	pySelfAttrRe  = regexp.MustCompile(`self\.([A-Za-z_][A-Za-z0-9_]*)\s*(=|\+=|-=|\.append\(|\.clear\()`)
	pyCallRe      = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_.]*)\s*\(`)
	pyImportRe    = regexp.MustCompile(`^(?:from\s+([\w.]+)\s+)?import\s+([\w.*, ]+?)(?:\s+as\s+(\w+))?\s*$`)
	pyStringRe    = regexp.MustCompile(`["']([^"']{1,200})["']`)
	jsFuncRe      = regexp.MustCompile(`function\s+([A-Za-z_$][\w$]*)\s*\(`)
	jsArrowRe     = regexp.MustCompile(`(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\(`)
	jsClassRe     = regexp.MustCompile(`class\s+([A-Za-z_$][\w$]*)`)
	jsImportRe    = regexp.MustCompile(`^import\s+.*from\s+['"]([^'"]+)['"]`)
	jsThrowRe     = regexp.MustCompile(`throw\s+new\s+([A-Za-z_$][\w$.]*)`)
	jsCallRe      = regexp.MustCompile(`([A-Za-z_$][\w$.]*)\s*\(`)
	jsLoggerErrRe = regexp.MustCompile(`(?:console\.error|logger\.error|log\.error)\s*\(\s*['"\x60]([^'"\x60]{1,200})`)
)

// ParseFile implements FileParser using a line-oriented scan.
func (s *SimplifiedParser) ParseFile(path string, content []byte) (*ParsedFile, error) {
	path = normalizePath(path)
	lines := strings.Split(string(content), "\n")

	var symbols []Symbol
	var imports []Import
	var unresolved []UnresolvedReference

	switch s.language {
	case "python":
		symbols, imports, unresolved = s.parsePython(path, lines)
	case "javascript", "typescript":
		symbols, imports, unresolved = s.parseJSLike(path, lines)
	}

	return &ParsedFile{
		FilePath:   path,
		Language:   s.language,
		LineCount:  len(lines),
		Content:    content,
		Symbols:    symbols,
		Imports:    imports,
		Unresolved: unresolved,
	}, nil
}

func (s *SimplifiedParser) parsePython(path string, lines []string) ([]Symbol, []Import, []UnresolvedReference) {
	var symbols []Symbol
	var imports []Import
	var unresolved []UnresolvedReference

	type openSym struct {
		sym    *Symbol
		indent int
	}
	var stack []openSym
	currentClass := ""

	closeSymbolsDeeperThan := func(indent int, lineIdx int) {
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			top := stack[len(stack)-1]
			top.sym.EndLine = lineIdx // previous line
			symbols = append(symbols, *top.sym)
			stack = stack[:len(stack)-1]
		}
	}

	for i, line := range lines {
		lineNo := i + 1
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := pyClassRe.FindStringSubmatch(trimmed); m != nil {
			closeSymbolsDeeperThan(indent, lineNo-1)
			sym := &Symbol{
				ID:        SymbolID(path, m[1]),
				Name:      m[1],
				Kind:      KindClass,
				FilePath:  path,
				StartLine: lineNo,
				EndLine:   lineNo,
				Language:  "python",
			}
			stack = append(stack, openSym{sym: sym, indent: indent})
			currentClass = m[1]
			continue
		}

		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			closeSymbolsDeeperThan(indent, lineNo-1)
			name := m[2]
			kind := KindFunction
			qualified := name
			if indent > 0 && currentClass != "" {
				kind = KindMethod
				qualified = currentClass + "." + name
			}
			sym := &Symbol{
				ID:        SymbolID(path, qualified),
				Name:      qualified,
				Kind:      kind,
				FilePath:  path,
				StartLine: lineNo,
				EndLine:   lineNo,
				Language:  "python",
			}
			stack = append(stack, openSym{sym: sym, indent: indent})
			continue
		}

		if m := pyImportRe.FindStringSubmatch(trimmed); m != nil {
			module := m[1]
			names := strings.Split(m[2], ",")
			for _, n := range names {
				n = strings.TrimSpace(n)
				if n == "" {
					continue
				}
				impPath := module
				if impPath == "" {
					impPath = n
				}
				imports = append(imports, Import{FilePath: path, ImportPath: impPath, Alias: m[3]})
			}
		}

		if len(stack) == 0 {
			continue
		}
		caller := stack[len(stack)-1].sym
		if mm := pyRaiseRe.FindStringSubmatch(trimmed); mm != nil && !strings.HasPrefix(trimmed, "raise\n") {
			if mm[1] != "" {
				caller.Raises = appendUnique(caller.Raises, mm[1])
			}
		}
		if mm := pySelfAttrRe.FindStringSubmatch(trimmed); mm != nil {
			caller.Mutates = appendUnique(caller.Mutates, "self."+mm[1])
		}
		if strings.Contains(trimmed, "raise ") || jsLoggerErrRe.MatchString(trimmed) {
			if sm := pyStringRe.FindStringSubmatch(trimmed); sm != nil {
				s := sm[1]
				if len(s) > maxErrorStringLen {
					s = s[:maxErrorStringLen]
				}
				caller.ErrorStrings = appendUnique(caller.ErrorStrings, s)
			}
		}
		for _, cm := range pyCallRe.FindAllStringSubmatch(trimmed, -1) {
			name := cm[1]
			caller.Calls = appendUnique(caller.Calls, name)
			unresolved = append(unresolved, UnresolvedReference{
				CallerID: caller.ID, FilePath: path, TargetName: name, Line: lineNo, Kind: RefCalls,
			})
		}
	}
	closeSymbolsDeeperThan(0, len(lines))
	return symbols, imports, unresolved
}

func (s *SimplifiedParser) parseJSLike(path string, lines []string) ([]Symbol, []Import, []UnresolvedReference) {
	var symbols []Symbol
	var imports []Import
	var unresolved []UnresolvedReference

	var current *Symbol
	depth := 0
	openAt := 0

	flush := func(endLine int) {
		if current != nil {
			current.EndLine = endLine
			symbols = append(symbols, *current)
			current = nil
		}
	}

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if m := jsFuncRe.FindStringSubmatch(trimmed); m != nil && current == nil {
			current = &Symbol{ID: SymbolID(path, m[1]), Name: m[1], Kind: KindFunction, FilePath: path, StartLine: lineNo, EndLine: lineNo, Language: s.language}
			depth, openAt = 0, 0
		} else if m := jsArrowRe.FindStringSubmatch(trimmed); m != nil && current == nil {
			current = &Symbol{ID: SymbolID(path, m[1]), Name: m[1], Kind: KindFunction, FilePath: path, StartLine: lineNo, EndLine: lineNo, Language: s.language}
			depth, openAt = 0, 0
		} else if m := jsClassRe.FindStringSubmatch(trimmed); m != nil && current == nil {
			current = &Symbol{ID: SymbolID(path, m[1]), Name: m[1], Kind: KindClass, FilePath: path, StartLine: lineNo, EndLine: lineNo, Language: s.language}
			depth, openAt = 0, 0
		}

		if m := jsImportRe.FindStringSubmatch(trimmed); m != nil {
			imports = append(imports, Import{FilePath: path, ImportPath: m[1]})
		}

		if current != nil {
			opens := strings.Count(line, "{")
			closes := strings.Count(line, "}")
			depth += opens - closes
			if opens > 0 {
				openAt++
			}
			if mm := jsThrowRe.FindStringSubmatch(trimmed); mm != nil {
				current.Raises = appendUnique(current.Raises, mm[1])
			}
			if mm := jsLoggerErrRe.FindStringSubmatch(trimmed); mm != nil {
				es := mm[1]
				if len(es) > maxErrorStringLen {
					es = es[:maxErrorStringLen]
				}
				current.ErrorStrings = appendUnique(current.ErrorStrings, es)
			}
			for _, cm := range jsCallRe.FindAllStringSubmatch(trimmed, -1) {
				name := cm[1]
				current.Calls = appendUnique(current.Calls, name)
				unresolved = append(unresolved, UnresolvedReference{
					CallerID: current.ID, FilePath: path, TargetName: name, Line: lineNo, Kind: RefCalls,
				})
			}
			if openAt > 0 && depth <= 0 {
				flush(lineNo)
			}
		}
	}
	flush(len(lines))
	return symbols, imports, unresolved
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}
