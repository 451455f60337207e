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
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// maxErrorStringLen truncates error-string literals, per the data model.
const maxErrorStringLen = 100

// GoParser extracts symbols and references from Go source using
// Tree-sitter's Go grammar.
type GoParser struct {
	parser *sitter.Parser
}

// NewGoParser constructs a GoParser with the Go grammar loaded.
func NewGoParser() *GoParser {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoParser{parser: p}
}

type goFuncWithNode struct {
	sym  Symbol
	node *sitter.Node
}

type goWalkCtx struct {
	funcs       []goFuncWithNode
	nameToID    map[string]string // simple name -> symbol ID, same-file scope
	content     []byte
	filePath    string
	anonCounter int
}

// ParseFile implements FileParser.
func (g *GoParser) ParseFile(path string, content []byte) (*ParsedFile, error) {
	path = normalizePath(path)
	tree, err := g.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	partial := root.HasError()

	imports := g.extractImports(root, content, path)

	ctx := &goWalkCtx{
		nameToID: make(map[string]string),
		content:  content,
		filePath: path,
	}
	g.walk(root, ctx)

	importAliasToPath := make(map[string]string, len(imports))
	for _, imp := range imports {
		alias := imp.Alias
		if alias == "" {
			alias = lastPathComponent(imp.ImportPath)
		}
		importAliasToPath[alias] = imp.ImportPath
	}

	var symbols []Symbol
	var unresolved []UnresolvedReference
	for _, fw := range ctx.funcs {
		calls, refs := g.extractCalls(fw.node, content, fw.sym.ID, ctx.nameToID, importAliasToPath, path)
		fw.sym.Calls = calls
		fw.sym.Raises = g.extractRaises(fw.node, content)
		fw.sym.Mutates = g.extractMutates(fw.node, content, fw.sym.ReceiverOf)
		fw.sym.ErrorStrings = g.extractErrorStrings(fw.node, content)
		symbols = append(symbols, fw.sym)
		unresolved = append(unresolved, refs...)
	}

	lineCount := strings.Count(string(content), "\n") + 1

	return &ParsedFile{
		FilePath:     path,
		Language:     "go",
		LineCount:    lineCount,
		Content:      content,
		Symbols:      symbols,
		Imports:      imports,
		Unresolved:   unresolved,
		Synopsis:     g.extractSynopsis(root, content),
		PartialParse: partial,
	}, nil
}

func (g *GoParser) walk(node *sitter.Node, ctx *goWalkCtx) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "function_declaration":
		if sym := g.extractFunctionDecl(node, ctx); sym != nil {
			ctx.funcs = append(ctx.funcs, goFuncWithNode{sym: *sym, node: node})
			ctx.nameToID[sym.Name] = sym.ID
		}
	case "method_declaration":
		if sym := g.extractMethodDecl(node, ctx); sym != nil {
			ctx.funcs = append(ctx.funcs, goFuncWithNode{sym: *sym, node: node})
			ctx.nameToID[extractSimpleName(sym.Name)] = sym.ID
		}
	case "func_literal":
		if sym := g.extractFuncLiteral(node, ctx); sym != nil {
			ctx.funcs = append(ctx.funcs, goFuncWithNode{sym: *sym, node: node})
			// anonymous: not added to nameToID, cannot be called by name.
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		g.walk(node.Child(i), ctx)
	}
}

func (g *GoParser) extractFunctionDecl(node *sitter.Node, ctx *goWalkCtx) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, ctx.content)
	start, end := int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1
	return &Symbol{
		ID:        SymbolID(ctx.filePath, name),
		Name:      name,
		Kind:      KindFunction,
		FilePath:  ctx.filePath,
		StartLine: start,
		EndLine:   end,
		Signature: signatureOf(node, ctx.content, name),
		Docstring: leadingComment(node, ctx.content),
		Language:  "go",
	}
}

func (g *GoParser) extractMethodDecl(node *sitter.Node, ctx *goWalkCtx) *Symbol {
	nameNode := node.ChildByFieldName("name")
	recvNode := node.ChildByFieldName("receiver")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, ctx.content)
	receiverType := ""
	if recvNode != nil {
		receiverType = receiverTypeName(recvNode, ctx.content)
	}
	qualified := name
	if receiverType != "" {
		qualified = "(" + receiverType + ")." + name
	}
	start, end := int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1
	return &Symbol{
		ID:         SymbolID(ctx.filePath, qualified),
		Name:       qualified,
		Kind:       KindMethod,
		FilePath:   ctx.filePath,
		StartLine:  start,
		EndLine:    end,
		Signature:  signatureOf(node, ctx.content, qualified),
		Docstring:  leadingComment(node, ctx.content),
		Language:   "go",
		ReceiverOf: receiverType,
	}
}

func (g *GoParser) extractFuncLiteral(node *sitter.Node, ctx *goWalkCtx) *Symbol {
	ctx.anonCounter++
	name := fmt.Sprintf("func_literal_%d", ctx.anonCounter)
	start, end := int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1
	return &Symbol{
		ID:        SymbolID(ctx.filePath, name),
		Name:      name,
		Kind:      KindFunction,
		FilePath:  ctx.filePath,
		StartLine: start,
		EndLine:   end,
		Language:  "go",
	}
}

// receiverTypeName pulls the bare type name out of a receiver parameter
// list, handling both value and pointer receivers, including generics
// (e.g. "(s *Server[T])" -> "Server").
func receiverTypeName(recvNode *sitter.Node, content []byte) string {
	text := nodeText(recvNode, content)
	text = strings.Trim(text, "()")
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return ""
	}
	t := parts[len(parts)-1]
	t = strings.TrimPrefix(t, "*")
	if idx := strings.Index(t, "["); idx >= 0 {
		t = t[:idx]
	}
	return t
}

func signatureOf(node *sitter.Node, content []byte, name string) string {
	params := node.ChildByFieldName("parameters")
	result := node.ChildByFieldName("result")
	sig := "func " + name
	if params != nil {
		sig += nodeText(params, content)
	} else {
		sig += "()"
	}
	if result != nil {
		sig += " " + nodeText(result, content)
	}
	return sig
}

// leadingComment walks back from node to the nearest preceding comment,
// the Go-idiomatic doc comment position.
func leadingComment(node *sitter.Node, content []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	var prev *sitter.Node
	for i := 0; i < int(parent.ChildCount()); i++ {
		c := parent.Child(i)
		if c.Equal(node) {
			break
		}
		prev = c
	}
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := nodeText(prev, content)
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	return strings.TrimSpace(text)
}

func (g *GoParser) extractImports(root *sitter.Node, content []byte, filePath string) []Import {
	var imports []Import
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "import_spec" {
			pathNode := n.ChildByFieldName("path")
			nameNode := n.ChildByFieldName("name")
			if pathNode != nil {
				importPath := strings.Trim(nodeText(pathNode, content), "\"")
				alias := ""
				if nameNode != nil {
					alias = nodeText(nameNode, content)
				}
				imports = append(imports, Import{FilePath: filePath, ImportPath: importPath, Alias: alias})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return imports
}

// extractCalls walks a function body for call_expression nodes and
// records each callee's text twice: in calls, and as an unresolved
// reference for the Resolver (Pass 2), which also handles same-file
// targets. nameToID and importAliasToPath are not consulted here.
func (g *GoParser) extractCalls(
	node *sitter.Node,
	content []byte,
	callerID string,
	nameToID map[string]string,
	importAliasToPath map[string]string,
	filePath string,
) ([]string, []UnresolvedReference) {
	var calls []string
	var unresolved []UnresolvedReference

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fnNode := n.ChildByFieldName("function")
			if fnNode != nil {
				name := nodeText(fnNode, content)
				calls = append(calls, name)
				line := int(n.StartPoint().Row) + 1
				unresolved = append(unresolved, UnresolvedReference{
					CallerID:   callerID,
					FilePath:   filePath,
					TargetName: name,
					Line:       line,
					Kind:       RefCalls,
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return calls, unresolved
}

// extractRaises adapts the spec's exception-name extraction to Go's
// idiom: a panic(SomeType{...}) or panic(SomeErrorValue) call surfaces
// the panicked type/value name.
func (g *GoParser) extractRaises(node *sitter.Node, content []byte) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fnNode := n.ChildByFieldName("function")
			if fnNode != nil && nodeText(fnNode, content) == "panic" {
				args := n.ChildByFieldName("arguments")
				if args != nil && args.ChildCount() > 0 {
					arg := args.Child(1) // index 0 is '(' typically skipped by named children; fall back below
					name := ""
					if arg != nil {
						name = nodeText(arg, content)
					} else {
						name = nodeText(args, content)
					}
					name = strings.SplitN(name, "{", 2)[0]
					name = strings.TrimSpace(name)
					if name != "" && !seen[name] {
						seen[name] = true
						out = append(out, name)
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}

// extractMutates collects names written on the left-hand side of
// assignments: package-level identifiers, or receiver field writes
// (the Go analogue of Python's `self.attr = ...`).
func (g *GoParser) extractMutates(node *sitter.Node, content []byte, receiverType string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "assignment_statement":
			lhs := n.ChildByFieldName("left")
			if lhs != nil {
				for i := 0; i < int(lhs.ChildCount()); i++ {
					add(mutationTarget(lhs.Child(i), content, receiverType))
				}
				if lhs.ChildCount() == 0 {
					add(mutationTarget(lhs, content, receiverType))
				}
			}
		case "inc_statement", "dec_statement":
			if target := n.Child(0); target != nil {
				add(mutationTarget(target, content, receiverType))
			}
		case "call_expression":
			fnNode := n.ChildByFieldName("function")
			if fnNode != nil && fnNode.Type() == "selector_expression" {
				field := fnNode.ChildByFieldName("field")
				op := fnNode.ChildByFieldName("operand")
				if field != nil && op != nil {
					switch nodeText(field, content) {
					case "append", "Clear", "clear", "Reset", "Store", "Delete":
						add(mutationTarget(op, content, receiverType))
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}

func mutationTarget(n *sitter.Node, content []byte, receiverType string) string {
	if n == nil {
		return ""
	}
	text := nodeText(n, content)
	if n.Type() == "selector_expression" {
		op := n.ChildByFieldName("operand")
		field := n.ChildByFieldName("field")
		if op != nil && field != nil {
			opText := nodeText(op, content)
			if receiverType != "" && (opText == "s" || strings.HasSuffix(opText, "self") || len(opText) <= 3) {
				return "self." + nodeText(field, content)
			}
		}
		return text
	}
	return text
}

// extractErrorStrings collects truncated string-literal arguments from
// panic()/errors.New()/fmt.Errorf() calls and logger-style error calls,
// mirroring the spec's logger.error|warning|critical heuristic.
func (g *GoParser) extractErrorStrings(node *sitter.Node, content []byte) []string {
	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fnNode := n.ChildByFieldName("function")
			if fnNode != nil && isErrorProducingCall(nodeText(fnNode, content)) {
				args := n.ChildByFieldName("arguments")
				if args != nil {
					for i := 0; i < int(args.ChildCount()); i++ {
						c := args.Child(i)
						if c.Type() == "interpreted_string_literal" || c.Type() == "raw_string_literal" {
							s := strings.Trim(nodeText(c, content), "\"`")
							if len(s) > maxErrorStringLen {
								s = s[:maxErrorStringLen]
							}
							out = append(out, s)
						}
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return out
}

func isErrorProducingCall(name string) bool {
	suffixes := []string{
		"errors.New", "fmt.Errorf", "panic",
		".Error", ".Warn", ".Warning", ".Critical", ".Fatal",
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// extractSynopsis pulls a "SYNOPSIS"/"Example:" doc-comment block at
// package scope, the Go-idiomatic equivalent of a POD SYNOPSIS heading.
func (g *GoParser) extractSynopsis(root *sitter.Node, content []byte) *Synopsis {
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() != "comment" {
			continue
		}
		text := nodeText(c, content)
		if !strings.Contains(text, "Example:") && !strings.Contains(text, "SYNOPSIS") {
			continue
		}
		idx := strings.Index(text, "\t")
		if idx < 0 {
			continue
		}
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimPrefix(line, "//")
			if strings.HasPrefix(trimmed, "\t") {
				lines = append(lines, strings.TrimPrefix(trimmed, "\t"))
			}
		}
		if len(lines) > 0 {
			return &Synopsis{Source: "doc", Code: strings.Join(lines, "\n")}
		}
	}
	return nil
}

func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

func lastPathComponent(importPath string) string {
	if idx := strings.LastIndex(importPath, "/"); idx >= 0 {
		return importPath[idx+1:]
	}
	return importPath
}

// countErrors counts ERROR nodes in a tree. Nothing in the package calls
// it; ParseFile only checks root.HasError().
func countErrors(n *sitter.Node) int {
	count := 0
	if n.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}
