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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGo = `package sample

import (
	"errors"
	"fmt"
)

var counter int

func Helper() error {
	counter += 1
	return errors.New("helper failed")
}

func Run() error {
	if err := Helper(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
`

func TestGoParser_ExtractsFunctionsAndCalls(t *testing.T) {
	p := NewGoParser()
	pf, err := p.ParseFile("sample.go", []byte(sampleGo))
	require.NoError(t, err)
	require.False(t, pf.PartialParse)
	require.Len(t, pf.Symbols, 2)

	var helper, run *Symbol
	for i := range pf.Symbols {
		switch pf.Symbols[i].Name {
		case "Helper":
			helper = &pf.Symbols[i]
		case "Run":
			run = &pf.Symbols[i]
		}
	}
	require.NotNil(t, helper)
	require.NotNil(t, run)

	assert.Contains(t, run.Calls, "Helper")
	assert.Contains(t, helper.ErrorStrings, "helper failed")
}

func TestGoParser_EmptyFile(t *testing.T) {
	p := NewGoParser()
	pf, err := p.ParseFile("empty.go", []byte("package sample\n"))
	require.NoError(t, err)
	assert.Empty(t, pf.Symbols)
}

func TestParsePath_UnreadableFileReturnsParseError(t *testing.T) {
	_, err := ParsePath("/nonexistent/path/does/not/exist.go")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestSimplifiedParser_Python(t *testing.T) {
	src := `import sqlite3

class Store:
    def __init__(self):
        self.count = 0

    def save(self, value):
        self.count += 1
        if value is None:
            raise ValueError("value cannot be empty")
        return self.count
`
	p := NewSimplifiedParser("python")
	pf, err := p.ParseFile("store.py", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, pf.Symbols)

	var save *Symbol
	for i := range pf.Symbols {
		if pf.Symbols[i].Name == "Store.save" {
			save = &pf.Symbols[i]
		}
	}
	require.NotNil(t, save)
	assert.Contains(t, save.Raises, "ValueError")
	assert.Contains(t, save.Mutates, "self.count")
}

func TestResolver_TwoPassResolution(t *testing.T) {
	a := &ParsedFile{
		FilePath: "pkg/a/a.go",
		Symbols: []Symbol{
			{ID: SymbolID("pkg/a/a.go", "DoWork"), Name: "DoWork", Kind: KindFunction, FilePath: "pkg/a/a.go"},
		},
	}
	b := &ParsedFile{
		FilePath: "pkg/b/b.go",
		Imports:  []Import{{FilePath: "pkg/b/b.go", ImportPath: "example.com/mod/pkg/a"}},
		Symbols: []Symbol{
			{ID: SymbolID("pkg/b/b.go", "Caller"), Name: "Caller", Kind: KindFunction, FilePath: "pkg/b/b.go"},
		},
		Unresolved: []UnresolvedReference{
			{CallerID: SymbolID("pkg/b/b.go", "Caller"), FilePath: "pkg/b/b.go", TargetName: "a.DoWork", Line: 10, Kind: RefCalls},
		},
	}

	r := NewResolver()
	r.BuildIndex([]*ParsedFile{a, b})
	resolved := r.Resolve([]*ParsedFile{a, b})

	require.Len(t, resolved.References, 1)
	assert.Equal(t, SymbolID("pkg/a/a.go", "DoWork"), resolved.References[0].TargetID)
	assert.GreaterOrEqual(t, resolved.References[0].Confidence, 0.8)
}

func TestResolver_AmbiguousBareNameCappedOrLow(t *testing.T) {
	r := NewResolver()
	var files []*ParsedFile
	caller := &ParsedFile{
		FilePath: "pkg/c/c.go",
		Symbols:  []Symbol{{ID: SymbolID("pkg/c/c.go", "Caller"), Name: "Caller", FilePath: "pkg/c/c.go"}},
		Unresolved: []UnresolvedReference{
			{CallerID: SymbolID("pkg/c/c.go", "Caller"), FilePath: "pkg/c/c.go", TargetName: "Process", Line: 1, Kind: RefCalls},
		},
	}
	files = append(files, caller)
	for i := 0; i < 3; i++ {
		files = append(files, &ParsedFile{
			FilePath: "pkg/x" + string(rune('a'+i)) + "/x.go",
			Symbols:  []Symbol{{ID: SymbolID("pkg/x"+string(rune('a'+i))+"/x.go", "Process"), Name: "Process"}},
		})
	}
	r.BuildIndex(files)
	resolved := r.Resolve(files)
	require.Len(t, resolved.References, 3)
	for _, ref := range resolved.References {
		assert.LessOrEqual(t, ref.Confidence, ConfidenceLow)
	}
}
