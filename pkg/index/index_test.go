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

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func scenarioBEntries() []Entry {
	return []Entry{
		{
			FilePath: "api/deps.py", SymbolName: "get_db", StartLine: 10, EndLine: 20,
			Raises: []string{"sqlite3.OperationalError"}, Mutates: []string{"_db_instances"},
			ErrorStrings: []string{"readonly database"},
		},
		{
			FilePath: "api/routers/notes.py", SymbolName: "get_notes_service", StartLine: 5, EndLine: 30,
			Calls: []string{"get_db"},
		},
	}
}

func TestBuild_ComputesCalledByAsInverseOfCalls(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Build(scenarioBEntries()))

	entries, err := idx.FindBySymbol("get_db")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"get_notes_service"}, entries[0].CalledBy)
}

func TestBuild_WipesOnlyTouchedFiles(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Build(scenarioBEntries()))
	require.NoError(t, idx.Build([]Entry{
		{FilePath: "api/deps.py", SymbolName: "get_db", StartLine: 99, EndLine: 100},
	}))

	deps, err := idx.FindByFile("api/deps.py")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, 99, deps[0].StartLine)

	notes, err := idx.FindByFile("api/routers/notes.py")
	require.NoError(t, err)
	assert.Len(t, notes, 1, "untouched file's rows must survive a rebuild of a different file")
}

func TestFindByRaisesAndErrorString(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Build(scenarioBEntries()))

	byRaise, err := idx.FindByRaises("sqlite3.OperationalError")
	require.NoError(t, err)
	require.Len(t, byRaise, 1)
	assert.Equal(t, "get_db", byRaise[0].SymbolName)

	byErr, err := idx.FindByErrorString("readonly")
	require.NoError(t, err)
	require.Len(t, byErr, 1)
}

func TestCallersAndCallees(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Build(scenarioBEntries()))

	callers, err := idx.Callers("get_db")
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "get_notes_service", callers[0].SymbolName)

	callees, err := idx.Callees("get_notes_service")
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.Equal(t, "get_db", callees[0].SymbolName)
}
