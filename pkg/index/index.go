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

// Package index is the SQL-backed Code Index (C3): a relational view of
// symbols optimized for point queries the graph cannot serve directly.
//
// Substituted for the teacher's CozoDB/Datalog storage layer, which has
// no real bindings in the retrieved example pack (see DESIGN.md). Query
// shapes are translated from the teacher's Datalog scripts in
// pkg/tools/search.go into parameterized SQL against mattn/go-sqlite3,
// matching the spec's explicit "embedded SQL engine... JSON list
// columns" requirement.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one Code Index row: an indexable symbol enriched with the
// language-neutral facts the parser extracted, keyed by (file_path, symbol_name).
type Entry struct {
	FilePath     string
	SymbolName   string
	StartLine    int
	EndLine      int
	Signature    string
	Docstring    string // truncated to 200 chars
	Calls        []string
	CalledBy     []string
	Raises       []string
	Mutates      []string
	ErrorStrings []string
	SourceHash   string
}

const maxDocstringLen = 200

// Index wraps a SQLite connection holding the code_index table.
type Index struct {
	db *sql.DB
}

// Open creates or opens the SQLite-backed index at path and ensures its
// schema, including the file_path and symbol_name indexes the spec calls
// for. Pass ":memory:" for a transient, in-process index.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open code index: %w", err)
	}
	idx := &Index{db: db}
	if err := idx.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS code_index (
	file_path     TEXT NOT NULL,
	symbol_name   TEXT NOT NULL,
	start_line    INTEGER NOT NULL,
	end_line      INTEGER NOT NULL,
	signature     TEXT,
	docstring     TEXT,
	calls_json    TEXT NOT NULL DEFAULT '[]',
	called_by_json TEXT NOT NULL DEFAULT '[]',
	raises_json   TEXT NOT NULL DEFAULT '[]',
	mutates_json  TEXT NOT NULL DEFAULT '[]',
	error_strings_json TEXT NOT NULL DEFAULT '[]',
	source_hash   TEXT,
	PRIMARY KEY (file_path, symbol_name)
);
CREATE INDEX IF NOT EXISTS idx_code_index_file_path ON code_index(file_path);
CREATE INDEX IF NOT EXISTS idx_code_index_symbol_name ON code_index(symbol_name);
`
	_, err := idx.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("ensure code index schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Count returns the number of rows in the code index.
func (idx *Index) Count() (int, error) {
	var n int
	err := idx.db.QueryRow(`SELECT count(*) FROM code_index`).Scan(&n)
	return n, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Build wipes any existing rows for files appearing in entries, inserts
// fresh rows, then runs compute_called_by to invert `calls` across the
// whole table. Matches the spec's build() semantics: a full-file
// replacement, not a merge.
func (idx *Index) Build(entries []Entry) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin code index build: %w", err)
	}
	defer tx.Rollback()

	touchedFiles := make(map[string]bool)
	for _, e := range entries {
		touchedFiles[e.FilePath] = true
	}
	for f := range touchedFiles {
		if _, err := tx.Exec(`DELETE FROM code_index WHERE file_path = ?`, f); err != nil {
			return fmt.Errorf("wipe stale entries for %s: %w", f, err)
		}
	}

	stmt, err := tx.Prepare(`
INSERT INTO code_index
	(file_path, symbol_name, start_line, end_line, signature, docstring,
	 calls_json, raises_json, mutates_json, error_strings_json, source_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file_path, symbol_name) DO UPDATE SET
	start_line=excluded.start_line, end_line=excluded.end_line,
	signature=excluded.signature, docstring=excluded.docstring,
	calls_json=excluded.calls_json, raises_json=excluded.raises_json,
	mutates_json=excluded.mutates_json, error_strings_json=excluded.error_strings_json,
	source_hash=excluded.source_hash
`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		callsJSON, _ := json.Marshal(e.Calls)
		raisesJSON, _ := json.Marshal(e.Raises)
		mutatesJSON, _ := json.Marshal(e.Mutates)
		errJSON, _ := json.Marshal(e.ErrorStrings)
		_, err := stmt.Exec(
			e.FilePath, e.SymbolName, e.StartLine, e.EndLine, e.Signature,
			truncate(e.Docstring, maxDocstringLen),
			string(callsJSON), string(raisesJSON), string(mutatesJSON), string(errJSON),
			e.SourceHash,
		)
		if err != nil {
			return fmt.Errorf("insert %s::%s: %w", e.FilePath, e.SymbolName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit code index build: %w", err)
	}
	return idx.computeCalledBy()
}

// computeCalledBy inverts `calls` across the whole index: for every row
// R whose calls list contains symbol S, S's called_by gains R's name.
// Runs as a second pass after inserts per invariant 2.
func (idx *Index) computeCalledBy() error {
	rows, err := idx.db.Query(`SELECT symbol_name, calls_json FROM code_index`)
	if err != nil {
		return fmt.Errorf("scan calls for inversion: %w", err)
	}
	calledBy := make(map[string][]string)
	for rows.Next() {
		var name, callsJSON string
		if err := rows.Scan(&name, &callsJSON); err != nil {
			rows.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		var calls []string
		_ = json.Unmarshal([]byte(callsJSON), &calls)
		for _, callee := range calls {
			calledBy[callee] = append(calledBy[callee], name)
		}
	}
	rows.Close()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin called_by update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE code_index SET called_by_json = '[]'`); err != nil {
		return fmt.Errorf("reset called_by: %w", err)
	}
	stmt, err := tx.Prepare(`UPDATE code_index SET called_by_json = ? WHERE symbol_name = ?`)
	if err != nil {
		return fmt.Errorf("prepare called_by update: %w", err)
	}
	defer stmt.Close()
	for symbol, callers := range calledBy {
		data, _ := json.Marshal(callers)
		if _, err := stmt.Exec(string(data), symbol); err != nil {
			return fmt.Errorf("update called_by for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}
