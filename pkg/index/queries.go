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
	"database/sql"
	"encoding/json"
	"fmt"
)

const rowOrder = `ORDER BY file_path, start_line`

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var calls, calledBy, raises, mutates, errStrings string
		if err := rows.Scan(
			&e.FilePath, &e.SymbolName, &e.StartLine, &e.EndLine, &e.Signature, &e.Docstring,
			&calls, &calledBy, &raises, &mutates, &errStrings, &e.SourceHash,
		); err != nil {
			return nil, fmt.Errorf("scan code index row: %w", err)
		}
		_ = json.Unmarshal([]byte(calls), &e.Calls)
		_ = json.Unmarshal([]byte(calledBy), &e.CalledBy)
		_ = json.Unmarshal([]byte(raises), &e.Raises)
		_ = json.Unmarshal([]byte(mutates), &e.Mutates)
		_ = json.Unmarshal([]byte(errStrings), &e.ErrorStrings)
		out = append(out, e)
	}
	return out, rows.Err()
}

const selectCols = `file_path, symbol_name, start_line, end_line, signature, docstring,
	calls_json, called_by_json, raises_json, mutates_json, error_strings_json, source_hash`

// FindByRaises returns entries whose raises list contains type.
func (idx *Index) FindByRaises(typ string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE raises_json LIKE ? `+rowOrder,
		"%"+jsonQuote(typ)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find_by_raises: %w", err)
	}
	return scanEntries(rows)
}

// FindByErrorString returns entries whose error_strings list contains a
// substring match (SQL LIKE semantics).
func (idx *Index) FindByErrorString(substring string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE error_strings_json LIKE ? `+rowOrder,
		"%"+substring+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find_by_error_string: %w", err)
	}
	return scanEntries(rows)
}

// FindByMutates returns entries whose mutates list contains name.
func (idx *Index) FindByMutates(name string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE mutates_json LIKE ? `+rowOrder,
		"%"+jsonQuote(name)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find_by_mutates: %w", err)
	}
	return scanEntries(rows)
}

// FindBySymbol returns entries whose symbol_name equals name.
func (idx *Index) FindBySymbol(name string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE symbol_name = ? `+rowOrder, name,
	)
	if err != nil {
		return nil, fmt.Errorf("find_by_symbol: %w", err)
	}
	return scanEntries(rows)
}

// FindByFile returns entries whose file_path contains pathSubstring.
func (idx *Index) FindByFile(pathSubstring string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE file_path LIKE ? `+rowOrder,
		"%"+pathSubstring+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find_by_file: %w", err)
	}
	return scanEntries(rows)
}

// FindByFileAndSymbol intersects FindByFile and an exact symbol_name match.
func (idx *Index) FindByFileAndSymbol(pathSubstring, name string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE file_path LIKE ? AND symbol_name = ? `+rowOrder,
		"%"+pathSubstring+"%", name,
	)
	if err != nil {
		return nil, fmt.Errorf("find_by_file_and_symbol: %w", err)
	}
	return scanEntries(rows)
}

// Callers returns entries naming name in their calls list.
func (idx *Index) Callers(name string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE calls_json LIKE ? `+rowOrder,
		"%"+jsonQuote(name)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("callers: %w", err)
	}
	return scanEntries(rows)
}

// Callees returns entries naming name in their called_by list.
func (idx *Index) Callees(name string) ([]Entry, error) {
	rows, err := idx.db.Query(
		`SELECT `+selectCols+` FROM code_index WHERE called_by_json LIKE ? `+rowOrder,
		"%"+jsonQuote(name)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("callees: %w", err)
	}
	return scanEntries(rows)
}

func jsonQuote(s string) string {
	data, _ := json.Marshal(s)
	// strip the surrounding quotes JSON adds, leaving the escaped inner text
	if len(data) >= 2 {
		return string(data[1 : len(data)-1])
	}
	return s
}
