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

package search

import (
	"database/sql"
	"fmt"
	"strings"
)

// FullTextResult is one ranked row from the full-text store.
type FullTextResult struct {
	ChunkID string
	Score   float64 // bm25, lower is better
	Rank    int     // 1-based
}

// FullTextStore is an FTS5 virtual table over chunk content, title, and
// section header.
type FullTextStore struct {
	db *sql.DB
}

// OpenFullTextStore opens (or creates) the FTS5 index at path.
func OpenFullTextStore(path string) (*FullTextStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open full-text store: %w", err)
	}
	s := &FullTextStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *FullTextStore) ensureSchema() error {
	const schema = `CREATE VIRTUAL TABLE IF NOT EXISTS chunk_fts USING fts5(
	chunk_id UNINDEXED,
	title,
	header,
	content,
	chunk_type UNINDEXED
)`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("ensure fts schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *FullTextStore) Close() error { return s.db.Close() }

// Count returns the number of indexed chunks.
func (s *FullTextStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM chunk_fts`).Scan(&n)
	return n, err
}

// Upsert replaces the indexed row for chunkID.
func (s *FullTextStore) Upsert(chunkID, title, header, content, chunkType string) error {
	if _, err := s.db.Exec(`DELETE FROM chunk_fts WHERE chunk_id = ?`, chunkID); err != nil {
		return fmt.Errorf("delete stale fts row for %s: %w", chunkID, err)
	}
	_, err := s.db.Exec(`INSERT INTO chunk_fts(chunk_id, title, header, content, chunk_type) VALUES (?, ?, ?, ?, ?)`,
		chunkID, title, header, content, chunkType)
	if err != nil {
		return fmt.Errorf("insert fts row for %s: %w", chunkID, err)
	}
	return nil
}

// Lookup resolves chunk IDs to their indexed content and type, the
// metadata query.ChunkCatalog needs to re-fuse a conceptual search once
// real content has replaced the probe pass's empty maps.
func (s *FullTextStore) Lookup(ids []string) (contentByID, typeByID map[string]string, err error) {
	contentByID = make(map[string]string, len(ids))
	typeByID = make(map[string]string, len(ids))
	if len(ids) == 0 {
		return contentByID, typeByID, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT chunk_id, content, chunk_type FROM chunk_fts WHERE chunk_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, content, typ string
		if err := rows.Scan(&id, &content, &typ); err != nil {
			return nil, nil, fmt.Errorf("scan chunk lookup row: %w", err)
		}
		contentByID[id] = content
		typeByID[id] = typ
	}
	return contentByID, typeByID, rows.Err()
}

// Delete removes the indexed row for chunkID, if present.
func (s *FullTextStore) Delete(chunkID string) error {
	_, err := s.db.Exec(`DELETE FROM chunk_fts WHERE chunk_id = ?`, chunkID)
	return err
}

// Query returns the top limit chunks ranked by bm25 lexical score for
// query. Returns (nil, nil) rather than an error when the store is
// empty, so the hybrid merge can degrade to semantic only.
func (s *FullTextStore) Query(query string, limit int) ([]FullTextResult, error) {
	var count int
	if err := s.db.QueryRow(`SELECT count(*) FROM chunk_fts`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count fts rows: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
SELECT chunk_id, bm25(chunk_fts)
FROM chunk_fts
WHERE chunk_fts MATCH ?
ORDER BY bm25(chunk_fts)
LIMIT ?`, escapeFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var out []FullTextResult
	rank := 0
	for rows.Next() {
		rank++
		var r FullTextResult
		if err := rows.Scan(&r.ChunkID, &r.Score); err != nil {
			return nil, fmt.Errorf("scan fts row: %w", err)
		}
		r.Rank = rank
		out = append(out, r)
	}
	return out, rows.Err()
}

// escapeFTSQuery quotes each whitespace-separated token so FTS5 never
// parses user input as query syntax, and joins the tokens with OR so a
// chunk matching any of them is returned, ranked by bm25.
func escapeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}
