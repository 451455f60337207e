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

// Package search implements the hybrid (semantic + full-text) chunk
// search: C6.
//
// The semantic store is grounded on the teacher's pkg/tools/semantic.go
// HNSW query, translated from CozoDB's `~idx{...}` vector-index syntax
// to sqlite-vec's vec0 virtual table MATCH queries (see DESIGN.md for
// the substitution rationale — CozoDB has no real binding in the
// retrieved pack).
package search

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// SemanticResult is one ranked row from the semantic store.
type SemanticResult struct {
	ChunkID  string
	Distance float64
	Rank     int // 1-based
}

// SemanticStore is the sqlite-vec backed vector index over chunk embeddings.
type SemanticStore struct {
	db  *sql.DB
	dim int
}

// OpenSemanticStore opens (or creates) a vec0 virtual table sized for
// dim-dimensional embeddings at path. Pass ":memory:" for a transient store.
func OpenSemanticStore(path string, dim int) (*SemanticStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open semantic store: %w", err)
	}
	s := &SemanticStore{db: db, dim: dim}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SemanticStore) ensureSchema() error {
	schema := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_vectors USING vec0(
	chunk_id TEXT PRIMARY KEY,
	embedding float[%d]
)`, s.dim)
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("ensure semantic schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SemanticStore) Close() error { return s.db.Close() }

// Upsert replaces the embedding stored for chunkID.
func (s *SemanticStore) Upsert(chunkID string, embedding []float32) error {
	if len(embedding) != s.dim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), s.dim)
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}
	_, err = s.db.Exec(`DELETE FROM chunk_vectors WHERE chunk_id = ?`, chunkID)
	if err != nil {
		return fmt.Errorf("delete stale vector for %s: %w", chunkID, err)
	}
	_, err = s.db.Exec(`INSERT INTO chunk_vectors(chunk_id, embedding) VALUES (?, ?)`, chunkID, blob)
	if err != nil {
		return fmt.Errorf("insert vector for %s: %w", chunkID, err)
	}
	return nil
}

// Delete removes the embedding for chunkID, if present.
func (s *SemanticStore) Delete(chunkID string) error {
	_, err := s.db.Exec(`DELETE FROM chunk_vectors WHERE chunk_id = ?`, chunkID)
	return err
}

// Query returns the top limit chunks ranked by vector distance to
// query. Returns (nil, nil) rather than an error when the store holds
// no vectors yet, so the hybrid merge can degrade to full-text only.
func (s *SemanticStore) Query(query []float32, limit int) ([]SemanticResult, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query embedding dimension mismatch: got %d, want %d", len(query), s.dim)
	}
	var count int
	if err := s.db.QueryRow(`SELECT count(*) FROM chunk_vectors`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.Query(`
SELECT chunk_id, distance
FROM chunk_vectors
WHERE embedding MATCH ?
ORDER BY distance
LIMIT ?`, blob, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic query: %w", err)
	}
	defer rows.Close()

	var out []SemanticResult
	rank := 0
	for rows.Next() {
		rank++
		var r SemanticResult
		if err := rows.Scan(&r.ChunkID, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan semantic row: %w", err)
		}
		r.Rank = rank
		out = append(out, r)
	}
	return out, rows.Err()
}
