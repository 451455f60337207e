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
	"fmt"
	"os"
	"path/filepath"
)

// Stager writes a generation run's pages to a staging directory and
// promotes the whole tree to the live wiki directory only once every
// page has rendered successfully, so a run that fails partway never
// leaves a half-written wiki visible to readers.
//
// Grounded on the teacher's CheckpointManager write-temp-then-rename
// pattern (checkpoint.go), extended from a single file to a directory:
// promotion removes the old live directory, then renames staging over
// it, which is atomic on any filesystem where both paths share a mount.
type Stager struct {
	LiveDir    string
	StagingDir string
}

// NewStager roots the live and staging directories under dataDir,
// matching the RepoConfig.DataDir layout ("<DataDir>/wiki",
// "<DataDir>/wiki.staging").
func NewStager(dataDir string) *Stager {
	return &Stager{
		LiveDir:    filepath.Join(dataDir, "wiki"),
		StagingDir: filepath.Join(dataDir, "wiki.staging"),
	}
}

// Reset discards any leftover staging directory from a prior failed or
// cancelled run and creates a fresh one.
func (s *Stager) Reset() error {
	if err := os.RemoveAll(s.StagingDir); err != nil {
		return fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.MkdirAll(s.StagingDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	return nil
}

// WriteFile writes content to relPath under the staging directory,
// creating intermediate directories as needed.
func (s *Stager) WriteFile(relPath string, content []byte) error {
	full := filepath.Join(s.StagingDir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create staging subdirectory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("write staged page %s: %w", relPath, err)
	}
	return nil
}

// Promote atomically replaces the live wiki directory with the staged
// one: remove-then-rename. If promotion fails partway (e.g. the
// RemoveAll succeeds but the Rename does not), the staging directory is
// left intact so the run can be retried without regenerating anything,
// at the cost of a temporarily empty live directory.
func (s *Stager) Promote() error {
	if err := os.RemoveAll(s.LiveDir); err != nil {
		return fmt.Errorf("remove previous live wiki directory: %w", err)
	}
	if err := os.Rename(s.StagingDir, s.LiveDir); err != nil {
		return fmt.Errorf("promote staged wiki: %w", err)
	}
	return nil
}

// Abandon leaves the staging directory on disk without promoting it,
// for a cancelled run: the next run's Reset will discard it.
func (s *Stager) Abandon() error {
	return nil
}
