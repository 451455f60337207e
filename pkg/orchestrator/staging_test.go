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
	"os"
	"path/filepath"
	"testing"
)

func TestStager_PromoteReplacesLiveDirectory(t *testing.T) {
	dataDir := t.TempDir()
	stager := NewStager(dataDir)

	if err := os.MkdirAll(stager.LiveDir, 0o755); err != nil {
		t.Fatalf("seed live dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stager.LiveDir, "stale.md"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seed stale page: %v", err)
	}

	if err := stager.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := stager.WriteFile("README.md", []byte("fresh")); err != nil {
		t.Fatalf("write staged file: %v", err)
	}
	if err := stager.WriteFile("pkg/wiki.md", []byte("nested")); err != nil {
		t.Fatalf("write nested staged file: %v", err)
	}

	if err := stager.Promote(); err != nil {
		t.Fatalf("promote: %v", err)
	}

	if _, err := os.Stat(filepath.Join(stager.LiveDir, "stale.md")); !os.IsNotExist(err) {
		t.Error("expected the stale page to be gone after promotion")
	}
	data, err := os.ReadFile(filepath.Join(stager.LiveDir, "README.md"))
	if err != nil || string(data) != "fresh" {
		t.Errorf("expected promoted README.md, got data=%q err=%v", data, err)
	}
	if _, err := os.Stat(stager.StagingDir); !os.IsNotExist(err) {
		t.Error("expected the staging directory to be consumed by rename")
	}
}

func TestStager_ResetDiscardsLeftoverStaging(t *testing.T) {
	dataDir := t.TempDir()
	stager := NewStager(dataDir)

	if err := os.MkdirAll(stager.StagingDir, 0o755); err != nil {
		t.Fatalf("seed staging dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stager.StagingDir, "leftover.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed leftover file: %v", err)
	}

	if err := stager.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stager.StagingDir, "leftover.md")); !os.IsNotExist(err) {
		t.Error("expected Reset to discard a leftover staged file")
	}
}
