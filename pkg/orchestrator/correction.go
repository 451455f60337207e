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

// CorrectionNotesProvider supplies optional free-text notes keyed to a
// file or directory path, authored by an external collaborator. When
// present for an entity being generated, the orchestrator appends them
// to the prompt with instructions to treat them as authoritative, and
// folds them into that entity's signature so a note change forces
// regeneration.
//
// Modeled as an injected interface so an HTTP/CLI shell (out of scope
// here) can supply notes without this package depending on it.
type CorrectionNotesProvider interface {
	NotesForFile(relPath string) string
	NotesForDirectory(relDir string) string
}

// NoCorrectionNotes is a CorrectionNotesProvider that never supplies
// notes, the default when no collaborator is wired in.
type NoCorrectionNotes struct{}

func (NoCorrectionNotes) NotesForFile(string) string      { return "" }
func (NoCorrectionNotes) NotesForDirectory(string) string { return "" }
