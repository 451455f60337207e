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

import "strings"

// normalizePath puts a file path into canonical form: forward slashes, no
// leading "./", no leading "/".
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "/")
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

// SymbolID builds the canonical fully-qualified ID for a symbol: the
// form the graph and code index key everything on. Deliberately excludes
// line numbers so that whitespace-only edits don't change identity, but
// a file can't have two symbols with the same name and kind.
func SymbolID(filePath, name string) string {
	return normalizePath(filePath) + "::" + name
}

// extractSimpleName strips a Go method's receiver-type prefix, e.g.
// "(*Server).Start" -> "Start", leaving plain names untouched.
func extractSimpleName(name string) string {
	if idx := strings.LastIndex(name, ")."); idx >= 0 {
		return name[idx+2:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
