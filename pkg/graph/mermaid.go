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

package graph

import (
	"fmt"
	"strings"
)

// ToMermaid renders a subgraph as a deterministic Mermaid flowchart.
// Node IDs are sanitized fully-qualified symbol IDs; labels use short
// symbol names. Output order follows the already-sorted subgraph.
func ToMermaid(sg Subgraph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range sg.Nodes {
		b.WriteString(fmt.Sprintf("    %s[%q]\n", sanitizeID(n.ID), n.Name))
	}
	for _, e := range sg.Edges {
		b.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", sanitizeID(e.Source), e.Kind, sanitizeID(e.Target)))
	}
	return b.String()
}

// sanitizeID replaces characters illegal in Mermaid node identifiers.
func sanitizeID(id string) string {
	r := strings.NewReplacer(
		"/", "_", ".", "_", ":", "_", "(", "_", ")", "_", "-", "_", " ", "_",
	)
	return "n_" + r.Replace(id)
}
