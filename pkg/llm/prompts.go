// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

// WikiPrompts holds the system prompts used while generating wiki pages.
var WikiPrompts = struct {
	FileSummary      string
	DirectorySummary string
	Synthesis        string
}{
	FileSummary: `You are documenting a single source file for a generated code wiki.
Summarize its purpose, its exported symbols, and how it fits into the surrounding package.
Cite call relationships only when the provided reference list supports them.
Keep the summary grounded in the given code; do not invent behavior.`,

	DirectorySummary: `You are documenting a directory for a generated code wiki, given the
summaries of its files and immediate subdirectories. Describe the directory's
responsibility and how its children relate. Do not restate every file; synthesize.`,

	Synthesis: `You are writing a top-level architecture page for a generated code wiki,
given directory summaries across the repository. Describe the major subsystems,
how they depend on each other, and the overall data or control flow. Prefer the
structure the evidence actually shows over a generic template.`,
}

// QueryPrompts holds the system prompts used by the query classifier and
// mode-specific retrievers.
var QueryPrompts = struct {
	Classify   string
	Diagnostic string
	Analytical string
	GapCheck   string
}{
	Classify: `Classify the user's question about a codebase into exactly one mode:
- diagnostic: "why does X fail", "what causes this error", tracing a bug to its source
- exploratory: "how does X work", "where is X implemented", open-ended discovery
- analytical: "what calls X", "what would break if I change X", impact analysis
- conceptual: "why is the system designed this way", architecture and design rationale
Respond with a JSON object: {"mode": "...", "reasoning": "...", "scope": "..."}.
scope is a short phrase naming the symbol, file, or subsystem the question concerns, if any.`,

	Diagnostic: `You are debugging a reported issue using the provided code evidence:
symbol definitions, call chains, raised exceptions, and error strings. Trace the
most likely failure path and cite the specific functions and error strings involved.`,

	Analytical: `You are assessing the impact of a potential code change using the provided
caller/callee graph evidence. Enumerate the affected call sites and explain the
blast radius. Do not speculate about code outside the provided evidence.`,

	GapCheck: `Given your draft answer and the evidence used to produce it, identify any
claims that are not fully supported by the evidence. Wrap each unsupported or
underspecified claim in <missing>...</missing> tags describing what evidence
would resolve it. If the answer is fully supported, return it unchanged with no
<missing> tags.`,
}
