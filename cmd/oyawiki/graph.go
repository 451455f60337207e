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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/oyawiki/engine/internal/errors"
	"github.com/oyawiki/engine/pkg/graph"
)

// runGraph executes the 'graph' command, printing a Mermaid diagram of
// a symbol's neighborhood in the persisted call graph.
//
// Examples:
//
//	oyawiki graph pkg/parse/parser.go::ParsePath
//	oyawiki graph --hops 3 --min-confidence 0.5 api/auth.go::HandleLogin
func runGraph(args []string, configPath string) {
	fs := pflag.NewFlagSet("graph", pflag.ExitOnError)
	hops := fs.Int("hops", 2, "Neighborhood radius in hops")
	minConfidence := fs.Float64("min-confidence", 0, "Minimum edge confidence to include")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki graph [options] <symbol-id>

Prints a Mermaid flowchart of a symbol's neighborhood in the call graph.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	nodeID := fs.Arg(0)

	cfg, err := loadRepoConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load oyawiki configuration",
			err.Error(),
			"Run 'oyawiki init' to create a new configuration",
			err,
		), false)
	}

	g, err := graph.Load(filepath.Join(cfg.DataDir, "graph"))
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot load the symbol graph",
			err.Error(),
			"Run 'oyawiki generate' to build the graph first",
			err,
		), false)
	}

	if _, ok := g.Node(nodeID); !ok {
		errors.FatalError(errors.NewNotFoundError(
			fmt.Sprintf("No node %q in the graph", nodeID),
			"the symbol was not found in the persisted call graph",
			"Run 'oyawiki status' to check the graph was generated, or 'oyawiki generate' to rebuild it",
		), false)
	}

	sg := g.Neighborhood(nodeID, *hops, *minConfidence)
	fmt.Println(graph.ToMermaid(sg))
}
