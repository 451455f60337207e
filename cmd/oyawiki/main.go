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

// Package main implements the oyawiki CLI: generating, querying, and
// maintaining a repository's Code Intelligence wiki.
//
// Usage:
//
//	oyawiki init                    Create .oya/config/project.yaml configuration
//	oyawiki generate                Run the generation pipeline
//	oyawiki status [--json]         Show project status
//	oyawiki query <question>        Answer a question via CGRAG
//	oyawiki graph <node>             Export a node's neighborhood as Mermaid
//	oyawiki reset --yes             Delete local project data
//	oyawiki install-hook            Install git post-commit auto-generation hook
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/oyawiki/engine/internal/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .oya/config/project.yaml (default: ./.oya/config/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `oyawiki - Code Intelligence wiki generator and query engine

Usage:
  oyawiki <command> [options]

Commands:
  init          Create .oya/config/project.yaml configuration
  generate      Run Discover/Analyze/Files/Directories/Synthesize/Index
  status        Show generated wiki and index status
  query         Answer a question about the repo via classify+CGRAG
  graph         Export a symbol's call-graph neighborhood as Mermaid
  reset         Delete local project data (destructive!)
  install-hook  Install git post-commit hook for auto-generation

Global Options:
  --config      Path to .oya/config/project.yaml
  --version     Show version and exit

Examples:
  oyawiki init
  oyawiki generate
  oyawiki generate --full
  oyawiki status --json
  oyawiki query "how does authentication work"
  oyawiki graph api/auth.go::handleLogin

Data Storage:
  Generated state is stored in <repo>/.oya/ (wiki, meta, graph).

Environment Variables:
  OLLAMA_HOST        Ollama URL (default: http://localhost:11434)
  OPENAI_API_KEY     OpenAI API key
  ANTHROPIC_API_KEY  Anthropic API key

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("oyawiki version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "generate":
		runGenerate(cmdArgs, *configPath)
	case "status":
		runStatus(cmdArgs, *configPath)
	case "query":
		runQuery(cmdArgs, *configPath)
	case "graph":
		runGraph(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	case "install-hook":
		runInstallHook(cmdArgs)
	default:
		flag.Usage()
		errors.FatalError(errors.NewInputError(
			fmt.Sprintf("Unknown command: %s", command),
			"no subcommand matches that name",
			"Run 'oyawiki --help' to see the available commands",
		), false)
	}
}
