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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/oyawiki/engine/internal/bootstrap"
	"github.com/oyawiki/engine/internal/config"
	"github.com/oyawiki/engine/internal/errors"
	"github.com/oyawiki/engine/internal/ui"
)

// runInit creates a repo's .oya/config/project.yaml, prompting interactively
// unless -y is given.
//
// Examples:
//
//	oyawiki init
//	oyawiki init -y
//	oyawiki init --llm openai --llm-model gpt-4o-mini
func runInit(args []string) {
	fs := pflag.NewFlagSet("init", pflag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	nonInteractive := fs.BoolP("yes", "y", false, "Non-interactive mode (use defaults)")
	projectID := fs.String("project-id", "", "Project identifier (default: repo directory name)")
	llmProvider := fs.String("llm", "", "LLM provider: ollama, openai, anthropic, mock")
	llmModel := fs.String("llm-model", "", "LLM model name")
	embedDims := fs.Int("embedding-dimensions", 0, "Embedding vector size (768 for nomic-embed-text, 1536 for OpenAI)")
	installHookFlag := fs.Bool("hook", false, "Install git post-commit hook without prompting")
	noHook := fs.Bool("no-hook", false, "Skip git hook installation")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki init [options]

Creates .oya/config/project.yaml configuration.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	repoRoot, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot determine the current directory",
			err.Error(),
			"This may be a bug worth reporting",
			err,
		), false)
	}

	dataDir := config.DefaultDataDir(repoRoot)
	configFile := filepath.Join(dataDir, "config", "project.yaml")
	if _, err := os.Stat(configFile); err == nil && !*force {
		errors.FatalError(errors.NewConfigError(
			fmt.Sprintf("%s already exists", configFile),
			"a configuration file is already present",
			"Use --force to overwrite it",
			nil,
		), false)
	}

	cfg := &config.RepoConfig{
		ProjectID:           *projectID,
		RepoRoot:            repoRoot,
		DataDir:             dataDir,
		LLM:                 *llmProvider,
		LLMModel:            *llmModel,
		EmbeddingDimensions: *embedDims,
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = filepath.Base(repoRoot)
	}

	reader := bufio.NewReader(os.Stdin)
	if !*nonInteractive {
		promptInitConfig(reader, cfg)
	}

	if _, err := bootstrap.InitProject(cfg, nil); err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot initialize the project",
			err.Error(),
			"Check that the repository root is writable",
			err,
		), false)
	}
	ui.Successf("Created %s", configFile)

	addToGitignore(repoRoot)

	if *installHookFlag || (!*noHook && !*nonInteractive && promptYesNo(reader, "Install git post-commit hook to auto-generate on each commit?")) {
		if gitDir := mustFindGitDir(); gitDir != "" {
			hookPath := filepath.Join(gitDir, "hooks", "post-commit")
			if err := installHook(hookPath, false); err != nil {
				ui.Warningf("could not install git hook: %v", err)
			} else {
				ui.Success("Git hook installed.")
			}
		} else {
			ui.Warning("could not install git hook: not a git repository")
		}
	}

	ui.Header("Next steps")
	fmt.Println("  oyawiki generate    Build the wiki and search index")
	fmt.Println("  oyawiki query \"...\" Ask a question once generated")
}

func promptInitConfig(reader *bufio.Reader, cfg *config.RepoConfig) {
	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)
	cfg.LLM = prompt(reader, "LLM provider (ollama/openai/anthropic/mock)", defaultString(cfg.LLM, "ollama"))
	cfg.LLMModel = prompt(reader, "LLM model", defaultString(cfg.LLMModel, defaultModelFor(cfg.LLM)))
}

func defaultModelFor(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	default:
		return "qwen2.5-coder:7b"
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// prompt asks the user for a value, returning defaultValue if the
// response is blank.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

func promptYesNo(reader *bufio.Reader, label string) bool {
	line := strings.ToLower(prompt(reader, label+" [y/N]", "n"))
	return line == "y" || line == "yes"
}

// addToGitignore appends .oya/ to the repo's .gitignore if it isn't
// already present, without disturbing the rest of the file.
func addToGitignore(repoRoot string) {
	path := filepath.Join(repoRoot, ".gitignore")
	data, err := os.ReadFile(path)
	if err == nil && strings.Contains(string(data), ".oya/") {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		f.WriteString("\n")
	}
	f.WriteString(".oya/\n")
}
