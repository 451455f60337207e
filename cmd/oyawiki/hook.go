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
	"strings"

	"github.com/spf13/pflag"

	"github.com/oyawiki/engine/internal/errors"
	"github.com/oyawiki/engine/internal/ui"
)

const oyawikiHookMarker = "# oyawiki auto-generate hook"

const postCommitHookContent = oyawikiHookMarker + `
# Installed by: oyawiki install-hook
# Remove with: oyawiki install-hook --remove
oyawiki generate >/dev/null 2>&1 &
`

// runInstallHook installs or removes a git post-commit hook that
// regenerates the wiki in the background after each commit.
//
// Examples:
//
//	oyawiki install-hook
//	oyawiki install-hook --force
//	oyawiki install-hook --remove
func runInstallHook(args []string) {
	fs := pflag.NewFlagSet("install-hook", pflag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing hook")
	remove := fs.Bool("remove", false, "Remove the hook instead of installing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki install-hook [options]

Installs a git post-commit hook that regenerates the wiki in the
background after each commit.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	gitDir, err := findGitDir()
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot find a git repository",
			err.Error(),
			"Run this command from inside a git repository",
		), false)
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if *remove {
		if err := removeHook(hookPath); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot remove the git hook",
				err.Error(),
				"Remove it manually if needed",
				err,
			), false)
		}
		ui.Success("Git hook removed.")
		return
	}

	if err := installHook(hookPath, *force); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot install the git hook",
			err.Error(),
			"Check file permissions on "+hookPath,
			err,
		), false)
	}
	ui.Successf("Git hook installed: %s", hookPath)
}

func mustFindGitDir() string {
	dir, err := findGitDir()
	if err != nil {
		return ""
	}
	return dir
}

// findGitDir walks up from the current directory looking for .git,
// handling both a plain .git directory and a worktree's "gitdir: ..."
// pointer file.
func findGitDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return gitPath, nil
			}
			content, err := os.ReadFile(gitPath)
			if err != nil {
				return "", fmt.Errorf("read .git file: %w", err)
			}
			var gitdir string
			if _, err := fmt.Sscanf(string(content), "gitdir: %s", &gitdir); err == nil {
				if filepath.IsAbs(gitdir) {
					return gitdir, nil
				}
				return filepath.Join(dir, gitdir), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("not a git repository (or any of the parent directories)")
}

func installHook(hookPath string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return fmt.Errorf("create hooks directory: %w", err)
	}

	if _, err := os.Stat(hookPath); err == nil {
		if !force {
			content, err := os.ReadFile(hookPath)
			if err == nil && containsOyawikiMarker(string(content)) {
				ui.Info("oyawiki hook already installed. Use --force to reinstall.")
				return nil
			}
			return fmt.Errorf("hook already exists at %s; use --force to overwrite", hookPath)
		}
	}

	return os.WriteFile(hookPath, []byte("#!/bin/sh\n"+postCommitHookContent), 0o755)
}

func removeHook(hookPath string) error {
	content, err := os.ReadFile(hookPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no hook found at %s", hookPath)
		}
		return fmt.Errorf("read hook: %w", err)
	}
	if !containsOyawikiMarker(string(content)) {
		return fmt.Errorf("hook at %s was not installed by oyawiki; remove it manually if needed", hookPath)
	}
	return os.Remove(hookPath)
}

func containsOyawikiMarker(content string) bool {
	return strings.Contains(content, oyawikiHookMarker)
}

// IsHookInstalled reports whether the current repo already has an
// oyawiki post-commit hook.
func IsHookInstalled() bool {
	gitDir, err := findGitDir()
	if err != nil {
		return false
	}
	content, err := os.ReadFile(filepath.Join(gitDir, "hooks", "post-commit"))
	if err != nil {
		return false
	}
	return containsOyawikiMarker(string(content))
}
