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
	"github.com/oyawiki/engine/internal/ui"
)

// runReset executes the 'reset' command, deleting all generated wiki
// and index data for the current repository so the next generate run
// starts clean.
//
// Examples:
//
//	oyawiki reset --yes
func runReset(args []string, configPath string) {
	fs := pflag.NewFlagSet("reset", pflag.ExitOnError)
	confirm := fs.BoolP("yes", "y", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki reset [options]

Deletes all generated wiki pages and search indexes for the current
repository, keeping project.yaml.

WARNING: this operation is destructive and cannot be undone.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		errors.FatalError(errors.NewInputError(
			"Reset requires explicit confirmation",
			"the --yes flag was not passed",
			"Re-run with --yes to confirm: oyawiki reset --yes",
		), false)
	}

	cfg, err := loadRepoConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load oyawiki configuration",
			err.Error(),
			"Run 'oyawiki init' to create a new configuration",
			err,
		), false)
	}

	for _, sub := range []string{"meta", "graph", "wiki"} {
		dir := filepath.Join(cfg.DataDir, sub)
		if err := os.RemoveAll(dir); err != nil {
			errors.FatalError(errors.NewPermissionError(
				"Cannot delete generated data",
				err.Error(),
				"Check file permissions on "+dir,
				err,
			), false)
		}
	}

	ui.Success("Reset complete. All generated data has been deleted.")
	fmt.Println()
	ui.Header("Next steps")
	fmt.Println("  oyawiki generate    Rebuild the wiki and search index")
}
