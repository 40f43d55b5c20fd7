// Copyright 2026 Archivist Authors
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
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the archivist CLI for submitting and tracking
// organization jobs.
//
// Usage:
//
//	archivist submit <archive.zip>   Submit an archive for processing
//	archivist status <job-id>        Show job status
//	archivist report <job-id>        Show a completed job's execution report
//	archivist approve <job-id>       Approve a job awaiting review
//	archivist cancel <job-id>        Cancel a running job
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "unknown"
)

// GlobalFlags holds CLI flags shared across subcommands.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	NoColor    bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to config.yaml (default: ./config.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `archivist - cloud-drive archive organizer

Usage:
  archivist <command> [options] [args]

Commands:
  submit <archive.zip>   Submit an archive for processing
  status <job-id>        Show job status
  report <job-id>        Show a completed job's execution report
  approve <job-id>       Approve a job awaiting review
  cancel <job-id>        Cancel a running job

Global Options:
  --json          Output in JSON format
  --no-color      Disable color output
  -c, --config    Path to config.yaml
  -V, --version   Show version and exit
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("archivist version %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		*noColor = true
	}
	color.NoColor = *noColor

	globals := GlobalFlags{ConfigPath: *configPath, JSON: *jsonOutput, NoColor: *noColor}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	var err error
	switch command {
	case "submit":
		err = runSubmit(cmdArgs, globals)
	case "status":
		err = runStatus(cmdArgs, globals)
	case "report":
		err = runReport(cmdArgs, globals)
	case "approve":
		err = runApprove(cmdArgs, globals)
	case "cancel":
		err = runCancel(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
