// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"
)

type submitRequest struct {
	SourceArchivePath string `json:"source_archive_path"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

func runSubmit(args []string, g GlobalFlags) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	wait := fs.Bool("wait", false, "Block and show a progress bar until the job reaches a terminal state")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: archivist submit [--wait] <archive.zip>\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	var resp submitResponse
	if err := newAPIClient().do("POST", "/jobs", submitRequest{SourceArchivePath: fs.Arg(0)}, &resp); err != nil {
		return err
	}
	if g.JSON && !*wait {
		return printJSON(resp)
	}
	fmt.Println(color.GreenString("submitted job %s", resp.JobID))
	if *wait {
		return waitForTerminal(resp.JobID, g)
	}
	return nil
}

// waitForTerminal polls job status, rendering one progress bar per phase,
// the way the teacher's index command renders one bar per indexing phase.
func waitForTerminal(jobID string, g GlobalFlags) error {
	client := newAPIClient()
	var bar *progressbar.ProgressBar
	var currentPhase string

	for {
		var j map[string]any
		if err := client.do("GET", "/jobs/"+jobID, nil, &j); err != nil {
			return err
		}
		phase := fmt.Sprint(j["current_phase"])
		status := fmt.Sprint(j["status"])

		if phase != currentPhase {
			if bar != nil {
				_ = bar.Finish()
			}
			currentPhase = phase
			if !g.NoColor {
				bar = progressbar.NewOptions(100, progressbar.OptionSetDescription(phase))
			}
		}
		if bar != nil {
			if progress, ok := j["progress"].(float64); ok {
				_ = bar.Set(int(progress))
			}
		}

		switch status {
		case "completed":
			fmt.Println(color.GreenString("\njob %s completed", jobID))
			return nil
		case "failed":
			fmt.Println(color.RedString("\njob %s failed: %v", jobID, j["error_message"]))
			os.Exit(1)
		case "cancelled":
			fmt.Println(color.YellowString("\njob %s cancelled", jobID))
			os.Exit(1)
		case "review_required":
			fmt.Println(color.YellowString("\njob %s is awaiting review: archivist approve %s", jobID, jobID))
			return nil
		}
		time.Sleep(2 * time.Second)
	}
}

func runStatus(args []string, g GlobalFlags) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: archivist status <job-id>\n")
		os.Exit(1)
	}

	var job map[string]any
	if err := newAPIClient().do("GET", "/jobs/"+fs.Arg(0), nil, &job); err != nil {
		return err
	}
	if g.JSON {
		return printJSON(job)
	}
	fmt.Printf("job:     %v\n", job["id"])
	fmt.Printf("status:  %s\n", statusColor(fmt.Sprint(job["status"])))
	fmt.Printf("phase:   %v\n", job["current_phase"])
	fmt.Printf("progress: %v%%\n", job["progress"])
	if errMsg, ok := job["error_message"].(string); ok && errMsg != "" {
		fmt.Println(color.RedString("error:   %s", errMsg))
	}
	return nil
}

func runReport(args []string, g GlobalFlags) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: archivist report <job-id>\n")
		os.Exit(1)
	}

	var report map[string]any
	if err := newAPIClient().do("GET", "/jobs/"+fs.Arg(0)+"/report", nil, &report); err != nil {
		return err
	}
	return printJSON(report)
}

func runApprove(args []string, g GlobalFlags) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: archivist approve <job-id>\n")
		os.Exit(1)
	}
	if err := newAPIClient().do("POST", "/jobs/"+fs.Arg(0)+"/approve", nil, nil); err != nil {
		return err
	}
	fmt.Println(color.GreenString("approved job %s", fs.Arg(0)))
	return nil
}

func runCancel(args []string, g GlobalFlags) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: archivist cancel <job-id>\n")
		os.Exit(1)
	}
	if err := newAPIClient().do("POST", "/jobs/"+fs.Arg(0)+"/cancel", nil, nil); err != nil {
		return err
	}
	fmt.Println(color.YellowString("cancel requested for job %s", fs.Arg(0)))
	return nil
}

func statusColor(status string) string {
	switch status {
	case "completed":
		return color.GreenString(status)
	case "failed", "cancelled":
		return color.RedString(status)
	case "review_required":
		return color.YellowString(status)
	default:
		return status
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
