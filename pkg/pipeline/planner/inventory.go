// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/haldorsen/archivist/internal/fingerprint"
	"github.com/haldorsen/archivist/internal/store"
)

// inventoryRecord is the per-file record of the planner's input bundle.
type inventoryRecord struct {
	ID              int64
	CurrentName     string
	CurrentPath     string
	Extension       string
	SizeBytes       int64
	MIME            string
	DocumentType    string
	Summary         string
	KeyTopics       []string
	MTime           string
	IsCurrentVersion bool
	ChainName       string
}

// inventory is the Organization Planner's input bundle.
type inventory struct {
	records       []inventoryRecord
	directories   []string // current directory paths, most-populated first, capped
	extensionHist map[string]int
}

const maxSummaryChars = 200

// buildInventory assembles the planner's input bundle from the planning set.
func buildInventory(items []store.DocumentItem) inventory {
	dirCounts := make(map[string]int)
	extHist := make(map[string]int)
	records := make([]inventoryRecord, 0, len(items))

	for _, it := range items {
		summary := it.ContentSummary
		if len(summary) > maxSummaryChars {
			summary = summary[:maxSummaryChars]
		}
		dirCounts[dirOf(it.CurrentPath)]++
		extHist[it.Extension]++

		records = append(records, inventoryRecord{
			ID: it.ID, CurrentName: it.CurrentName, CurrentPath: it.CurrentPath,
			Extension: it.Extension, SizeBytes: it.FileSize, MIME: it.MIME,
			DocumentType: it.DocumentType, Summary: summary, KeyTopics: it.KeyTopics,
			MTime: it.SourceMTime.Format("2006-01-02"),
		})
	}

	dirs := make([]string, 0, len(dirCounts))
	for d := range dirCounts {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirCounts[dirs[i]] != dirCounts[dirs[j]] {
			return dirCounts[dirs[i]] > dirCounts[dirs[j]]
		}
		return dirs[i] < dirs[j]
	})
	if len(dirs) > maxDirectoryEntries {
		dirs = dirs[:maxDirectoryEntries]
	}

	return inventory{records: records, directories: dirs, extensionHist: extHist}
}

func dirOf(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "/"
	}
	return p[:idx]
}

// Render turns the inventory into the remote LLM's user prompt.
func (inv inventory) Render() string {
	var sb strings.Builder
	sb.WriteString("Planning set (one file per line: id | name | path | ext | size | mime | doc_type | summary | topics | mtime):\n")
	for _, r := range inv.records {
		sb.WriteString(fmt.Sprintf("%d | %s | %s | %s | %d | %s | %s | %s | %s | %s\n",
			r.ID, r.CurrentName, r.CurrentPath, r.Extension, r.SizeBytes, r.MIME,
			r.DocumentType, r.Summary, strings.Join(r.KeyTopics, ","), r.MTime))
	}

	sb.WriteString("\nCurrent directories (most populated first):\n")
	for _, d := range inv.directories {
		sb.WriteString(d + "\n")
	}

	sb.WriteString("\nExtension histogram:\n")
	for _, ext := range sortedEntries(inv.extensionHist) {
		sb.WriteString(fmt.Sprintf("%s: %d\n", ext, inv.extensionHist[ext]))
	}

	return sb.String()
}

// isBinaryCategory exposes fingerprint's classification to the prompt
// rules without duplicating the MIME table: binary categories get
// filename-based organization.
func isBinaryCategory(mime string) bool {
	return fingerprint.IsBinaryCategory(mime)
}
