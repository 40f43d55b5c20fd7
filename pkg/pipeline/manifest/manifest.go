// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package manifest writes the Executor's JSON reports: the global
// execution manifest and per-chain version manifests.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/haldorsen/archivist/internal/store"
)

// Statistics is the execution manifest's aggregate counters.
type Statistics struct {
	TotalFiles        int `json:"total_files"`
	DirectoriesCreated int `json:"directories_created"`
	FilesCopied       int `json:"files_copied"`
	FilesRenamed      int `json:"files_renamed"`
	FilesMoved        int `json:"files_moved"`
	ShortcutsCreated  int `json:"shortcuts_created"`
	VersionArchives   int `json:"version_archives"`
	Errors            int `json:"errors"`

	// HumanTotalSize is a human-readable rendering of TotalSizeBytes,
	// carried alongside the raw field for report readability.
	TotalSizeBytes int64  `json:"total_size_bytes"`
	HumanTotalSize string `json:"total_size_human"`
}

// Operation is one entry in the execution manifest's operation list.
type Operation struct {
	Type       store.ExecutionOperation `json:"type"`
	Source     string                    `json:"source"`
	Target     string                    `json:"target"`
	DocumentID int64                     `json:"document_id,omitempty"`
	Success    bool                      `json:"success"`
	Timestamp  time.Time                 `json:"timestamp"`
	Error      string                    `json:"error,omitempty"`
}

// ShortcutEntry is one entry in the execution manifest's shortcuts list.
type ShortcutEntry struct {
	ShortcutPath string              `json:"shortcut_path"`
	TargetPath   string              `json:"target_path"`
	OriginalPath string              `json:"original_path"`
	ShortcutType store.ShortcutType `json:"shortcut_type"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Execution is the top-level execution manifest.
type Execution struct {
	JobID         string          `json:"job_id"`
	ExecutedAt    time.Time       `json:"executed_at"`
	SourceArchive string          `json:"source_archive"`
	DryRun        bool            `json:"dry_run"`
	Statistics    Statistics      `json:"statistics"`
	Operations    []Operation     `json:"operations"`
	Shortcuts     []ShortcutEntry `json:"shortcuts"`
	Errors        []string        `json:"errors"`
}

// FillHumanReadable derives HumanTotalSize from TotalSizeBytes.
func (s *Statistics) FillHumanReadable() {
	s.HumanTotalSize = humanize.Bytes(uint64(maxInt64(s.TotalSizeBytes, 0)))
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// WriteExecutionManifest writes e as indented JSON to
// {reportsDir}/{job_id}_manifest.json.
func WriteExecutionManifest(reportsDir string, e Execution) (string, error) {
	e.Statistics.FillHumanReadable()
	path := filepath.Join(reportsDir, e.JobID+"_manifest.json")
	return path, writeJSON(path, e)
}

// VersionEntry is one chain member's entry in a chain manifest.
type VersionEntry struct {
	Version int                       `json:"version"`
	File    string                    `json:"file"`
	Date    string                    `json:"date"`
	Status  store.VersionMemberStatus `json:"status"`
}

// Chain is the per-VersionChain manifest.
type Chain struct {
	DocumentName    string                `json:"document_name"`
	CurrentVersion  int                   `json:"current_version"`
	CurrentFile     string                `json:"current_file"`
	ArchivePath     string                `json:"archive_path"`
	ArchiveStrategy store.ArchiveStrategy `json:"archive_strategy"`
	Versions        []VersionEntry        `json:"versions"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

// WriteChainManifest writes c as indented JSON to
// {archivePath}/{chain_name}_versions.json.
func WriteChainManifest(archivePath, chainName string, c Chain) (string, error) {
	path := filepath.Join(archivePath, chainName+"_versions.json")
	return path, writeJSON(path, c)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
