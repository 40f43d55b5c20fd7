// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package manifest

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldorsen/archivist/internal/store"
)

func TestWriteExecutionManifestProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	e := Execution{
		JobID:      "job-1",
		ExecutedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Statistics: Statistics{TotalFiles: 3, TotalSizeBytes: 2048},
		Operations: []Operation{
			{Type: store.OpCopyFile, Source: "a", Target: "b", Success: true},
		},
	}
	path, err := WriteExecutionManifest(dir, e)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Execution
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "job-1", decoded.JobID)
	assert.Equal(t, 3, decoded.Statistics.TotalFiles)
	assert.NotEmpty(t, decoded.Statistics.HumanTotalSize)
}

func TestWriteChainManifestProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	c := Chain{
		DocumentName:   "report",
		CurrentVersion: 2,
		CurrentFile:    "report.pdf",
		Versions: []VersionEntry{
			{Version: 1, File: "report_v1.pdf", Status: store.VersionSuperseded},
			{Version: 2, File: "report.pdf", Status: store.VersionActive},
		},
	}
	path, err := WriteChainManifest(dir, "report", c)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Chain
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 2, decoded.CurrentVersion)
	assert.Len(t, decoded.Versions, 2)
}
