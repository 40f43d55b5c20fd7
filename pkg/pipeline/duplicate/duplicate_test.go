// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package duplicate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haldorsen/archivist/internal/store"
)

func TestElectDefaultPrimaryPrefersShortestPath(t *testing.T) {
	members := []store.DocumentItem{
		{ID: 1, CurrentPath: "archive/old/report_final_v2.pdf"},
		{ID: 2, CurrentPath: "report.pdf"},
		{ID: 3, CurrentPath: "docs/report.pdf"},
	}
	primary := electDefaultPrimary(members)
	assert.Equal(t, int64(2), primary.ID)
}

func TestElectDefaultPrimaryTieBreaksByMtimeThenPath(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	members := []store.DocumentItem{
		{ID: 1, CurrentPath: "b.txt", SourceMTime: late},
		{ID: 2, CurrentPath: "a.txt", SourceMTime: early},
		{ID: 3, CurrentPath: "c.txt", SourceMTime: early},
	}
	primary := electDefaultPrimary(members)
	assert.Equal(t, int64(2), primary.ID)
}

func TestNeedsArbitrationTriggersOnThreeMembers(t *testing.T) {
	members := []store.DocumentItem{
		{ID: 1, CurrentPath: "a.txt"},
		{ID: 2, CurrentPath: "a_copy.txt"},
		{ID: 3, CurrentPath: "a_copy2.txt"},
	}
	assert.True(t, needsArbitration(members))
}

func TestNeedsArbitrationTriggersOnDistinctTopDirs(t *testing.T) {
	members := []store.DocumentItem{
		{ID: 1, CurrentPath: "projects/a.txt"},
		{ID: 2, CurrentPath: "downloads/a.txt"},
	}
	assert.True(t, needsArbitration(members))
}

func TestNeedsArbitrationTriggersOnBackupPath(t *testing.T) {
	members := []store.DocumentItem{
		{ID: 1, CurrentPath: "docs/a.txt"},
		{ID: 2, CurrentPath: "docs/backup/a.txt"},
	}
	assert.True(t, needsArbitration(members))
}

func TestNeedsArbitrationFalseForSimplePair(t *testing.T) {
	members := []store.DocumentItem{
		{ID: 1, CurrentPath: "docs/a.txt"},
		{ID: 2, CurrentPath: "docs/a_copy.txt"},
	}
	assert.False(t, needsArbitration(members))
}

func TestGroupByHashSkipsErroredAndUnhashedItems(t *testing.T) {
	items := []store.DocumentItem{
		{ID: 1, ContentHash: "h1", Status: store.DocProcessed},
		{ID: 2, ContentHash: "h1", Status: store.DocProcessed},
		{ID: 3, ContentHash: "", Status: store.DocProcessed},
		{ID: 4, ContentHash: "h2", Status: store.DocError},
	}
	groups := groupByHash(items)
	assert.Len(t, groups, 1)
	assert.Len(t, groups["h1"], 2)
}
