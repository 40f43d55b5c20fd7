// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldorsen/archivist/internal/store"
)

func TestExplicitCandidatesGroupsByBaseDirExt(t *testing.T) {
	items := []store.DocumentItem{
		{ID: 1, CurrentName: "report_v1.pdf", CurrentPath: "docs/report_v1.pdf"},
		{ID: 2, CurrentName: "report_v2.pdf", CurrentPath: "docs/report_v2.pdf"},
		{ID: 3, CurrentName: "unrelated.pdf", CurrentPath: "docs/unrelated.pdf"},
	}
	cands := explicitCandidates(items)
	require.Len(t, cands, 1)
	assert.Equal(t, "report", cands[0].baseName)
	assert.Len(t, cands[0].members, 2)
	assert.False(t, cands[0].markersDisagree)
}

func TestDefaultOrderUsesMarkerOrdinals(t *testing.T) {
	items := []store.DocumentItem{
		{ID: 1, CurrentName: "report_v2.pdf", CurrentPath: "docs/report_v2.pdf"},
		{ID: 2, CurrentName: "report_v1.pdf", CurrentPath: "docs/report_v1.pdf"},
	}
	cands := explicitCandidates(items)
	require.Len(t, cands, 1)
	order := defaultOrder(cands[0])
	require.Len(t, order, 2)
	assert.Equal(t, int64(2), cands[0].members[order[0]].ID) // v1 first
	assert.Equal(t, int64(1), cands[0].members[order[1]].ID) // v2 last (current)
}

func TestDefaultOrderFallsBackToMtime(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cand := candidate{
		members: []store.DocumentItem{
			{ID: 1, SourceMTime: late},
			{ID: 2, SourceMTime: early},
		},
		markerOrder: map[int64]int{},
	}
	order := defaultOrder(cand)
	assert.Equal(t, int64(2), cand.members[order[0]].ID)
	assert.Equal(t, int64(1), cand.members[order[1]].ID)
}

func TestSimilarityCandidatesExcludesSameContentHash(t *testing.T) {
	items := []store.DocumentItem{
		{ID: 1, CurrentName: "notes.txt", CurrentPath: "a/notes.txt", ContentHash: "h1"},
		{ID: 2, CurrentName: "notes2.txt", CurrentPath: "a/notes2.txt", ContentHash: "h1"},
	}
	cands := similarityCandidates(items, 0.5)
	assert.Empty(t, cands)
}

func TestSimilarityCandidatesGroupsCloseNames(t *testing.T) {
	items := []store.DocumentItem{
		{ID: 1, CurrentName: "quarterly_report.pdf", CurrentPath: "a/quarterly_report.pdf", ContentHash: "h1"},
		{ID: 2, CurrentName: "quarterly_report_new.pdf", CurrentPath: "a/quarterly_report_new.pdf", ContentHash: "h2"},
	}
	cands := similarityCandidates(items, 0.7)
	require.Len(t, cands, 1)
	assert.Len(t, cands[0].members, 2)
}
