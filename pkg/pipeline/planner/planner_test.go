// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package planner

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldorsen/archivist/internal/store"
)

func strPtr(s string) *string { return &s }

func TestValidateAssignsEveryPlanningItem(t *testing.T) {
	p := &Planner{logger: slog.Default()}
	items := []store.DocumentItem{
		{ID: 1, CurrentPath: "docs/a.pdf"},
		{ID: 2, CurrentPath: "docs/b.pdf"},
	}
	plan := decodedPlan{
		DirectoryStructure: []directorySpec{{Path: "/Documents", Depth: 1}},
		TagTaxonomy:        []tagTaxonomySpec{{TagName: "finance"}},
		FileAssignments: []assignmentSpec{
			{DocumentID: 1, ProposedPath: strPtr("/Documents"), ProposedTags: []string{"finance"}},
			{DocumentID: 2, ProposedPath: strPtr("/Documents")},
		},
	}
	validated, unassigned, err := p.validate(items, plan)
	require.NoError(t, err)
	assert.Empty(t, unassigned)
	assert.Len(t, validated.assignments, 2)
}

func TestValidateCreatesSyntheticUncategorizedForMissingDir(t *testing.T) {
	p := &Planner{logger: slog.Default()}
	items := []store.DocumentItem{{ID: 1, CurrentPath: "docs/a.pdf"}}
	plan := decodedPlan{
		FileAssignments: []assignmentSpec{
			{DocumentID: 1, ProposedPath: strPtr("/NoSuchDir")},
		},
	}
	validated, _, err := p.validate(items, plan)
	require.NoError(t, err)
	require.Len(t, validated.assignments, 1)
	assert.Equal(t, uncategorizedPath, *validated.assignments[0].path)

	var found bool
	for _, d := range validated.directories {
		if d.Path == uncategorizedPath {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDropsUnknownTags(t *testing.T) {
	p := &Planner{logger: slog.Default()}
	items := []store.DocumentItem{{ID: 1, CurrentPath: "docs/a.pdf"}}
	plan := decodedPlan{
		TagTaxonomy: []tagTaxonomySpec{{TagName: "finance"}},
		FileAssignments: []assignmentSpec{
			{DocumentID: 1, ProposedTags: []string{"finance", "nonexistent"}},
		},
	}
	validated, _, err := p.validate(items, plan)
	require.NoError(t, err)
	require.Len(t, validated.assignments, 1)
	assert.Equal(t, []string{"finance"}, validated.assignments[0].tags)
}

func TestValidateReportsUnassignedItems(t *testing.T) {
	p := &Planner{logger: slog.Default()}
	items := []store.DocumentItem{
		{ID: 1, CurrentPath: "docs/a.pdf"},
		{ID: 2, CurrentPath: "docs/b.pdf"},
	}
	plan := decodedPlan{
		FileAssignments: []assignmentSpec{
			{DocumentID: 1},
		},
	}
	validated, unassigned, err := p.validate(items, plan)
	require.NoError(t, err)
	assert.Len(t, unassigned, 1)
	assert.Equal(t, int64(2), unassigned[0])
	assert.Len(t, validated.assignments, 1)
}

func TestBuildInventoryOrdersDirectoriesAndBuildsHistogram(t *testing.T) {
	items := []store.DocumentItem{
		{ID: 1, CurrentPath: "docs/a.pdf", Extension: ".pdf"},
		{ID: 2, CurrentPath: "docs/b.pdf", Extension: ".pdf"},
		{ID: 3, CurrentPath: "photos/c.jpg", Extension: ".jpg"},
	}
	inv := buildInventory(items)
	assert.Equal(t, 2, inv.extensionHist[".pdf"])
	assert.Equal(t, 1, inv.extensionHist[".jpg"])
	assert.Equal(t, "docs", inv.directories[0])
}
