// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkerNumericVersion(t *testing.T) {
	base, kind, ordinal, ok := stripMarker("report_v2.pdf")
	assert.True(t, ok)
	assert.Equal(t, "report", base)
	assert.Equal(t, "numeric", kind)
	assert.Equal(t, 2, ordinal)
}

func TestStripMarkerCopyNumber(t *testing.T) {
	base, kind, ordinal, ok := stripMarker("budget (2).xlsx")
	assert.True(t, ok)
	assert.Equal(t, "budget", base)
	assert.Equal(t, "numeric", kind)
	assert.Equal(t, 2, ordinal)
}

func TestStripMarkerDate(t *testing.T) {
	base, kind, _, ok := stripMarker("notes_2024-03-01.txt")
	assert.True(t, ok)
	assert.Equal(t, "notes", base)
	assert.Equal(t, "date", kind)
}

func TestStripMarkerStatus(t *testing.T) {
	base, kind, ordinal, ok := stripMarker("proposal_final.docx")
	assert.True(t, ok)
	assert.Equal(t, "proposal", base)
	assert.Equal(t, "status", kind)
	assert.Equal(t, statusRank["final"], ordinal)
}

func TestStripMarkerNoMatch(t *testing.T) {
	_, _, _, ok := stripMarker("plain_report.pdf")
	assert.False(t, ok)
}

func TestSimilarityIdenticalStems(t *testing.T) {
	assert.Equal(t, 1.0, similarity("report.pdf", "report.txt"))
}

func TestSimilarityCloseNames(t *testing.T) {
	s := similarity("quarterly_report.pdf", "quarterly_report_new.pdf")
	assert.Greater(t, s, 0.7)
}

func TestSimilarityDissimilarNames(t *testing.T) {
	s := similarity("invoice_2024.pdf", "vacation_photo.jpg")
	assert.Less(t, s, 0.5)
}

func TestUnionFindGroupsTransitively(t *testing.T) {
	uf := newUnionFind(4)
	uf.union(0, 1)
	uf.union(1, 2)
	comps := uf.components()
	assert.Len(t, comps, 2)
}
