// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldorsen/archivist/internal/store"
)

func TestSanitizeComponentStripsReservedCharacters(t *testing.T) {
	assert.Equal(t, "report2024", sanitizeComponent(`report<2024>`))
}

func TestSanitizeComponentTrimsTrailingDotsAndSpaces(t *testing.T) {
	assert.Equal(t, "report", sanitizeComponent("report.. "))
}

func TestSanitizeComponentRejectsReservedBaseNames(t *testing.T) {
	assert.Equal(t, "_con.txt", sanitizeComponent("con.txt"))
}

func TestSanitizeComponentEnforcesLengthLimit(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	assert.Len(t, sanitizeComponent(long), maxComponentLength)
}

func TestTargetPathForUsesMirrorPathWhenUnassigned(t *testing.T) {
	it := store.DocumentItem{CurrentPath: "docs/a.pdf", CurrentName: "a.pdf"}
	assert.Equal(t, "docs/a.pdf", targetPathFor(it))
}

func strPtr(s string) *string { return &s }

func TestTargetPathForAppliesProposedPathAndName(t *testing.T) {
	it := store.DocumentItem{
		CurrentPath:  "docs/a.pdf",
		CurrentName:  "a.pdf",
		ProposedPath: strPtr("/Finance/Invoices"),
		ProposedName: strPtr("invoice_2024.pdf"),
	}
	assert.Equal(t, "Finance/Invoices/invoice_2024.pdf", targetPathFor(it))
}

func TestValidatePlanDetectsCollidingTargets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.pdf"), []byte("x"), 0o644))

	e := &Executor{sourceRoot: root}
	items := []store.DocumentItem{
		{ID: 1, CurrentPath: "a.pdf", CurrentName: "a.pdf", ProposedPath: strPtr("/X"), ProposedName: strPtr("same.pdf")},
		{ID: 2, CurrentPath: "b.pdf", CurrentName: "b.pdf", ProposedPath: strPtr("/X"), ProposedName: strPtr("same.pdf")},
	}
	err := e.validatePlan(items)
	assert.Error(t, err)
}

func TestValidatePlanFailsOnMissingSourceFile(t *testing.T) {
	root := t.TempDir()
	e := &Executor{sourceRoot: root}
	items := []store.DocumentItem{{ID: 1, CurrentPath: "missing.pdf"}}
	err := e.validatePlan(items)
	assert.Error(t, err)
}
