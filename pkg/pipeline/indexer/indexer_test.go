// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIDForIsDeterministic(t *testing.T) {
	a := fileIDFor("docs/report.pdf")
	b := fileIDFor("docs/report.pdf")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, fileIDFor("docs/other.pdf"))
}

func TestWalkSkipsHiddenTopLevelDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("hi"), 0o644))

	entries, err := walk(root, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "docs/a.txt", entries[0].relPath)
}

func TestWalkIncludesHiddenWhenNotSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".config", "settings.json"), []byte("{}"), 0o644))

	entries, err := walk(root, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
