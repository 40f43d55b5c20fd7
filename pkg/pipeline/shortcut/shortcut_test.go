// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package shortcut

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haldorsen/archivist/internal/store"
)

func TestPlanAutoPrefersSymlink(t *testing.T) {
	eff, rec := Plan(store.ShortcutSymlink, "doc", "/archive/doc.pdf", "/working/dup/doc.pdf",
		func(target, linkPath string) error { return nil })
	assert.True(t, eff.Symlink)
	assert.Equal(t, "/working/dup/doc.pdf", eff.LinkPath)
	assert.Equal(t, store.ShortcutSymlink, rec.ShortcutType)
}

func TestPlanAutoFallsBackToInternetShortcutOnSymlinkError(t *testing.T) {
	eff, rec := Plan(store.ShortcutSymlink, "doc", "/archive/doc.pdf", "/working/dup/doc.pdf",
		func(target, linkPath string) error { return errors.New("symlink not supported") })
	assert.False(t, eff.Symlink)
	assert.Contains(t, string(eff.Contents), "[InternetShortcut]")
	assert.Contains(t, string(eff.Contents), "URL=file:///archive/doc.pdf")
	assert.Equal(t, store.ShortcutURL, rec.ShortcutType)
}

func TestPlanDesktopEntryBody(t *testing.T) {
	eff, rec := Plan(store.ShortcutDesktop, "My Doc", "/archive/doc.pdf", "/working/dup/doc.pdf", nil)
	body := string(eff.Contents)
	assert.Contains(t, body, "[Desktop Entry]")
	assert.Contains(t, body, "Type=Link")
	assert.Contains(t, body, "Name=My Doc")
	assert.Equal(t, store.ShortcutDesktop, rec.ShortcutType)
}

func TestPlanURLStrategyNeverAttemptsSymlink(t *testing.T) {
	called := false
	_, rec := Plan(store.ShortcutURL, "doc", "/archive/doc.pdf", "/working/dup/doc.pdf",
		func(target, linkPath string) error { called = true; return nil })
	assert.False(t, called)
	assert.Equal(t, store.ShortcutURL, rec.ShortcutType)
}
