// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shortcut implements the cross-platform shortcut variants as
// pure functions: given a target and a link path, decide what to write
// and how, without touching the filesystem themselves.
package shortcut

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/haldorsen/archivist/internal/store"
)

// Effect is the filesystem action the caller must perform to realize a
// shortcut decision.
type Effect struct {
	// LinkPath is the full path to create.
	LinkPath string
	// Symlink is true when LinkPath should be a symbolic link to Target.
	Symlink bool
	// Target is the symlink target, when Symlink is true.
	Target string
	// Contents holds the text-file body, when Symlink is false.
	Contents []byte
}

// Plan decides, in preference order, what kind of shortcut to create
// for target at linkPath: (a) native symlink, (b) internet-shortcut
// text file, (c) desktop-entry text file. attempt performs step (a) and
// reports whether it succeeded; the caller supplies it so this package
// stays free of direct symlink syscalls in its decision logic.
func Plan(strategy store.ShortcutType, name, target, linkPath string, attemptSymlink func(target, linkPath string) error) (Effect, store.ShortcutRecord) {
	switch strategy {
	case store.ShortcutURL:
		return internetShortcut(name, target, linkPath)
	case store.ShortcutDesktop:
		return desktopEntry(name, target, linkPath)
	default: // auto / symlink
		if attemptSymlink == nil {
			return internetShortcut(name, target, linkPath)
		}
		if err := attemptSymlink(target, linkPath); err == nil {
			return Effect{LinkPath: linkPath, Symlink: true, Target: target},
				record(store.ShortcutSymlink, linkPath, target)
		}
		return internetShortcut(name, target, linkPath)
	}
}

func internetShortcut(name, target, linkPath string) (Effect, store.ShortcutRecord) {
	path := withExt(linkPath, ".url")
	body := fmt.Sprintf("[InternetShortcut]\nURL=file://%s\n", absSlash(target))
	return Effect{LinkPath: path, Contents: []byte(body)}, record(store.ShortcutURL, path, target)
}

func desktopEntry(name, target, linkPath string) (Effect, store.ShortcutRecord) {
	path := withExt(linkPath, ".desktop")
	body := fmt.Sprintf("[Desktop Entry]\nType=Link\nName=%s\nURL=file://%s\n", name, absSlash(target))
	return Effect{LinkPath: path, Contents: []byte(body)}, record(store.ShortcutDesktop, path, target)
}

func record(t store.ShortcutType, linkPath, target string) store.ShortcutRecord {
	return store.ShortcutRecord{ShortcutPath: linkPath, TargetPath: target, ShortcutType: t}
}

func withExt(linkPath, ext string) string {
	base := linkPath[:len(linkPath)-len(filepath.Ext(linkPath))]
	return base + ext
}

func absSlash(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return filepath.ToSlash(abs)
}

// AttemptSymlink is the default attemptSymlink implementation used in
// non-dry-run executions.
func AttemptSymlink(target, linkPath string) error {
	_ = os.Remove(linkPath)
	return os.Symlink(target, linkPath)
}
