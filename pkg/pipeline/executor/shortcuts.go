// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/haldorsen/archivist/internal/store"
	"github.com/haldorsen/archivist/pkg/pipeline/manifest"
	"github.com/haldorsen/archivist/pkg/pipeline/shortcut"
)

// createShortcuts writes one shortcut per DuplicateMember with
// action=shortcut, pointing at its group's primary.
func (e *Executor) createShortcuts(ctx context.Context, jobID string, groups []store.DuplicateGroup, itemsByID map[int64]store.DocumentItem) ([]manifest.Operation, []manifest.ShortcutEntry) {
	var ops []manifest.Operation
	var entries []manifest.ShortcutEntry

	for _, g := range groups {
		primary, ok := itemsByID[g.PrimaryDocID]
		if !ok {
			continue
		}
		members, err := e.store.DuplicateMembersForGroup(ctx, g.ID)
		if err != nil {
			e.logger.Warn("executor.duplicate_members_error", "group_id", g.ID, "err", err)
			continue
		}
		primaryTarget := filepath.Join(e.workingRoot, targetPathFor(primary))

		for _, m := range members {
			if m.Action != store.ActionShortcut {
				continue
			}
			dup, ok := itemsByID[m.DocumentID]
			if !ok {
				continue
			}
			linkPath := filepath.Join(e.workingRoot, dup.CurrentPath)
			op := manifest.Operation{Type: store.OpCreateShortcut, Source: primary.CurrentPath, Target: dup.CurrentPath, DocumentID: dup.ID, Timestamp: executedAt()}

			if e.dryRun {
				op.Success = true
				ops = append(ops, op)
				continue
			}

			eff, rec := shortcut.Plan(store.ShortcutSymlink, dup.CurrentName, primaryTarget, linkPath, shortcut.AttemptSymlink)
			if err := materializeShortcut(eff); err != nil {
				op.Success = false
				op.Error = err.Error()
			} else {
				op.Success = true
				op.Target = eff.LinkPath
				rec.DocumentID = dup.ID
				rec.OriginalPath = dup.CurrentPath
				if err := e.store.InsertShortcutRecord(ctx, jobID, rec); err != nil {
					e.logger.Warn("executor.insert_shortcut_record_error", "document_id", dup.ID, "err", err)
				}
				entries = append(entries, manifest.ShortcutEntry{
					ShortcutPath: rec.ShortcutPath, TargetPath: rec.TargetPath,
					OriginalPath: rec.OriginalPath, ShortcutType: rec.ShortcutType,
					CreatedAt: time.Now().UTC(),
				})
			}
			e.logOp(ctx, jobID, op)
			ops = append(ops, op)
		}
	}
	return ops, entries
}

func materializeShortcut(eff shortcut.Effect) error {
	if eff.Symlink {
		return nil // shortcut.AttemptSymlink already created the link
	}
	return writeShortcutFile(eff.LinkPath, eff.Contents)
}

func writeShortcutFile(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0o644)
}
