// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/store"
	"github.com/haldorsen/archivist/pkg/pipeline/manifest"
)

// archiveVersions copies each VersionChain's superseded members to
// archive_path, ensures the current member is at its main location, and
// writes a chain manifest.
func (e *Executor) archiveVersions(ctx context.Context, jobID string, chains []store.VersionChain, itemsByID map[int64]store.DocumentItem) []manifest.Operation {
	var ops []manifest.Operation

	for _, chain := range chains {
		members, err := e.store.VersionChainMembersForChain(ctx, chain.ID)
		if err != nil {
			e.logger.Warn("executor.version_chain_members_error", "chain_id", chain.ID, "err", err)
			continue
		}

		var entries []manifest.VersionEntry
		for _, m := range members {
			doc, ok := itemsByID[m.DocumentID]
			if !ok {
				continue
			}
			var target string
			if m.IsCurrent {
				target = targetPathFor(doc)
			} else {
				target = filepath.ToSlash(filepath.Join(chain.ArchivePath, m.ProposedVersionName))
			}

			op := manifest.Operation{Type: store.OpArchiveVersion, Source: doc.CurrentPath, Target: target, DocumentID: doc.ID, Timestamp: executedAt()}
			if e.dryRun {
				op.Success = true
			} else {
				src := filepath.Join(e.sourceRoot, doc.CurrentPath)
				dst := filepath.Join(e.workingRoot, target)
				if err := copyPreservingMetadata(src, dst); err != nil {
					op.Success = false
					op.Error = err.Error()
				} else {
					op.Success = true
				}
			}
			e.logOp(ctx, jobID, op)
			ops = append(ops, op)

			entries = append(entries, manifest.VersionEntry{
				Version: m.VersionNumber, File: target, Status: m.Status,
				Date: formatVersionDate(m),
			})
		}

		if e.dryRun {
			continue
		}
		chainManifest := manifest.Chain{
			DocumentName: chain.ChainName, CurrentVersion: chain.CurrentVersionNumber,
			CurrentFile: targetPathFor(itemsByID[chain.CurrentDocID]),
			ArchivePath: chain.ArchivePath, ArchiveStrategy: chain.ArchiveStrategy,
			Versions: entries, GeneratedAt: executedAt(),
		}
		if _, err := manifest.WriteChainManifest(filepath.Join(e.workingRoot, chain.ArchivePath), chain.ChainName, chainManifest); err != nil {
			e.logger.Warn("executor.write_chain_manifest_error", "chain_id", chain.ID, "err", err)
		}
	}
	return ops
}

func formatVersionDate(m store.VersionChainMember) string {
	if m.VersionDate != nil {
		return m.VersionDate.Format("2006-01-02")
	}
	return ""
}

// Rollback idempotently discards the working tree and resets this job's
// planning-set items back to organized status.
func (e *Executor) Rollback(ctx context.Context, jobID string) error {
	if err := os.RemoveAll(e.workingRoot); err != nil {
		return pipelineerr.New(pipelineerr.KindIO, "executor.rollback.clear_working_tree", err)
	}

	items, err := e.store.ListDocumentItems(ctx, jobID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.Status != store.DocApplied && it.Status != store.DocApplying {
			continue
		}
		if err := e.store.UpdateFinalFields(ctx, it.ID, nil, nil, store.DocOrganized); err != nil {
			return fmt.Errorf("executor.rollback: reset document %d: %w", it.ID, err)
		}
	}
	return nil
}
