// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// UpsertDocumentItem creates or updates the DocumentItem identified by
// (job_id, file_id), satisfying the Indexer's idempotency requirement:
// re-running a job must not duplicate DocumentItems.
func (s *Store) UpsertDocumentItem(ctx context.Context, d DocumentItem) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO document_items (
			file_id, job_id, current_name, current_path, extension, file_size,
			mime, content_hash, source_mtime, content_summary, document_type,
			key_topics, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (job_id, file_id) DO UPDATE SET
			current_name = EXCLUDED.current_name,
			current_path = EXCLUDED.current_path,
			extension = EXCLUDED.extension,
			file_size = EXCLUDED.file_size,
			mime = EXCLUDED.mime,
			content_hash = EXCLUDED.content_hash,
			source_mtime = EXCLUDED.source_mtime,
			content_summary = EXCLUDED.content_summary,
			document_type = EXCLUDED.document_type,
			key_topics = EXCLUDED.key_topics,
			status = EXCLUDED.status
		RETURNING id`,
		d.FileID, d.JobID, d.CurrentName, d.CurrentPath, d.Extension, d.FileSize,
		d.MIME, d.ContentHash, d.SourceMTime, d.ContentSummary, d.DocumentType,
		d.KeyTopics, d.Status).Scan(&id)
	if err != nil {
		return 0, storeErr("store.upsert_document_item", err)
	}
	return id, nil
}

// MarkDocumentError records a per-file failure without halting the phase.
func (s *Store) MarkDocumentError(ctx context.Context, jobID, fileID, currentPath, errMsg string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO document_items (file_id, job_id, current_name, current_path, status)
		VALUES ($1, $2, $3, $3, $4)
		ON CONFLICT (job_id, file_id) DO UPDATE SET status = $4`,
		fileID, jobID, currentPath, DocError)
	if err != nil {
		return storeErr("store.mark_document_error", err)
	}
	return nil
}

// ListDocumentItems returns every DocumentItem for a job, ordered by id
// for deterministic iteration.
func (s *Store) ListDocumentItems(ctx context.Context, jobID string) ([]DocumentItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, file_id, job_id, current_name, current_path, extension,
		       file_size, mime, content_hash, source_mtime, content_summary,
		       document_type, key_topics, proposed_name, proposed_path,
		       proposed_tags, organization_reasoning, final_name, final_path,
		       status, changes_applied, is_deleted
		FROM document_items WHERE job_id = $1 ORDER BY id`, jobID)
	if err != nil {
		return nil, storeErr("store.list_document_items", err)
	}
	defer rows.Close()
	return scanDocumentItems(rows)
}

// PlanningSet returns the Organization Planner's eligible set: processed,
// not deleted, not a shortcut duplicate, not a superseded version member.
func (s *Store) PlanningSet(ctx context.Context, jobID string) ([]DocumentItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT d.id, d.file_id, d.job_id, d.current_name, d.current_path, d.extension,
		       d.file_size, d.mime, d.content_hash, d.source_mtime, d.content_summary,
		       d.document_type, d.key_topics, d.proposed_name, d.proposed_path,
		       d.proposed_tags, d.organization_reasoning, d.final_name, d.final_path,
		       d.status, d.changes_applied, d.is_deleted
		FROM document_items d
		WHERE d.job_id = $1
		  AND d.status = $2
		  AND d.is_deleted = false
		  AND NOT EXISTS (
		      SELECT 1 FROM duplicate_members dm
		      WHERE dm.document_id = d.id AND dm.action = $3
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM version_chain_members vcm
		      WHERE vcm.document_id = d.id AND vcm.status = $4
		  )
		ORDER BY d.id`,
		jobID, DocProcessed, ActionShortcut, VersionSuperseded)
	if err != nil {
		return nil, storeErr("store.planning_set", err)
	}
	defer rows.Close()
	return scanDocumentItems(rows)
}

func scanDocumentItems(rows pgx.Rows) ([]DocumentItem, error) {
	var out []DocumentItem
	for rows.Next() {
		var d DocumentItem
		if err := rows.Scan(&d.ID, &d.FileID, &d.JobID, &d.CurrentName, &d.CurrentPath,
			&d.Extension, &d.FileSize, &d.MIME, &d.ContentHash, &d.SourceMTime,
			&d.ContentSummary, &d.DocumentType, &d.KeyTopics, &d.ProposedName,
			&d.ProposedPath, &d.ProposedTags, &d.OrganizationReasoning, &d.FinalName,
			&d.FinalPath, &d.Status, &d.ChangesApplied, &d.IsDeleted); err != nil {
			return nil, storeErr("store.scan_document_item", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("store.scan_document_item", err)
	}
	return out, nil
}

// UpdateProposedFields writes the Organization Planner's per-item
// assignment.
func (s *Store) UpdateProposedFields(ctx context.Context, docID int64, name, path *string, tags []string, reasoning string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE document_items SET proposed_name = $1, proposed_path = $2,
		       proposed_tags = $3, organization_reasoning = $4, status = $5
		WHERE id = $6`,
		name, path, tags, reasoning, DocOrganized, docID)
	if err != nil {
		return storeErr("store.update_proposed_fields", err)
	}
	return nil
}

// UpdateFinalFields writes the Executor's per-item outcome.
func (s *Store) UpdateFinalFields(ctx context.Context, docID int64, name, path *string, status DocumentItemStatus) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE document_items SET final_name = $1, final_path = $2,
		       status = $3, changes_applied = true
		WHERE id = $4`, name, path, status, docID)
	if err != nil {
		return storeErr("store.update_final_fields", err)
	}
	return nil
}
