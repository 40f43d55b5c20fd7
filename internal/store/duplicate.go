// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "context"

// PersistDuplicateGroup writes group and its members atomically in a
// single transaction. Uses the sqlx handle: one group's write is small
// and transaction-local, a good fit for sqlx's synchronous exec style
// alongside the pool's higher-concurrency paths.
func (s *Store) PersistDuplicateGroup(ctx context.Context, jobID string, group DuplicateGroup, members []DuplicateMember) (int64, error) {
	tx, err := s.sqlxDB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storeErr("store.persist_duplicate_group.begin", err)
	}
	defer tx.Rollback()

	var groupID int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO duplicate_groups (job_id, content_hash, file_count, total_size, primary_doc_id, decision_reasoning, decided_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (job_id, content_hash) DO UPDATE SET
			file_count = EXCLUDED.file_count, total_size = EXCLUDED.total_size,
			primary_doc_id = EXCLUDED.primary_doc_id,
			decision_reasoning = EXCLUDED.decision_reasoning,
			decided_by = EXCLUDED.decided_by
		RETURNING id`,
		jobID, group.ContentHash, group.FileCount, group.TotalSize,
		group.PrimaryDocID, group.DecisionReasoning, group.DecidedBy,
	).Scan(&groupID)
	if err != nil {
		return 0, storeErr("store.persist_duplicate_group.insert_group", err)
	}

	for _, m := range members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO duplicate_members (group_id, document_id, is_primary, action, action_reasoning, shortcut_target_path)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (document_id) DO UPDATE SET
				group_id = EXCLUDED.group_id, is_primary = EXCLUDED.is_primary,
				action = EXCLUDED.action, action_reasoning = EXCLUDED.action_reasoning,
				shortcut_target_path = EXCLUDED.shortcut_target_path`,
			groupID, m.DocumentID, m.IsPrimary, m.Action, m.ActionReasoning, m.ShortcutTargetPath)
		if err != nil {
			return 0, storeErr("store.persist_duplicate_group.insert_member", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("store.persist_duplicate_group.commit", err)
	}
	return groupID, nil
}

// DuplicateGroupsForJob returns every group for a job (used by the
// Version Resolver to skip shortcutted documents and by the Executor
// to create shortcuts).
func (s *Store) DuplicateGroupsForJob(ctx context.Context, jobID string) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	err := s.sqlxDB.SelectContext(ctx, &groups, `
		SELECT id, job_id, content_hash, file_count, total_size, primary_doc_id,
		       decision_reasoning, decided_by
		FROM duplicate_groups WHERE job_id = $1 ORDER BY id`, jobID)
	if err != nil {
		return nil, storeErr("store.duplicate_groups_for_job", err)
	}
	return groups, nil
}

// DuplicateMembersForGroup returns a group's members ordered by id.
func (s *Store) DuplicateMembersForGroup(ctx context.Context, groupID int64) ([]DuplicateMember, error) {
	var members []DuplicateMember
	err := s.sqlxDB.SelectContext(ctx, &members, `
		SELECT id, group_id, document_id, is_primary, action, action_reasoning, shortcut_target_path
		FROM duplicate_members WHERE group_id = $1 ORDER BY id`, groupID)
	if err != nil {
		return nil, storeErr("store.duplicate_members_for_group", err)
	}
	return members, nil
}
