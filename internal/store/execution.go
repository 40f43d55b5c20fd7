// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "context"

// InsertShortcutRecord appends a ShortcutRecord; append-only within a
// job.
func (s *Store) InsertShortcutRecord(ctx context.Context, jobID string, r ShortcutRecord) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO shortcut_records (job_id, document_id, shortcut_path, target_path, shortcut_type, original_path, original_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		jobID, r.DocumentID, r.ShortcutPath, r.TargetPath, r.ShortcutType, r.OriginalPath, r.OriginalHash)
	if err != nil {
		return storeErr("store.insert_shortcut_record", err)
	}
	return nil
}

// ShortcutRecordsForJob returns every shortcut for a job.
func (s *Store) ShortcutRecordsForJob(ctx context.Context, jobID string) ([]ShortcutRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, job_id, document_id, shortcut_path, target_path, shortcut_type, original_path, original_hash
		FROM shortcut_records WHERE job_id = $1 ORDER BY id`, jobID)
	if err != nil {
		return nil, storeErr("store.shortcut_records_for_job", err)
	}
	defer rows.Close()

	var out []ShortcutRecord
	for rows.Next() {
		var r ShortcutRecord
		if err := rows.Scan(&r.ID, &r.JobID, &r.DocumentID, &r.ShortcutPath, &r.TargetPath,
			&r.ShortcutType, &r.OriginalPath, &r.OriginalHash); err != nil {
			return nil, storeErr("store.scan_shortcut_record", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendExecutionLog appends one ExecutionLogEntry; append-only.
func (s *Store) AppendExecutionLog(ctx context.Context, jobID string, e ExecutionLogEntry) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO execution_log_entries (job_id, operation, source_path, target_path, document_id, success, error_message, duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		jobID, e.Operation, e.SourcePath, e.TargetPath, nullableDocID(e.DocumentID), e.Success, e.ErrorMessage, e.DurationMS)
	if err != nil {
		return storeErr("store.append_execution_log", err)
	}
	return nil
}

func nullableDocID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// ExecutionLogForJob returns the full append-only log for a job, ordered
// by executed_at, for manifest generation.
func (s *Store) ExecutionLogForJob(ctx context.Context, jobID string) ([]ExecutionLogEntry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, job_id, operation, source_path, target_path, COALESCE(document_id, 0),
		       success, error_message, duration_ms, executed_at
		FROM execution_log_entries WHERE job_id = $1 ORDER BY executed_at, id`, jobID)
	if err != nil {
		return nil, storeErr("store.execution_log_for_job", err)
	}
	defer rows.Close()

	var out []ExecutionLogEntry
	for rows.Next() {
		var e ExecutionLogEntry
		if err := rows.Scan(&e.ID, &e.JobID, &e.Operation, &e.SourcePath, &e.TargetPath,
			&e.DocumentID, &e.Success, &e.ErrorMessage, &e.DurationMS, &e.ExecutedAt); err != nil {
			return nil, storeErr("store.scan_execution_log", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
