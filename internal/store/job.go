// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CreateJob inserts a new Job in JobPending status and returns its id.
func (s *Store) CreateJob(ctx context.Context, sourceArchivePath string) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO jobs (id, status, source_archive_path)
		VALUES ($1, $2, $3)`,
		id, JobPending, sourceArchivePath)
	if err != nil {
		return "", storeErr("store.create_job", err)
	}
	return id, nil
}

// GetJob fetches a Job by id.
func (s *Store) GetJob(ctx context.Context, id string) (Job, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, status, current_phase, progress, source_archive_path,
		       output_archive_path, files_processed, duplicates_found,
		       shortcuts_created, version_chains_found, files_renamed,
		       files_moved, created_at, started_at, completed_at, error_message
		FROM jobs WHERE id = $1`, id)

	var j Job
	err := row.Scan(&j.ID, &j.Status, &j.CurrentPhase, &j.Progress, &j.SourceArchivePath,
		&j.OutputArchivePath, &j.FilesProcessed, &j.DuplicatesFound,
		&j.ShortcutsCreated, &j.VersionChainsFound, &j.FilesRenamed,
		&j.FilesMoved, &j.CreatedAt, &j.StartedAt, &j.CompletedAt, &j.ErrorMessage)
	if err != nil {
		return Job{}, storeErr("store.get_job", err)
	}
	return j, nil
}

// TransitionPhase persists a Job's status/current_phase before the new
// phase begins.
func (s *Store) TransitionPhase(ctx context.Context, jobID string, status JobStatus, phase string) error {
	now := time.Now()
	var startedAtClause string
	args := []any{status, phase, jobID}
	if status == JobExtracting {
		startedAtClause = ", started_at = $4"
		args = append(args, now)
	}
	_, err := s.Pool.Exec(ctx, `
		UPDATE jobs SET status = $1, current_phase = $2`+startedAtClause+`
		WHERE id = $3`, args...)
	if err != nil {
		return storeErr("store.transition_phase", err)
	}
	return nil
}

// CompleteJob marks a Job terminal (completed/failed/cancelled).
func (s *Store) CompleteJob(ctx context.Context, jobID string, status JobStatus, errMsg string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE jobs SET status = $1, error_message = $2, completed_at = now()
		WHERE id = $3`, status, errMsg, jobID)
	if err != nil {
		return storeErr("store.complete_job", err)
	}
	return nil
}

// UpdateJobCounters updates the Job's reporting counters.
func (s *Store) UpdateJobCounters(ctx context.Context, jobID string, j Job) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE jobs SET files_processed = $1, duplicates_found = $2,
		       shortcuts_created = $3, version_chains_found = $4,
		       files_renamed = $5, files_moved = $6, progress = $7
		WHERE id = $8`,
		j.FilesProcessed, j.DuplicatesFound, j.ShortcutsCreated,
		j.VersionChainsFound, j.FilesRenamed, j.FilesMoved, j.Progress, jobID)
	if err != nil {
		return storeErr("store.update_job_counters", err)
	}
	return nil
}
