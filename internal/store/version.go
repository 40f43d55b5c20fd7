// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "context"

// PersistVersionChain writes chain and its members atomically.
func (s *Store) PersistVersionChain(ctx context.Context, jobID string, chain VersionChain, members []VersionChainMember) (int64, error) {
	tx, err := s.sqlxDB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storeErr("store.persist_version_chain.begin", err)
	}
	defer tx.Rollback()

	var chainID int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO version_chains (
			job_id, chain_name, base_path, current_doc_id, current_version_number,
			detection_method, detection_confidence, llm_reasoning,
			version_order_confirmed, archive_strategy, archive_path
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		jobID, chain.ChainName, chain.BasePath, chain.CurrentDocID, chain.CurrentVersionNumber,
		chain.DetectionMethod, chain.DetectionConfidence, chain.LLMReasoning,
		chain.VersionOrderConfirmed, chain.ArchiveStrategy, chain.ArchivePath,
	).Scan(&chainID)
	if err != nil {
		return 0, storeErr("store.persist_version_chain.insert_chain", err)
	}

	for _, m := range members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO version_chain_members (
				chain_id, document_id, version_number, version_label, version_date,
				is_current, status, proposed_version_name, proposed_version_path
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			chainID, m.DocumentID, m.VersionNumber, m.VersionLabel, m.VersionDate,
			m.IsCurrent, m.Status, m.ProposedVersionName, m.ProposedVersionPath)
		if err != nil {
			return 0, storeErr("store.persist_version_chain.insert_member", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("store.persist_version_chain.commit", err)
	}
	return chainID, nil
}

// VersionChainsForJob returns every chain for a job.
func (s *Store) VersionChainsForJob(ctx context.Context, jobID string) ([]VersionChain, error) {
	var chains []VersionChain
	err := s.sqlxDB.SelectContext(ctx, &chains, `
		SELECT id, job_id, chain_name, base_path, current_doc_id, current_version_number,
		       detection_method, detection_confidence, llm_reasoning,
		       version_order_confirmed, archive_strategy, archive_path
		FROM version_chains WHERE job_id = $1 ORDER BY id`, jobID)
	if err != nil {
		return nil, storeErr("store.version_chains_for_job", err)
	}
	return chains, nil
}

// VersionChainMembersForChain returns a chain's members ordered by
// version number.
func (s *Store) VersionChainMembersForChain(ctx context.Context, chainID int64) ([]VersionChainMember, error) {
	var members []VersionChainMember
	err := s.sqlxDB.SelectContext(ctx, &members, `
		SELECT id, chain_id, document_id, version_number, version_label, version_date,
		       is_current, status, proposed_version_name, proposed_version_path
		FROM version_chain_members WHERE chain_id = $1 ORDER BY version_number`, chainID)
	if err != nil {
		return nil, storeErr("store.version_chain_members_for_chain", err)
	}
	return members, nil
}
