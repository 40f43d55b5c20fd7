// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// PersistPlan persists an Organization Planner output in a single
// transaction: clear prior rows for this job's planning batch, write
// naming schemas, taxonomy (parents before children), directories
// (shallowest first).
// DocumentItem.proposed_* updates happen separately via
// UpdateProposedFields once referential validation has already run.
func (s *Store) PersistPlan(ctx context.Context, jobID, batchID string, schemas []NamingSchema, taxonomy []TagTaxonomy, dirs []DirectoryStructure) error {
	ordered, err := topologicalSortTaxonomy(taxonomy)
	if err != nil {
		return pipelineerr.New(pipelineerr.KindValidation, "store.persist_plan.taxonomy_cycle", err)
	}
	sortedDirs := append([]DirectoryStructure(nil), dirs...)
	sort.SliceStable(sortedDirs, func(i, j int) bool { return sortedDirs[i].Depth < sortedDirs[j].Depth })

	tx, err := s.sqlxDB.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("store.persist_plan.begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM naming_schemas WHERE job_id = $1 AND planning_batch_id = $2`, jobID, batchID); err != nil {
		return storeErr("store.persist_plan.clear_schemas", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tag_taxonomy WHERE job_id = $1 AND planning_batch_id = $2`, jobID, batchID); err != nil {
		return storeErr("store.persist_plan.clear_taxonomy", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM directory_structure WHERE job_id = $1 AND planning_batch_id = $2`, jobID, batchID); err != nil {
		return storeErr("store.persist_plan.clear_dirs", err)
	}

	for _, sc := range schemas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO naming_schemas (job_id, planning_batch_id, document_type, naming_pattern, example, description, placeholder_definitions, schema_version)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			jobID, batchID, sc.DocumentType, sc.NamingPattern, sc.Example, sc.Description, sc.PlaceholderDefinitions, sc.SchemaVersion); err != nil {
			return storeErr("store.persist_plan.insert_schema", err)
		}
	}

	for _, t := range ordered {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tag_taxonomy (job_id, planning_batch_id, tag_name, parent_tag_name, description, usage_count)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			jobID, batchID, t.TagName, t.ParentTagName, t.Description, t.UsageCount); err != nil {
			return storeErr("store.persist_plan.insert_tag", err)
		}
	}

	for _, d := range sortedDirs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO directory_structure (job_id, planning_batch_id, path, folder_name, parent_path, depth, purpose, expected_tags, expected_document_types)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			jobID, batchID, d.Path, d.FolderName, d.ParentPath, d.Depth, d.Purpose, d.ExpectedTags, d.ExpectedDocumentTypes); err != nil {
			return storeErr("store.persist_plan.insert_dir", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("store.persist_plan.commit", err)
	}
	return nil
}

// topologicalSortTaxonomy orders nodes so every parent is inserted before
// its children, forbidding cycles at write time. A node whose declared
// parent is absent from the batch is treated as a root.
func topologicalSortTaxonomy(nodes []TagTaxonomy) ([]TagTaxonomy, error) {
	byName := make(map[string]TagTaxonomy, len(nodes))
	for _, n := range nodes {
		byName[n.TagName] = n
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int, len(nodes))
	var ordered []TagTaxonomy

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("cycle detected at tag %q", name)
		}
		state[name] = visiting
		n, ok := byName[name]
		if !ok {
			return nil
		}
		if n.ParentTagName != nil {
			if _, exists := byName[*n.ParentTagName]; exists {
				if err := visit(*n.ParentTagName); err != nil {
					return err
				}
			}
		}
		state[name] = visited
		ordered = append(ordered, n)
		return nil
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.TagName)
	}
	sort.Strings(names) // deterministic traversal order
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// DirectoryStructureForJob returns every planned directory for the
// current planning batch (used by the Executor).
func (s *Store) DirectoryStructureForJob(ctx context.Context, jobID, batchID string) ([]DirectoryStructure, error) {
	var dirs []DirectoryStructure
	err := s.sqlxDB.SelectContext(ctx, &dirs, `
		SELECT id, job_id, planning_batch_id, path, folder_name, parent_path, depth,
		       purpose, expected_tags, expected_document_types
		FROM directory_structure WHERE job_id = $1 AND planning_batch_id = $2 ORDER BY depth`, jobID, batchID)
	if err != nil {
		return nil, storeErr("store.directory_structure_for_job", err)
	}
	return dirs, nil
}

// TagTaxonomyForJob returns every taxonomy node for the current batch.
func (s *Store) TagTaxonomyForJob(ctx context.Context, jobID, batchID string) ([]TagTaxonomy, error) {
	var tags []TagTaxonomy
	err := s.sqlxDB.SelectContext(ctx, &tags, `
		SELECT id, job_id, planning_batch_id, tag_name, parent_tag_name, description, usage_count
		FROM tag_taxonomy WHERE job_id = $1 AND planning_batch_id = $2`, jobID, batchID)
	if err != nil {
		return nil, storeErr("store.tag_taxonomy_for_job", err)
	}
	return tags, nil
}
