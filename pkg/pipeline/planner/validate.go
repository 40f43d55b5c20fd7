// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package planner

import (
	"strings"

	"github.com/haldorsen/archivist/internal/store"
)

// resolvedAssignment is one validated, ready-to-persist assignment.
type resolvedAssignment struct {
	documentID int64
	name       *string
	path       *string
	tags       []string
	reasoning  string
}

// validatedPlan is the plan after referential validation, with
// synthetic directories folded in.
type validatedPlan struct {
	directories []directorySpec
	assignments []resolvedAssignment
}

// validate applies the planner's referential validation rules:
//  1. every planning-set item has exactly one assignment
//  2. every proposed_path resolves to a directory_structure entry, or
//     is auto-created under /_Uncategorized
//  3. every proposed_tag resolves to a taxonomy node, unknown tags
//     dropped with a warning
//  4. (checked by the caller against the 10% threshold)
//  5. proposed_name/proposed_path may both be null
func (p *Planner) validate(items []store.DocumentItem, plan decodedPlan) (validatedPlan, []int64, error) {
	byID := make(map[int64]store.DocumentItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	assignmentByDoc := make(map[int64]assignmentSpec, len(plan.FileAssignments))
	for _, a := range plan.FileAssignments {
		if _, ok := byID[a.DocumentID]; ok {
			assignmentByDoc[a.DocumentID] = a
		}
	}

	dirPaths := make(map[string]bool, len(plan.DirectoryStructure))
	for _, d := range plan.DirectoryStructure {
		dirPaths[d.Path] = true
	}
	tagNames := make(map[string]bool, len(plan.TagTaxonomy))
	for _, t := range plan.TagTaxonomy {
		tagNames[strings.ToLower(t.TagName)] = true
	}

	dirs := append([]directorySpec(nil), plan.DirectoryStructure...)
	syntheticAdded := false

	var unassigned []int64
	var resolved []resolvedAssignment

	for _, it := range items {
		a, ok := assignmentByDoc[it.ID]
		if !ok {
			unassigned = append(unassigned, it.ID)
			continue
		}

		var path *string
		if a.ProposedPath != nil {
			resolvedPath := *a.ProposedPath
			if !dirPaths[resolvedPath] {
				if !syntheticAdded {
					dirs = append(dirs, syntheticUncategorizedDir())
					dirPaths[uncategorizedPath] = true
					syntheticAdded = true
				}
				resolvedPath = uncategorizedPath
			}
			path = &resolvedPath
		}

		tags := make([]string, 0, len(a.ProposedTags))
		for _, t := range a.ProposedTags {
			lower := strings.ToLower(t)
			if tagNames[lower] {
				tags = append(tags, lower)
			} else {
				p.logger.Warn("planner.unknown_tag_dropped", "document_id", it.ID, "tag", t)
			}
		}

		resolved = append(resolved, resolvedAssignment{
			documentID: it.ID,
			name:       a.ProposedName,
			path:       path,
			tags:       tags,
			reasoning:  a.Reasoning,
		})
	}

	return validatedPlan{directories: dirs, assignments: resolved}, unassigned, nil
}

func syntheticUncategorizedDir() directorySpec {
	return directorySpec{
		Path: uncategorizedPath, FolderName: "_Uncategorized", ParentPath: "/",
		Depth: 1, Purpose: "files the planner could not otherwise classify",
	}
}
