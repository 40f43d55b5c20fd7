// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package duplicate implements the Duplicate Resolver: groups
// DocumentItems by content hash, elects a primary, and assigns a per-
// member action, with LLM arbitration for ambiguous groups.
package duplicate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/haldorsen/archivist/internal/llm"
	"github.com/haldorsen/archivist/internal/store"
)

// Resolver groups and resolves duplicates for one job.
type Resolver struct {
	store        *store.Store
	local        *llm.LocalClient
	logger       *slog.Logger
	allowDeletes bool
}

// New builds a Resolver.
func New(st *store.Store, local *llm.LocalClient, logger *slog.Logger, allowDeletes bool) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, local: local, logger: logger, allowDeletes: allowDeletes}
}

// Result summarizes one resolution run.
type Result struct {
	GroupsResolved int
	ShortcutsMade  int
}

// Run groups this job's DocumentItems by content_hash and resolves every
// group with file_count >= 2.
func (r *Resolver) Run(ctx context.Context, jobID string) (Result, error) {
	items, err := r.store.ListDocumentItems(ctx, jobID)
	if err != nil {
		return Result{}, err
	}

	groups := groupByHash(items)

	var result Result
	for hash, members := range groups {
		if len(members) < 2 {
			continue
		}
		if err := r.resolveGroup(ctx, jobID, hash, members); err != nil {
			r.logger.Warn("duplicate.resolve_group_error", "hash", hash, "err", err)
			continue
		}
		result.GroupsResolved++
		result.ShortcutsMade += len(members) - 1
	}
	return result, nil
}

func groupByHash(items []store.DocumentItem) map[string][]store.DocumentItem {
	groups := make(map[string][]store.DocumentItem)
	for _, it := range items {
		if it.ContentHash == "" || it.Status == store.DocError {
			continue
		}
		groups[it.ContentHash] = append(groups[it.ContentHash], it)
	}
	return groups
}

func (r *Resolver) resolveGroup(ctx context.Context, jobID, hash string, members []store.DocumentItem) error {
	if needsArbitration(members) && r.local != nil {
		if primary, actions, reasoning, err := r.arbitrate(ctx, members); err == nil {
			return r.persist(ctx, jobID, hash, members, primary, actions, reasoning, store.DecidedLLM)
		}
		r.logger.Warn("duplicate.arbitration_fallback", "hash", hash)
	}

	primary := electDefaultPrimary(members)
	actions := make(map[int64]store.DuplicateAction, len(members))
	for _, m := range members {
		if m.ID == primary.ID {
			actions[m.ID] = store.ActionKeepPrimary
		} else {
			actions[m.ID] = store.ActionShortcut
		}
	}
	return r.persist(ctx, jobID, hash, members, primary, actions, "shortest path, tie-break by mtime then path", store.DecidedAuto)
}

// needsArbitration decides when a group is ambiguous enough to warrant
// LLM arbitration: ≥3 members, or members span ≥2 distinct top-level
// directories, or any sibling looks like a backup path.
func needsArbitration(members []store.DocumentItem) bool {
	if len(members) >= 3 {
		return true
	}
	topDirs := make(map[string]bool)
	for _, m := range members {
		topDirs[topLevelSegment(m.CurrentPath)] = true
		if looksLikeBackup(m.CurrentPath) {
			return true
		}
	}
	return len(topDirs) >= 2
}

func topLevelSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}

func looksLikeBackup(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		lower := strings.ToLower(seg)
		if lower == "backup" || lower == "old" || lower == "archive" {
			return true
		}
	}
	return false
}

// electDefaultPrimary applies the default auto rule: shortest path;
// ties by earliest mtime, then lexicographically smallest path.
func electDefaultPrimary(members []store.DocumentItem) store.DocumentItem {
	sorted := append([]store.DocumentItem(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if len(a.CurrentPath) != len(b.CurrentPath) {
			return len(a.CurrentPath) < len(b.CurrentPath)
		}
		if !a.SourceMTime.Equal(b.SourceMTime) {
			return a.SourceMTime.Before(b.SourceMTime)
		}
		return a.CurrentPath < b.CurrentPath
	})
	return sorted[0]
}

func (r *Resolver) persist(ctx context.Context, jobID, hash string, members []store.DocumentItem, primary store.DocumentItem, actions map[int64]store.DuplicateAction, reasoning string, decidedBy store.DecidedBy) error {
	var total int64
	for _, m := range members {
		total += m.FileSize
	}

	group := store.DuplicateGroup{
		ContentHash:       hash,
		FileCount:         len(members),
		TotalSize:         total,
		PrimaryDocID:      primary.ID,
		DecisionReasoning: reasoning,
		DecidedBy:         decidedBy,
	}

	rows := make([]store.DuplicateMember, 0, len(members))
	for _, m := range members {
		action := actions[m.ID]
		if action == store.ActionDelete && !r.allowDeletes {
			action = store.ActionShortcut
		}
		rows = append(rows, store.DuplicateMember{
			DocumentID:      m.ID,
			IsPrimary:       m.ID == primary.ID,
			Action:          action,
			ActionReasoning: reasoning,
		})
	}

	_, err := r.store.PersistDuplicateGroup(ctx, jobID, group, rows)
	return err
}

// arbitration is the LLM's parsed arbitration decision.
type arbitration struct {
	PrimaryIndex int      `json:"primary_index"`
	Actions      []string `json:"actions"`
	Reasoning    string   `json:"reasoning"`
}

func (r *Resolver) arbitrate(ctx context.Context, members []store.DocumentItem) (primary store.DocumentItem, actions map[int64]store.DuplicateAction, reasoning string, err error) {
	prompt := arbitrationPrompt(members)
	raw, err := r.local.Summarize(ctx, prompt, llm.SummarizeOptions{Temperature: 0.1})
	if err != nil {
		return store.DocumentItem{}, nil, "", err
	}

	var parsed arbitration
	if err := llm.ExtractJSON(raw, &parsed); err != nil {
		return store.DocumentItem{}, nil, "", err
	}
	if parsed.PrimaryIndex < 0 || parsed.PrimaryIndex >= len(members) || len(parsed.Actions) != len(members) {
		return store.DocumentItem{}, nil, "", fmt.Errorf("duplicate.arbitrate: malformed arbitration response")
	}

	actions = make(map[int64]store.DuplicateAction, len(members))
	for i, m := range members {
		if i == parsed.PrimaryIndex {
			actions[m.ID] = store.ActionKeepPrimary
			continue
		}
		switch parsed.Actions[i] {
		case "keep_both":
			actions[m.ID] = store.ActionKeepBoth
		case "delete":
			actions[m.ID] = store.ActionDelete
		default:
			actions[m.ID] = store.ActionShortcut
		}
	}
	return members[parsed.PrimaryIndex], actions, parsed.Reasoning, nil
}

func arbitrationPrompt(members []store.DocumentItem) string {
	var sb strings.Builder
	sb.WriteString("Several files are byte-identical duplicates. Choose a primary and an action (shortcut, keep_both, delete) for every other file.\n")
	sb.WriteString(`Respond as JSON: {"primary_index": <int>, "actions": ["shortcut"|"keep_both"|"delete", ...], "reasoning": "<why>"}` + "\n\n")
	for i, m := range members {
		sb.WriteString(fmt.Sprintf("[%d] path=%s mtime=%s summary=%s\n", i, m.CurrentPath, m.SourceMTime.Format("2006-01-02"), m.ContentSummary))
	}
	return sb.String()
}
