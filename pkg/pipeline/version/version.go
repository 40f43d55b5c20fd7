// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package version implements the Version Resolver: detects
// version-chain members via explicit filename markers and name
// similarity, confirms ambiguous chains with the local LLM, orders
// members, and selects a current version.
package version

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/haldorsen/archivist/internal/llm"
	"github.com/haldorsen/archivist/internal/store"
)

// Resolver detects and persists version chains for one job.
type Resolver struct {
	store               *store.Store
	local               *llm.LocalClient
	logger              *slog.Logger
	similarityThreshold float64
	archiveStrategy     store.ArchiveStrategy
	versionsFolderName  string
}

// New builds a Resolver.
func New(st *store.Store, local *llm.LocalClient, logger *slog.Logger, similarityThreshold float64, archiveStrategy store.ArchiveStrategy, versionsFolderName string) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if similarityThreshold <= 0 {
		similarityThreshold = 0.7
	}
	if versionsFolderName == "" {
		versionsFolderName = "_versions"
	}
	return &Resolver{
		store: st, local: local, logger: logger,
		similarityThreshold: similarityThreshold,
		archiveStrategy:     archiveStrategy,
		versionsFolderName:  versionsFolderName,
	}
}

// Result summarizes one resolution run.
type Result struct {
	ChainsFound int
}

// Run detects version chains among jobID's non-shortcut DocumentItems.
func (r *Resolver) Run(ctx context.Context, jobID string) (Result, error) {
	items, err := r.store.ListDocumentItems(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	groups, err := r.store.DuplicateGroupsForJob(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	shortcutted, err := shortcuttedDocIDs(ctx, r.store, groups)
	if err != nil {
		return Result{}, err
	}

	eligible := make([]store.DocumentItem, 0, len(items))
	for _, it := range items {
		if it.Status == store.DocError || it.IsDeleted || shortcutted[it.ID] {
			continue
		}
		eligible = append(eligible, it)
	}

	candidates := explicitCandidates(eligible)
	usedIDs := markUsed(candidates)
	remaining := filterOut(eligible, usedIDs)
	candidates = append(candidates, similarityCandidates(remaining, r.similarityThreshold)...)

	var result Result
	for _, cand := range candidates {
		chain, members, ok := r.confirm(ctx, cand)
		if !ok {
			continue
		}
		if err := r.persist(ctx, jobID, chain, members); err != nil {
			r.logger.Warn("version.persist_error", "base", cand.baseName, "err", err)
			continue
		}
		result.ChainsFound++
	}
	return result, nil
}

func shortcuttedDocIDs(ctx context.Context, st *store.Store, groups []store.DuplicateGroup) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, g := range groups {
		members, err := st.DuplicateMembersForGroup(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.Action == store.ActionShortcut {
				out[m.DocumentID] = true
			}
		}
	}
	return out, nil
}

// candidate is an unconfirmed group of related DocumentItems sharing a
// base name, directory, and extension.
type candidate struct {
	baseName        string
	directory       string
	extension       string
	members         []store.DocumentItem
	markerOrder     map[int64]int // DocumentItem.ID -> explicit ordinal, when known
	markersDisagree bool
	method          store.DetectionMethod
}

func filterOut(items []store.DocumentItem, used map[int64]bool) []store.DocumentItem {
	out := make([]store.DocumentItem, 0, len(items))
	for _, it := range items {
		if !used[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

func markUsed(cands []candidate) map[int64]bool {
	used := make(map[int64]bool)
	for _, c := range cands {
		for _, m := range c.members {
			used[m.ID] = true
		}
	}
	return used
}

func dirAndExt(p string) (dir, ext string) {
	dir = path.Dir(p)
	ext = strings.ToLower(path.Ext(p))
	return
}

// explicitCandidates groups files sharing an explicit version marker
// (same base name, directory, and extension) into candidate chains.
func explicitCandidates(items []store.DocumentItem) []candidate {
	type key struct{ base, dir, ext string }
	groups := make(map[key][]store.DocumentItem)
	orders := make(map[key]map[int64]int)
	disagree := make(map[key]bool)

	for _, it := range items {
		base, kind, ordinal, ok := stripMarker(it.CurrentName)
		if !ok {
			continue
		}
		dir, ext := dirAndExt(it.CurrentPath)
		k := key{base, dir, ext}
		groups[k] = append(groups[k], it)
		if orders[k] == nil {
			orders[k] = make(map[int64]int)
		}
		orders[k][it.ID] = ordinal
		_ = kind
	}

	var out []candidate
	for k, members := range groups {
		if len(members) < 2 {
			continue
		}
		ords := orders[k]
		seen := make(map[int]bool)
		var disagreement bool
		for _, ord := range ords {
			if seen[ord] {
				disagreement = true
			}
			seen[ord] = true
		}
		out = append(out, candidate{
			baseName: k.base, directory: k.dir, extension: k.ext,
			members: members, markerOrder: ords, markersDisagree: disagreement,
			method: store.DetectionExplicitMarker,
		})
		disagree[k] = disagreement
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].directory != out[j].directory {
			return out[i].directory < out[j].directory
		}
		return out[i].baseName < out[j].baseName
	})
	return out
}

// similarityCandidates groups files by pairwise normalized edit-distance
// similarity among same directory+extension files, unioned at the
// configured threshold, excluding same-content pairs.
func similarityCandidates(items []store.DocumentItem, threshold float64) []candidate {
	type key struct{ dir, ext string }
	buckets := make(map[key][]store.DocumentItem)
	for _, it := range items {
		dir, ext := dirAndExt(it.CurrentPath)
		k := key{dir, ext}
		buckets[k] = append(buckets[k], it)
	}

	var out []candidate
	for k, bucket := range buckets {
		uf := newUnionFind(len(bucket))
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				if bucket[i].ContentHash != "" && bucket[i].ContentHash == bucket[j].ContentHash {
					continue
				}
				if similarity(bucket[i].CurrentName, bucket[j].CurrentName) >= threshold {
					uf.union(i, j)
				}
			}
		}
		components := uf.components()
		for _, idxs := range components {
			if len(idxs) < 2 {
				continue
			}
			members := make([]store.DocumentItem, 0, len(idxs))
			for _, idx := range idxs {
				members = append(members, bucket[idx])
			}
			out = append(out, candidate{
				baseName: commonBaseName(members), directory: k.dir, extension: k.ext,
				members: members, method: store.DetectionNameSimilarity,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].directory != out[j].directory {
			return out[i].directory < out[j].directory
		}
		return out[i].baseName < out[j].baseName
	})
	return out
}

func commonBaseName(members []store.DocumentItem) string {
	if len(members) == 0 {
		return ""
	}
	shortest := members[0].CurrentName
	for _, m := range members[1:] {
		if len(m.CurrentName) < len(shortest) {
			shortest = m.CurrentName
		}
	}
	return strings.TrimSuffix(shortest, path.Ext(shortest))
}

// confirm decides whether a candidate becomes a VersionChain, calling
// the local LLM when similarity-detected or when explicit markers
// disagree on order.
func (r *Resolver) confirm(ctx context.Context, cand candidate) (store.VersionChain, []store.VersionChainMember, bool) {
	needsLLM := cand.method == store.DetectionNameSimilarity || cand.markersDisagree

	var order []int // indices into cand.members, oldest->newest
	var currentIdx int
	var confidence float64
	var reasoning string

	if needsLLM && r.local != nil {
		idx, ord, reason, ok, err := r.llmConfirm(ctx, cand)
		if err != nil {
			r.logger.Warn("version.confirm_fallback", "base", cand.baseName, "err", err)
			order = defaultOrder(cand)
			currentIdx = order[len(order)-1]
			confidence = 0.5
		} else if !ok {
			return store.VersionChain{}, nil, false
		} else {
			order = ord
			currentIdx = idx
			confidence = 0.9
			reasoning = reason
		}
	} else {
		order = defaultOrder(cand)
		currentIdx = order[len(order)-1]
		confidence = 1.0
		if cand.method == store.DetectionExplicitMarker {
			reasoning = "explicit filename marker order"
		} else {
			reasoning = "mtime order"
		}
	}

	chain := store.VersionChain{
		ChainName:             cand.baseName,
		BasePath:              cand.directory,
		CurrentDocID:          cand.members[currentIdx].ID,
		CurrentVersionNumber:  len(order),
		DetectionMethod:       cand.method,
		DetectionConfidence:   confidence,
		LLMReasoning:          reasoning,
		VersionOrderConfirmed: needsLLM,
		ArchiveStrategy:       r.archiveStrategy,
		ArchivePath:           r.archivePathFor(cand),
	}

	members := make([]store.VersionChainMember, 0, len(order))
	for pos, idx := range order {
		m := cand.members[idx]
		versionNumber := pos + 1
		isCurrent := idx == currentIdx
		status := store.VersionSuperseded
		if isCurrent {
			status = store.VersionActive
		}
		name, p := r.archivedNameAndPath(cand, m, versionNumber, isCurrent)
		members = append(members, store.VersionChainMember{
			DocumentID:           m.ID,
			VersionNumber:        versionNumber,
			VersionLabel:         fmt.Sprintf("v%d", versionNumber),
			IsCurrent:            isCurrent,
			Status:               status,
			ProposedVersionName:  name,
			ProposedVersionPath:  p,
		})
	}
	return chain, members, true
}

func (r *Resolver) archivePathFor(cand candidate) string {
	switch r.archiveStrategy {
	case store.ArchiveSeparateArchive:
		return fmt.Sprintf("/Archive/Versions/%s", cand.baseName)
	case store.ArchiveSubfolder:
		return fmt.Sprintf("%s/%s/%s", cand.directory, r.versionsFolderName, cand.baseName)
	default: // inline
		return cand.directory
	}
}

func (r *Resolver) archivedNameAndPath(cand candidate, m store.DocumentItem, versionNumber int, isCurrent bool) (name, p string) {
	if isCurrent {
		return fmt.Sprintf("%s%s", cand.baseName, cand.extension), fmt.Sprintf("%s/%s%s", cand.directory, cand.baseName, cand.extension)
	}
	dateSuffix := m.SourceMTime.Format("2006-01-02")
	switch r.archiveStrategy {
	case store.ArchiveSubfolder:
		name = fmt.Sprintf("%s_v%d_%s%s", cand.baseName, versionNumber, dateSuffix, cand.extension)
		return name, fmt.Sprintf("%s/%s/%s/%s", cand.directory, r.versionsFolderName, cand.baseName, name)
	case store.ArchiveSeparateArchive:
		name = fmt.Sprintf("%s_v%d_%s%s", cand.baseName, versionNumber, dateSuffix, cand.extension)
		return name, fmt.Sprintf("/Archive/Versions/%s/%s", cand.baseName, name)
	default: // inline
		name = fmt.Sprintf("%s_v%d%s", cand.baseName, versionNumber, cand.extension)
		return name, fmt.Sprintf("%s/%s", cand.directory, name)
	}
}

// defaultOrder sorts members by their explicit marker ordinal (version
// number, date, or status rank) when both carry one and the ordinals
// differ, otherwise by source mtime ascending. Ordinals of different
// marker kinds are compared as plain integers; there is no separate
// numeric-before-date-before-status priority.
func defaultOrder(cand candidate) []int {
	idxs := make([]int, len(cand.members))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		ma, mb := cand.members[idxs[a]], cand.members[idxs[b]]
		oa, haveA := cand.markerOrder[ma.ID]
		ob, haveB := cand.markerOrder[mb.ID]
		if haveA && haveB && oa != ob {
			return oa < ob
		}
		return ma.SourceMTime.Before(mb.SourceMTime)
	})
	return idxs
}

func (r *Resolver) persist(ctx context.Context, jobID string, chain store.VersionChain, members []store.VersionChainMember) error {
	_, err := r.store.PersistVersionChain(ctx, jobID, chain, members)
	return err
}
