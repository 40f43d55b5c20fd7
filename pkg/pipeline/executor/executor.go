// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package executor implements the Executor: materializes a plan onto
// a working tree, never touching the source tree, and writes the
// execution manifest.
package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/store"
	"github.com/haldorsen/archivist/pkg/pipeline/manifest"
	"github.com/haldorsen/archivist/pkg/pipeline/shortcut"
)

// Executor materializes one job's plan onto its working tree.
type Executor struct {
	store      *store.Store
	logger     *slog.Logger
	sourceRoot string
	workingRoot string
	reportsDir string
	dryRun     bool
}

// New builds an Executor.
func New(st *store.Store, logger *slog.Logger, sourceRoot, workingRoot, reportsDir string, dryRun bool) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: st, logger: logger, sourceRoot: sourceRoot, workingRoot: workingRoot, reportsDir: reportsDir, dryRun: dryRun}
}

// Result summarizes one execution run.
type Result struct {
	ManifestPath string
	Statistics   manifest.Statistics
}

// Run executes every phase in order, tolerating per-operation failures
// (recorded in ExecutionLog and the manifest) and failing on a store
// read, plan validation, working-tree setup, or a manifest write error.
func (e *Executor) Run(ctx context.Context, jobID, batchID, sourceArchive string) (Result, error) {
	dirs, err := e.store.DirectoryStructureForJob(ctx, jobID, batchID)
	if err != nil {
		return Result{}, err
	}
	groups, err := e.store.DuplicateGroupsForJob(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	chains, err := e.store.VersionChainsForJob(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	allItems, err := e.store.ListDocumentItems(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	// Planned documents are those the Organization Planner moved to
	// organized (or further, when the executor runs again).
	var items []store.DocumentItem
	for _, it := range allItems {
		if it.Status.AtLeast(store.DocOrganized) && it.Status != store.DocSkipped {
			items = append(items, it)
		}
	}

	if err := e.validatePlan(items); err != nil {
		return Result{}, err
	}

	var ops []manifest.Operation
	var errs []string
	stats := manifest.Statistics{TotalFiles: len(items)}

	if !e.dryRun {
		if err := os.RemoveAll(e.workingRoot); err != nil {
			return Result{}, pipelineerr.New(pipelineerr.KindIO, "executor.clear_working_tree", err)
		}
		if err := os.MkdirAll(e.workingRoot, 0o755); err != nil {
			return Result{}, pipelineerr.New(pipelineerr.KindIO, "executor.create_working_tree", err)
		}
	}

	dirOps := e.createDirectories(ctx, jobID, dirs)
	ops = append(ops, dirOps...)
	stats.DirectoriesCreated = countSuccess(dirOps)

	fileOps, renamed, moved := e.processAssignments(ctx, jobID, items)
	ops = append(ops, fileOps...)
	stats.FilesCopied = countSuccess(fileOps)
	stats.FilesRenamed = renamed
	stats.FilesMoved = moved

	itemsByID := make(map[int64]store.DocumentItem, len(allItems))
	for _, it := range allItems {
		itemsByID[it.ID] = it
	}

	shortcutOps, shortcutEntries := e.createShortcuts(ctx, jobID, groups, itemsByID)
	ops = append(ops, shortcutOps...)
	stats.ShortcutsCreated = countSuccess(shortcutOps)

	versionOps := e.archiveVersions(ctx, jobID, chains, itemsByID)
	ops = append(ops, versionOps...)
	stats.VersionArchives = countSuccess(versionOps)

	for _, op := range ops {
		if !op.Success {
			errs = append(errs, fmt.Sprintf("%s: %s -> %s: %s", op.Type, op.Source, op.Target, op.Error))
		}
	}
	stats.Errors = len(errs)
	for _, it := range items {
		stats.TotalSizeBytes += it.FileSize
	}

	exec := manifest.Execution{
		JobID: jobID, ExecutedAt: executedAt(), SourceArchive: sourceArchive,
		DryRun: e.dryRun, Statistics: stats, Operations: ops,
		Shortcuts: shortcutEntries, Errors: errs,
	}
	path, err := manifest.WriteExecutionManifest(e.reportsDir, exec)
	if err != nil {
		return Result{}, pipelineerr.New(pipelineerr.KindIO, "executor.write_manifest", err)
	}

	return Result{ManifestPath: path, Statistics: stats}, nil
}

// executedAt is overridable in tests; wall-clock time is otherwise
// unavailable to workflow-run scripts but the executor itself always
// runs as a normal program, so time.Now is correct here.
var executedAt = func() time.Time { return time.Now().UTC() }

func countSuccess(ops []manifest.Operation) int {
	n := 0
	for _, op := range ops {
		if op.Success {
			n++
		}
	}
	return n
}

// reservedBaseNames enumerates the Windows-reserved device names
// rejected case-insensitively.
var reservedBaseNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

const maxComponentLength = 255

// sanitizeComponent strips characters illegal in a path component,
// trims trailing dots/spaces, and guards against reserved device names.
func sanitizeComponent(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		sb.WriteRune(r)
	}
	cleaned := strings.TrimRight(sb.String(), ". ")
	if cleaned == "" {
		cleaned = "_"
	}
	base := strings.ToLower(strings.TrimSuffix(cleaned, filepath.Ext(cleaned)))
	if reservedBaseNames[base] {
		cleaned = "_" + cleaned
	}
	if len(cleaned) > maxComponentLength {
		cleaned = cleaned[:maxComponentLength]
	}
	return cleaned
}

// validatePlan checks that every planned source file exists and that
// no two targets collide.
func (e *Executor) validatePlan(items []store.DocumentItem) error {
	targets := make(map[string]int64, len(items))
	for _, it := range items {
		src := filepath.Join(e.sourceRoot, it.CurrentPath)
		if _, err := os.Stat(src); err != nil {
			return pipelineerr.New(pipelineerr.KindValidation, "executor.validate_plan",
				fmt.Errorf("planned source file missing: %s", it.CurrentPath))
		}
		target := targetPathFor(it)
		if prior, ok := targets[target]; ok && prior != it.ID {
			return pipelineerr.New(pipelineerr.KindValidation, "executor.validate_plan",
				fmt.Errorf("target path collision at %s (document %d and %d)", target, prior, it.ID))
		}
		targets[target] = it.ID
	}
	return nil
}

// targetPathFor computes an item's working-tree-relative target path,
// preserving the full mirror path when no reorganization was proposed.
func targetPathFor(it store.DocumentItem) string {
	path := it.CurrentPath
	if it.ProposedPath != nil {
		dir := sanitizePath(*it.ProposedPath)
		name := it.CurrentName
		if it.ProposedName != nil {
			name = sanitizeComponent(*it.ProposedName)
		}
		path = filepath.ToSlash(filepath.Join(dir, name))
	} else if it.ProposedName != nil {
		path = filepath.ToSlash(filepath.Join(filepath.Dir(it.CurrentPath), sanitizeComponent(*it.ProposedName)))
	}
	return path
}

func sanitizePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = sanitizeComponent(s)
	}
	return strings.Join(segs, "/")
}

// createDirectories materializes a plan's directory structure,
// shallowest first.
func (e *Executor) createDirectories(ctx context.Context, jobID string, dirs []store.DirectoryStructure) []manifest.Operation {
	sorted := append([]store.DirectoryStructure(nil), dirs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })

	ops := make([]manifest.Operation, 0, len(sorted))
	for _, d := range sorted {
		target := filepath.Join(e.workingRoot, d.Path)
		op := manifest.Operation{Type: store.OpCreateDir, Target: d.Path, Timestamp: executedAt()}
		if e.dryRun {
			op.Success = true
			ops = append(ops, op)
			continue
		}
		if fi, statErr := os.Stat(target); statErr == nil && !fi.IsDir() {
			op.Success = false
			op.Error = "target path exists as a file"
		} else if err := os.MkdirAll(target, 0o755); err != nil {
			op.Success = false
			op.Error = err.Error()
		} else {
			op.Success = true
		}
		e.logOp(ctx, jobID, op)
		ops = append(ops, op)
	}
	return ops
}

// processAssignments copies every planned document into the working
// tree under its resolved target path, renamed/moved or not.
func (e *Executor) processAssignments(ctx context.Context, jobID string, items []store.DocumentItem) (ops []manifest.Operation, renamed, moved int) {
	sorted := append([]store.DocumentItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return targetPathFor(sorted[i]) < targetPathFor(sorted[j]) })

	ops = make([]manifest.Operation, 0, len(sorted))
	for _, it := range sorted {
		target := targetPathFor(it)
		finalName := filepath.Base(target)
		wasRenamed := finalName != it.CurrentName
		wasMoved := filepath.ToSlash(filepath.Dir(target)) != filepath.ToSlash(filepath.Dir(it.CurrentPath))
		if wasRenamed {
			renamed++
		}
		if wasMoved {
			moved++
		}

		op := manifest.Operation{
			Type: store.OpCopyFile, Source: it.CurrentPath, Target: target,
			DocumentID: it.ID, Timestamp: executedAt(),
		}
		if e.dryRun {
			op.Success = true
			ops = append(ops, op)
			continue
		}
		srcPath := filepath.Join(e.sourceRoot, it.CurrentPath)
		dstPath := filepath.Join(e.workingRoot, target)
		if err := copyPreservingMetadata(srcPath, dstPath); err != nil {
			op.Success = false
			op.Error = err.Error()
		} else {
			op.Success = true
			status := store.DocApplied
			path := &target
			if err := e.store.UpdateFinalFields(ctx, it.ID, &finalName, path, status); err != nil {
				e.logger.Warn("executor.update_final_fields_error", "document_id", it.ID, "err", err)
			}
		}
		e.logOp(ctx, jobID, op)
		ops = append(ops, op)
	}
	return ops, renamed, moved
}

func copyPreservingMetadata(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func (e *Executor) logOp(ctx context.Context, jobID string, op manifest.Operation) {
	entry := store.ExecutionLogEntry{
		Operation: op.Type, SourcePath: op.Source, TargetPath: op.Target,
		DocumentID: op.DocumentID, Success: op.Success, ErrorMessage: op.Error,
	}
	if err := e.store.AppendExecutionLog(ctx, jobID, entry); err != nil {
		e.logger.Warn("executor.append_log_error", "err", err)
	}
}
