// Copyright 2026 Archivist Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package indexer walks a job's source tree and produces one
// DocumentItem per file. Grounded on the teacher's
// pkg/ingestion.LocalPipeline.Run: a sorted file list drained by a
// bounded worker pool reporting progress via callback, with per-file
// errors recorded on the item rather than aborting the phase.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/haldorsen/archivist/internal/extract"
	"github.com/haldorsen/archivist/internal/fingerprint"
	"github.com/haldorsen/archivist/internal/llm"
	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/store"
)

// ProgressFunc is called at least every P items (the configured batch
// size) or at phase boundaries, mirroring local_pipeline.go's
// ProgressCallback(current, total, phase).
type ProgressFunc func(current, total int, phase string)

// Indexer walks a source root and produces DocumentItems.
type Indexer struct {
	store            *store.Store
	extractors       *extract.Registry
	local            *llm.LocalClient
	logger           *slog.Logger
	workers          int
	batchSize        int
	textBudget       int64
	maxExtractSize   int64
	skipHidden       bool
}

// New builds an Indexer. maxExtractSize bounds the input file size text
// extraction will attempt; files larger than it are still hashed and
// indexed but extraction is skipped. A non-positive value disables the
// bound.
func New(st *store.Store, extractors *extract.Registry, local *llm.LocalClient, logger *slog.Logger, workers, batchSize int, textBudget, maxExtractSize int64, skipHidden bool) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Indexer{
		store: st, extractors: extractors, local: local, logger: logger,
		workers: workers, batchSize: batchSize, textBudget: textBudget,
		maxExtractSize: maxExtractSize, skipHidden: skipHidden,
	}
}

// Result summarizes one Indexer run.
type Result struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesErrored    int
}

// fileEntry is one discovered file before processing.
type fileEntry struct {
	relPath  string
	fullPath string
}

// Run walks sourceRoot under jobID, processing every file through a
// bounded worker pool. Idempotency: DocumentItem identity is (job_id,
// file_id) where file_id = sha256(relative_path); re-running never
// duplicates rows because the store upsert is keyed on that pair.
func (ix *Indexer) Run(ctx context.Context, jobID, sourceRoot string, progress ProgressFunc) (Result, error) {
	files, err := walk(sourceRoot, ix.skipHidden)
	if err != nil {
		return Result{}, pipelineerr.New(pipelineerr.KindIO, "indexer.walk", err)
	}

	// Deterministic ordering: reproducible runs and readable logs.
	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })

	total := len(files)
	result := Result{FilesDiscovered: total}
	if total == 0 {
		return result, nil
	}

	jobs := make(chan int, total)
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var (
		mu        sync.Mutex
		processed int
		errored   int
		wg        sync.WaitGroup
	)

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			if ctx.Err() != nil {
				return
			}
			f := files[idx]
			if err := ix.processFile(ctx, jobID, f); err != nil {
				ix.logger.Warn("indexer.file_error", "path", f.relPath, "err", err)
				mu.Lock()
				errored++
				mu.Unlock()
			} else {
				mu.Lock()
				processed++
				mu.Unlock()
			}

			mu.Lock()
			done := processed + errored
			mu.Unlock()
			if progress != nil && ix.batchSize > 0 && done%ix.batchSize == 0 {
				progress(done, total, "indexing")
			}
		}
	}

	wg.Add(ix.workers)
	for i := 0; i < ix.workers; i++ {
		go worker()
	}
	wg.Wait()

	if progress != nil {
		progress(processed+errored, total, "indexing")
	}

	result.FilesProcessed = processed
	result.FilesErrored = errored

	// The phase succeeds if at least one item completed or the source
	// was empty; total > 0 here, so require progress.
	if processed == 0 {
		return result, pipelineerr.New(pipelineerr.KindFatal, "indexer.run", errAllFilesFailed)
	}
	return result, nil
}

type indexerErr string

func (e indexerErr) Error() string { return string(e) }

const errAllFilesFailed = indexerErr("every file in the source tree failed to index")

func (ix *Indexer) processFile(ctx context.Context, jobID string, f fileEntry) error {
	fileID := fileIDFor(f.relPath)

	fp, err := fingerprint.Compute(f.fullPath)
	if err != nil {
		_ = ix.store.MarkDocumentError(ctx, jobID, fileID, f.relPath, err.Error())
		return err
	}

	var summary, docType string
	var topics []string
	tooLarge := ix.maxExtractSize > 0 && fp.SizeBytes > ix.maxExtractSize
	if tooLarge {
		ix.logger.Debug("indexer.extract_skip_too_large", "path", f.relPath, "size_bytes", fp.SizeBytes)
	}
	if !tooLarge && !fingerprint.IsBinaryCategory(fp.MIME) && fp.SizeBytes > 0 {
		text, extractErr := ix.extractors.For(fp.Extension).Extract(f.fullPath, ix.textBudget)
		if extractErr != nil {
			ix.logger.Debug("indexer.extract_skip", "path", f.relPath, "err", extractErr)
		} else if text != "" {
			summary, docType, topics, err = ix.summarize(ctx, f.relPath, text)
			if err != nil {
				ix.logger.Debug("indexer.summarize_skip", "path", f.relPath, "err", err)
			}
		}
	}

	doc := store.DocumentItem{
		FileID:         fileID,
		JobID:          jobID,
		CurrentName:    filepath.Base(f.relPath),
		CurrentPath:    f.relPath,
		Extension:      fp.Extension,
		FileSize:       fp.SizeBytes,
		MIME:           fp.MIME,
		ContentHash:    fp.ContentHash,
		SourceMTime:    fp.ModTime,
		ContentSummary: summary,
		DocumentType:   docType,
		KeyTopics:      topics,
		Status:         store.DocProcessed,
	}
	_, err = ix.store.UpsertDocumentItem(ctx, doc)
	return err
}

// summarize calls the local LLM for content_summary, document_type, and
// key_topics. Returned values are best-effort: a failure here does not
// fail the file, so binary/unsupported files simply get empty
// summaries.
func (ix *Indexer) summarize(ctx context.Context, relPath, text string) (summary, docType string, topics []string, err error) {
	if ix.local == nil {
		return "", "", nil, nil
	}
	prompt := summarizePrompt(relPath, text)
	raw, err := ix.local.Summarize(ctx, prompt, llm.SummarizeOptions{Temperature: 0.1, Model: ""})
	if err != nil {
		return "", "", nil, err
	}
	return parseSummaryResponse(raw)
}

func fileIDFor(relPath string) string {
	h := sha256.Sum256([]byte(relPath))
	return hex.EncodeToString(h[:])
}

func walk(root string, skipHidden bool) ([]fileEntry, error) {
	var out []fileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if skipHidden && isHiddenTopLevel(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		out = append(out, fileEntry{relPath: filepath.ToSlash(rel), fullPath: path})
		return nil
	})
	return out, err
}

func isHiddenTopLevel(rel string) bool {
	first := rel
	if idx := filepath_SeparatorIndex(rel); idx >= 0 {
		first = rel[:idx]
	}
	return len(first) > 0 && first[0] == '.'
}

func filepath_SeparatorIndex(p string) int {
	for i := 0; i < len(p); i++ {
		if p[i] == filepath.Separator {
			return i
		}
	}
	return -1
}
