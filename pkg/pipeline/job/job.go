// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package job implements the Job controller: drives a job through its
// phases in order, persisting each transition before the phase begins,
// honoring cooperative cancellation and the optional review gate.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/haldorsen/archivist/internal/archiveio"
	"github.com/haldorsen/archivist/internal/metrics"
	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/store"
	"github.com/haldorsen/archivist/pkg/pipeline/duplicate"
	"github.com/haldorsen/archivist/pkg/pipeline/executor"
	"github.com/haldorsen/archivist/pkg/pipeline/indexer"
	"github.com/haldorsen/archivist/pkg/pipeline/planner"
	"github.com/haldorsen/archivist/pkg/pipeline/version"
)

// Paths holds the filesystem layout for one job run.
type Paths struct {
	Input   string
	Source  string
	Working string
	Output  string
	Reports string
}

// Controller drives jobs through the full pipeline.
type Controller struct {
	store          *store.Store
	indexer        *indexer.Indexer
	duplicates     *duplicate.Resolver
	versions       *version.Resolver
	planner        *planner.Planner
	logger         *slog.Logger
	paths          Paths
	reviewRequired bool
	dryRun         bool

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	approves map[string]chan struct{}
}

// New builds a Controller. The Executor is constructed per-job (it
// needs per-job source/working paths), so it is not injected here.
func New(st *store.Store, ix *indexer.Indexer, dup *duplicate.Resolver, ver *version.Resolver, pl *planner.Planner, logger *slog.Logger, paths Paths, reviewRequired, dryRun bool) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store: st, indexer: ix, duplicates: dup, versions: ver, planner: pl,
		logger: logger, paths: paths, reviewRequired: reviewRequired, dryRun: dryRun,
		cancels: make(map[string]context.CancelFunc), approves: make(map[string]chan struct{}),
	}
}

// Submit creates a Job for sourceArchivePath and starts it in the
// background, returning its id immediately.
func (c *Controller) Submit(ctx context.Context, sourceArchivePath string) (string, error) {
	jobID, err := c.store.CreateJob(ctx, sourceArchivePath)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancels[jobID] = cancel
	c.mu.Unlock()

	go c.run(runCtx, jobID, sourceArchivePath)
	return jobID, nil
}

// GetStatus returns a Job's current row.
func (c *Controller) GetStatus(ctx context.Context, jobID string) (store.Job, error) {
	return c.store.GetJob(ctx, jobID)
}

// GetReport returns a Job's terminal report: the row plus its execution
// log, once available.
func (c *Controller) GetReport(ctx context.Context, jobID string) (store.Job, []store.ExecutionLogEntry, error) {
	j, err := c.store.GetJob(ctx, jobID)
	if err != nil {
		return store.Job{}, nil, err
	}
	entries, err := c.store.ExecutionLogForJob(ctx, jobID)
	if err != nil {
		return store.Job{}, nil, err
	}
	return j, entries, nil
}

// Approve unblocks a job waiting at the review_required gate.
func (c *Controller) Approve(jobID string) error {
	c.mu.Lock()
	ch, ok := c.approves[jobID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("job.approve: job %s is not awaiting review", jobID)
	}
	close(ch)
	return nil
}

// Cancel requests cooperative cancellation of a running job.
func (c *Controller) Cancel(jobID string) error {
	c.mu.Lock()
	cancel, ok := c.cancels[jobID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("job.cancel: job %s is not running", jobID)
	}
	cancel()
	return nil
}

func (c *Controller) run(ctx context.Context, jobID, sourceArchivePath string) {
	defer func() {
		c.mu.Lock()
		delete(c.cancels, jobID)
		delete(c.approves, jobID)
		c.mu.Unlock()
	}()

	if err := c.runPhases(ctx, jobID, sourceArchivePath); err != nil {
		status := store.JobFailed
		if ctx.Err() != nil {
			status = store.JobCancelled
		}
		// ctx may already be cancelled; record the final status regardless.
		if cerr := c.store.CompleteJob(context.Background(), jobID, status, err.Error()); cerr != nil {
			c.logger.Error("job.complete_on_failure_error", "job_id", jobID, "err", cerr)
		}
		c.logger.Warn("job.failed", "job_id", jobID, "status", status, "err", err)
		return
	}
	if err := c.store.CompleteJob(ctx, jobID, store.JobCompleted, ""); err != nil {
		c.logger.Error("job.complete_error", "job_id", jobID, "err", err)
	}
}

func (c *Controller) runPhases(ctx context.Context, jobID, sourceArchivePath string) error {
	sourceRoot := filepath.Join(c.paths.Source, jobID)

	if err := c.transition(ctx, jobID, store.JobExtracting, "extracting"); err != nil {
		return err
	}
	extractStart := time.Now()
	if err := archiveio.ExtractZip(filepath.Join(c.paths.Input, sourceArchivePath), sourceRoot); err != nil {
		return err
	}
	metrics.JobPhaseDuration.WithLabelValues("extracting").Observe(time.Since(extractStart).Seconds())
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var counters store.Job

	if err := c.transition(ctx, jobID, store.JobIndexing, "indexing"); err != nil {
		return err
	}
	indexStart := time.Now()
	ixResult, err := c.indexer.Run(ctx, jobID, sourceRoot, nil)
	if err != nil {
		return err
	}
	metrics.JobPhaseDuration.WithLabelValues("indexing").Observe(time.Since(indexStart).Seconds())
	counters.FilesProcessed = ixResult.FilesProcessed
	if err := c.store.UpdateJobCounters(ctx, jobID, counters); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := c.transition(ctx, jobID, store.JobDeduplicating, "deduplicating"); err != nil {
		return err
	}
	dupStart := time.Now()
	dupResult, err := c.duplicates.Run(ctx, jobID)
	if err != nil {
		return err
	}
	metrics.JobPhaseDuration.WithLabelValues("deduplicating").Observe(time.Since(dupStart).Seconds())
	counters.DuplicatesFound = dupResult.GroupsResolved
	counters.ShortcutsCreated = dupResult.ShortcutsMade
	for i := 0; i < dupResult.GroupsResolved; i++ {
		metrics.DuplicateGroups.Inc()
	}
	if err := c.store.UpdateJobCounters(ctx, jobID, counters); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := c.transition(ctx, jobID, store.JobVersioning, "versioning"); err != nil {
		return err
	}
	versionStart := time.Now()
	verResult, err := c.versions.Run(ctx, jobID)
	if err != nil {
		return err
	}
	metrics.JobPhaseDuration.WithLabelValues("versioning").Observe(time.Since(versionStart).Seconds())
	counters.VersionChainsFound = verResult.ChainsFound
	for i := 0; i < verResult.ChainsFound; i++ {
		metrics.VersionChains.Inc()
	}
	if err := c.store.UpdateJobCounters(ctx, jobID, counters); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := c.transition(ctx, jobID, store.JobOrganizing, "organizing"); err != nil {
		return err
	}
	organizeStart := time.Now()
	planResult, err := c.planner.Run(ctx, jobID)
	if err != nil {
		return err
	}
	metrics.JobPhaseDuration.WithLabelValues("organizing").Observe(time.Since(organizeStart).Seconds())
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if c.reviewRequired {
		if err := c.awaitApproval(ctx, jobID); err != nil {
			return err
		}
	}

	if err := c.transition(ctx, jobID, store.JobExecuting, "executing"); err != nil {
		return err
	}
	exec := executor.New(c.store, c.logger, sourceRoot, filepath.Join(c.paths.Working, jobID), c.paths.Reports, c.dryRun)
	executeStart := time.Now()
	execResult, err := exec.Run(ctx, jobID, planResult.BatchID, sourceArchivePath)
	if err != nil {
		return err
	}
	metrics.JobPhaseDuration.WithLabelValues("executing").Observe(time.Since(executeStart).Seconds())
	if execResult.Statistics.Errors > 0 {
		metrics.ExecutionErrors.WithLabelValues("execute").Add(float64(execResult.Statistics.Errors))
	}
	counters.FilesRenamed = execResult.Statistics.FilesRenamed
	counters.FilesMoved = execResult.Statistics.FilesMoved
	counters.Progress = 100
	if err := c.store.UpdateJobCounters(ctx, jobID, counters); err != nil {
		return err
	}

	return nil
}

func (c *Controller) transition(ctx context.Context, jobID string, status store.JobStatus, phase string) error {
	if err := c.store.TransitionPhase(ctx, jobID, status, phase); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// awaitApproval blocks until Approve(jobID) is called or ctx is
// cancelled, implementing the review_required gate.
func (c *Controller) awaitApproval(ctx context.Context, jobID string) error {
	if err := c.store.TransitionPhase(ctx, jobID, store.JobReviewRequired, "review_required"); err != nil {
		return err
	}

	ch := make(chan struct{})
	c.mu.Lock()
	c.approves[jobID] = ch
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return pipelineerr.New(pipelineerr.KindCancelled, "job.await_approval", ctx.Err())
	}
}
