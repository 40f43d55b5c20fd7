// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package planner implements the Organization Planner: builds an
// inventory bundle from the job's planning set, invokes the remote LLM
// for a full organization plan, validates it referentially, and
// persists it transactionally.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/haldorsen/archivist/internal/llm"
	"github.com/haldorsen/archivist/internal/pipelineerr"
	"github.com/haldorsen/archivist/internal/store"
)

const (
	maxDirectoryDepth    = 4
	maxTaxonomyDepth     = 3
	maxDirectoryEntries  = 50
	unassignedFailurePct = 0.10
	uncategorizedPath    = "/_Uncategorized"
)

// Planner builds and persists an organization plan for one job.
type Planner struct {
	store  *store.Store
	remote *llm.RemoteClient
	logger *slog.Logger
}

// New builds a Planner.
func New(st *store.Store, remote *llm.RemoteClient, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{store: st, remote: remote, logger: logger}
}

// Result summarizes one planning run.
type Result struct {
	BatchID         string
	ItemsAssigned   int
	ItemsUnassigned int
}

// Run builds the planning set, calls the remote LLM, validates the
// response, and persists the plan.
func (p *Planner) Run(ctx context.Context, jobID string) (Result, error) {
	items, err := p.store.PlanningSet(ctx, jobID)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, nil
	}

	bundle := buildInventory(items)
	systemPrompt := systemPrompt()
	userPrompt := bundle.Render()

	var raw rawPlanResponse
	if err := p.remote.DeliberateJSON(ctx, systemPrompt, userPrompt, 0, &raw); err != nil {
		return Result{}, err
	}

	plan, err := decodePlan(raw)
	if err != nil {
		return Result{}, pipelineerr.New(pipelineerr.KindMalformed, "planner.decode_plan", err)
	}

	batchID := uuid.NewString()
	validated, unassigned, err := p.validate(items, plan)
	if err != nil {
		return Result{}, err
	}
	if float64(len(unassigned))/float64(len(items)) > unassignedFailurePct {
		return Result{}, pipelineerr.New(pipelineerr.KindPlanningIncomplete, "planner.validate",
			fmt.Errorf("%d/%d items unassigned exceeds 10%% threshold", len(unassigned), len(items)))
	}

	schemas := toNamingSchemas(plan.NamingSchemas, jobID, batchID)
	taxonomy := toTaxonomy(plan.TagTaxonomy, jobID, batchID)
	dirs := toDirectoryStructure(validated.directories, jobID, batchID)

	if err := p.store.PersistPlan(ctx, jobID, batchID, schemas, taxonomy, dirs); err != nil {
		return Result{}, err
	}

	for _, a := range validated.assignments {
		if err := p.store.UpdateProposedFields(ctx, a.documentID, a.name, a.path, a.tags, a.reasoning); err != nil {
			p.logger.Warn("planner.update_proposed_fields_error", "document_id", a.documentID, "err", err)
		}
	}

	return Result{
		BatchID:         batchID,
		ItemsAssigned:   len(validated.assignments),
		ItemsUnassigned: len(unassigned),
	}, nil
}

func toNamingSchemas(in []namingSchemaSpec, jobID, batchID string) []store.NamingSchema {
	out := make([]store.NamingSchema, 0, len(in))
	for _, s := range in {
		out = append(out, store.NamingSchema{
			JobID: jobID, PlanningBatchID: batchID,
			DocumentType: s.DocumentType, NamingPattern: s.NamingPattern,
			Example: s.Example, Description: s.Description,
			PlaceholderDefinitions: store.JSONMap(s.PlaceholderDefinitions),
			SchemaVersion:          1,
		})
	}
	return out
}

func toTaxonomy(in []tagTaxonomySpec, jobID, batchID string) []store.TagTaxonomy {
	out := make([]store.TagTaxonomy, 0, len(in))
	for _, t := range in {
		var parent *string
		if t.ParentTagName != "" {
			p := t.ParentTagName
			parent = &p
		}
		out = append(out, store.TagTaxonomy{
			JobID: jobID, PlanningBatchID: batchID,
			TagName: strings.ToLower(t.TagName), ParentTagName: parent,
			Description: t.Description,
		})
	}
	return out
}

func toDirectoryStructure(in []directorySpec, jobID, batchID string) []store.DirectoryStructure {
	out := make([]store.DirectoryStructure, 0, len(in))
	for _, d := range in {
		out = append(out, store.DirectoryStructure{
			JobID: jobID, PlanningBatchID: batchID,
			Path: d.Path, FolderName: d.FolderName, ParentPath: d.ParentPath,
			Depth: d.Depth, Purpose: d.Purpose,
			ExpectedTags: d.ExpectedTags, ExpectedDocumentTypes: d.ExpectedDocumentTypes,
		})
	}
	return out
}

func decodePlan(raw rawPlanResponse) (decodedPlan, error) {
	var plan decodedPlan
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &plan,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return decodedPlan{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return decodedPlan{}, err
	}
	return plan, nil
}

// sortedEntries is a helper for deterministic map iteration in prompt
// rendering (the inventory's extension histogram).
func sortedEntries(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
