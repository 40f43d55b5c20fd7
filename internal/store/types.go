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

// Package store is the relational store gateway: typed, transactional
// operations over the pipeline's entities. Grounded on the teacher's
// pkg/storage.EmbeddedBackend (idempotent schema creation, cascading
// delete ordering), re-expressed against Postgres since the teacher's
// CozoDB binding cannot be fetched as a module (see DESIGN.md).
package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap adapts a map[string]string for storage in a jsonb column.
type JSONMap map[string]string

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(m))
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("JSONMap.Scan: unsupported type %T", src)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, (*map[string]string)(m))
}

// JobStatus enumerates the Job state machine.
type JobStatus string

const (
	JobPending        JobStatus = "pending"
	JobExtracting     JobStatus = "extracting"
	JobIndexing       JobStatus = "indexing"
	JobDeduplicating  JobStatus = "deduplicating"
	JobVersioning     JobStatus = "versioning"
	JobOrganizing     JobStatus = "organizing"
	JobReviewRequired JobStatus = "review_required"
	JobExecuting      JobStatus = "executing"
	JobCompleted      JobStatus = "completed"
	JobFailed         JobStatus = "failed"
	JobCancelled      JobStatus = "cancelled"
)

// Terminal reports whether s is a terminal status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// Job is the top-level unit of work.
type Job struct {
	ID                 string     `json:"id"` // opaque 128-bit id (uuid)
	Status             JobStatus  `json:"status"`
	CurrentPhase       string     `json:"current_phase"`
	Progress           int        `json:"progress"`
	SourceArchivePath  string     `json:"source_archive_path"`
	OutputArchivePath  string     `json:"output_archive_path"`
	FilesProcessed     int        `json:"files_processed"`
	DuplicatesFound    int        `json:"duplicates_found"`
	ShortcutsCreated   int        `json:"shortcuts_created"`
	VersionChainsFound int        `json:"version_chains_found"`
	FilesRenamed       int        `json:"files_renamed"`
	FilesMoved         int        `json:"files_moved"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
}

// DocumentItemStatus enumerates a document item's monotonic status progression.
type DocumentItemStatus string

const (
	DocDiscovered  DocumentItemStatus = "discovered"
	DocProcessing  DocumentItemStatus = "processing"
	DocProcessed   DocumentItemStatus = "processed"
	DocOrganizing  DocumentItemStatus = "organizing"
	DocOrganized   DocumentItemStatus = "organized"
	DocPendingApply DocumentItemStatus = "pending_apply"
	DocApplying    DocumentItemStatus = "applying"
	DocApplied     DocumentItemStatus = "applied"
	DocError       DocumentItemStatus = "error"
	DocSkipped     DocumentItemStatus = "skipped"
)

// docStatusRank gives the monotonic ordering used to validate status
// transitions and to decide whether a resumed run may skip an item for
// the current phase.
var docStatusRank = map[DocumentItemStatus]int{
	DocDiscovered:   0,
	DocProcessing:   1,
	DocProcessed:    2,
	DocOrganizing:   3,
	DocOrganized:    4,
	DocPendingApply: 5,
	DocApplying:     6,
	DocApplied:      7,
	DocSkipped:      7,
	DocError:        99, // terminal for that item, not ordered with the rest
}

// AtLeast reports whether s has progressed at least as far as other,
// treating DocError as incomparable (always false unless other==DocError).
func (s DocumentItemStatus) AtLeast(other DocumentItemStatus) bool {
	if s == DocError {
		return other == DocError
	}
	return docStatusRank[s] >= docStatusRank[other]
}

// DocumentItem is the per-file record.
type DocumentItem struct {
	ID                  int64
	FileID              string // stable hash of source path
	JobID               string
	CurrentName         string
	CurrentPath         string
	Extension           string
	FileSize            int64
	MIME                string
	ContentHash         string
	SourceMTime         time.Time
	ContentSummary      string
	DocumentType        string
	KeyTopics           []string
	ProposedName        *string
	ProposedPath        *string
	ProposedTags        []string
	OrganizationReasoning string
	FinalName           *string
	FinalPath           *string
	Status              DocumentItemStatus
	ChangesApplied      bool
	IsDeleted           bool
}

// DecidedBy enumerates who chose a DuplicateGroup's primary.
type DecidedBy string

const (
	DecidedAuto DecidedBy = "auto"
	DecidedLLM  DecidedBy = "llm"
	DecidedUser DecidedBy = "user"
)

// DuplicateAction enumerates per-member duplicate dispositions.
type DuplicateAction string

const (
	ActionKeepPrimary DuplicateAction = "keep_primary"
	ActionShortcut    DuplicateAction = "shortcut"
	ActionKeepBoth    DuplicateAction = "keep_both"
	ActionDelete      DuplicateAction = "delete"
)

// DuplicateGroup groups DocumentItems sharing a content_hash.
type DuplicateGroup struct {
	ID                int64     `db:"id"`
	JobID             string    `db:"job_id"`
	ContentHash       string    `db:"content_hash"`
	FileCount         int       `db:"file_count"`
	TotalSize         int64     `db:"total_size"`
	PrimaryDocID      int64     `db:"primary_doc_id"`
	DecisionReasoning string    `db:"decision_reasoning"`
	DecidedBy         DecidedBy `db:"decided_by"`
}

// DuplicateMember is one DocumentItem's disposition within a group.
type DuplicateMember struct {
	ID                 int64           `db:"id"`
	GroupID            int64           `db:"group_id"`
	DocumentID         int64           `db:"document_id"`
	IsPrimary          bool            `db:"is_primary"`
	Action             DuplicateAction `db:"action"`
	ActionReasoning    string          `db:"action_reasoning"`
	ShortcutTargetPath string          `db:"shortcut_target_path"`
}

// DetectionMethod enumerates how a VersionChain was discovered.
type DetectionMethod string

const (
	DetectionExplicitMarker    DetectionMethod = "explicit_marker"
	DetectionNameSimilarity    DetectionMethod = "name_similarity"
	DetectionContentSimilarity DetectionMethod = "content_similarity"
)

// ArchiveStrategy enumerates where superseded versions are stored.
type ArchiveStrategy string

const (
	ArchiveSubfolder       ArchiveStrategy = "subfolder"
	ArchiveInline          ArchiveStrategy = "inline"
	ArchiveSeparateArchive ArchiveStrategy = "separate_archive"
)

// VersionChain groups DocumentItems representing the same evolving
// document.
type VersionChain struct {
	ID                    int64           `db:"id"`
	JobID                 string          `db:"job_id"`
	ChainName             string          `db:"chain_name"`
	BasePath              string          `db:"base_path"`
	CurrentDocID          int64           `db:"current_doc_id"`
	CurrentVersionNumber  int             `db:"current_version_number"`
	DetectionMethod       DetectionMethod `db:"detection_method"`
	DetectionConfidence   float64         `db:"detection_confidence"`
	LLMReasoning          string          `db:"llm_reasoning"`
	VersionOrderConfirmed bool            `db:"version_order_confirmed"`
	ArchiveStrategy       ArchiveStrategy `db:"archive_strategy"`
	ArchivePath           string          `db:"archive_path"`
}

// VersionMemberStatus enumerates a chain member's lifecycle.
type VersionMemberStatus string

const (
	VersionActive     VersionMemberStatus = "active"
	VersionSuperseded VersionMemberStatus = "superseded"
	VersionArchived   VersionMemberStatus = "archived"
)

// VersionChainMember is one DocumentItem's place in a VersionChain.
type VersionChainMember struct {
	ID                  int64               `db:"id"`
	ChainID             int64               `db:"chain_id"`
	DocumentID          int64               `db:"document_id"`
	VersionNumber       int                 `db:"version_number"`
	VersionLabel        string              `db:"version_label"`
	VersionDate         *time.Time          `db:"version_date"`
	IsCurrent           bool                `db:"is_current"`
	Status              VersionMemberStatus `db:"status"`
	ProposedVersionName string              `db:"proposed_version_name"`
	ProposedVersionPath string              `db:"proposed_version_path"`
}

// NamingSchema is a per-document-type naming convention.
type NamingSchema struct {
	ID                     int64             `db:"id"`
	JobID                  string            `db:"job_id"`
	PlanningBatchID        string            `db:"planning_batch_id"`
	DocumentType           string            `db:"document_type"`
	NamingPattern          string            `db:"naming_pattern"`
	Example                string            `db:"example"`
	Description            string            `db:"description"`
	PlaceholderDefinitions JSONMap `db:"placeholder_definitions"`
	SchemaVersion          int               `db:"schema_version"`
}

// TagTaxonomy is a forest node in the tag hierarchy, max depth 3.
type TagTaxonomy struct {
	ID              int64   `db:"id"`
	JobID           string  `db:"job_id"`
	PlanningBatchID string  `db:"planning_batch_id"`
	TagName         string  `db:"tag_name"`
	ParentTagName   *string `db:"parent_tag_name"`
	Description     string  `db:"description"`
	UsageCount      int     `db:"usage_count"`
}

// DirectoryStructure is a planned directory entry.
type DirectoryStructure struct {
	ID                    int64    `db:"id"`
	JobID                 string   `db:"job_id"`
	PlanningBatchID       string   `db:"planning_batch_id"`
	Path                  string   `db:"path"`
	FolderName            string   `db:"folder_name"`
	ParentPath            string   `db:"parent_path"`
	Depth                 int      `db:"depth"`
	Purpose               string   `db:"purpose"`
	ExpectedTags          []string `db:"expected_tags"`
	ExpectedDocumentTypes []string `db:"expected_document_types"`
}

// ShortcutType enumerates the cross-platform shortcut variants.
type ShortcutType string

const (
	ShortcutSymlink ShortcutType = "symlink"
	ShortcutURL     ShortcutType = "url"
	ShortcutDesktop ShortcutType = "desktop"
)

// ShortcutRecord records a materialized shortcut.
type ShortcutRecord struct {
	ID           int64
	JobID        string
	DocumentID   int64
	ShortcutPath string
	TargetPath   string
	ShortcutType ShortcutType
	OriginalPath string
	OriginalHash string
}

// ExecutionOperation enumerates Executor operation kinds.
type ExecutionOperation string

const (
	OpCreateDir       ExecutionOperation = "create_dir"
	OpCopyFile        ExecutionOperation = "copy_file"
	OpRename          ExecutionOperation = "rename"
	OpMove            ExecutionOperation = "move"
	OpCreateShortcut  ExecutionOperation = "create_shortcut"
	OpArchiveVersion  ExecutionOperation = "archive_version"
)

// ExecutionLogEntry is one append-only Executor operation record.
type ExecutionLogEntry struct {
	ID          int64
	JobID       string
	Operation   ExecutionOperation
	SourcePath  string
	TargetPath  string
	DocumentID  int64
	Success     bool
	ErrorMessage string
	DurationMS  int64
	ExecutedAt  time.Time
}
