// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package planner

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// rawPlanResponse is the lenient top-level shape the remote LLM's JSON
// response is first unmarshaled into, before mapstructure decodes it
// into the typed decodedPlan: naming schemas, tag taxonomy, directory
// structure, and file assignments.
type rawPlanResponse struct {
	NamingSchemas  []namingSchemaSpec `json:"naming_schemas" mapstructure:"naming_schemas"`
	TagTaxonomy    []tagTaxonomySpec  `json:"tag_taxonomy" mapstructure:"tag_taxonomy"`
	DirectoryStructure []directorySpec `json:"directory_structure" mapstructure:"directory_structure"`
	FileAssignments []assignmentSpec  `json:"file_assignments" mapstructure:"file_assignments"`
}

type namingSchemaSpec struct {
	DocumentType           string            `json:"document_type" mapstructure:"document_type"`
	NamingPattern          string            `json:"naming_pattern" mapstructure:"naming_pattern"`
	Example                string            `json:"example" mapstructure:"example"`
	Description            string            `json:"description" mapstructure:"description"`
	PlaceholderDefinitions map[string]string `json:"placeholder_definitions" mapstructure:"placeholder_definitions"`
}

type tagTaxonomySpec struct {
	TagName       string `json:"tag_name" mapstructure:"tag_name"`
	ParentTagName string `json:"parent_tag_name" mapstructure:"parent_tag_name"`
	Description   string `json:"description" mapstructure:"description"`
}

type directorySpec struct {
	Path                  string   `json:"path" mapstructure:"path"`
	FolderName            string   `json:"folder_name" mapstructure:"folder_name"`
	ParentPath            string   `json:"parent_path" mapstructure:"parent_path"`
	Depth                 int      `json:"depth" mapstructure:"depth"`
	Purpose               string   `json:"purpose" mapstructure:"purpose"`
	ExpectedTags          []string `json:"expected_tags" mapstructure:"expected_tags"`
	ExpectedDocumentTypes []string `json:"expected_document_types" mapstructure:"expected_document_types"`
}

type assignmentSpec struct {
	DocumentID    int64    `json:"document_id" mapstructure:"document_id"`
	ProposedName  *string  `json:"proposed_name" mapstructure:"proposed_name"`
	ProposedPath  *string  `json:"proposed_path" mapstructure:"proposed_path"`
	ProposedTags  []string `json:"proposed_tags" mapstructure:"proposed_tags"`
	Reasoning     string   `json:"reasoning" mapstructure:"reasoning"`
}

// decodedPlan is rawPlanResponse after mapstructure decoding, identical
// in shape but the name under which the rest of the package refers to
// a validated-in-progress plan.
type decodedPlan struct {
	NamingSchemas      []namingSchemaSpec `mapstructure:"naming_schemas"`
	TagTaxonomy        []tagTaxonomySpec  `mapstructure:"tag_taxonomy"`
	DirectoryStructure []directorySpec    `mapstructure:"directory_structure"`
	FileAssignments    []assignmentSpec   `mapstructure:"file_assignments"`
}

// planSchema declares the JSON schema communicated to the remote LLM in
// a deterministic system prompt that enumerates the expected output
// schema.
var planSchema = jsonschema.Reflect(&rawPlanResponse{})

func systemPrompt() string {
	schemaJSON, err := planSchema.MarshalJSON()
	if err != nil {
		schemaJSON = []byte("{}")
	}
	return fmt.Sprintf(`You are organizing a cloud drive archive. Produce a single JSON object matching this schema:
%s

Rules:
- Every file in the planning set must be assigned exactly one entry in file_assignments.
- Binary-category files (images, audio, video, archives, executables) are organized by filename, not content.
- Files that cannot be classified go to %s with their original name and the tag "uncategorized".
- Directory paths may not exceed depth %d.
- Tag taxonomy may not exceed %d levels.
- Tags are lowercase-hyphenated.
- proposed_name and proposed_path may both be null to mean "leave unchanged".

Respond with JSON only, no commentary.`, schemaJSON, uncategorizedPath, maxDirectoryDepth, maxTaxonomyDepth)
}
