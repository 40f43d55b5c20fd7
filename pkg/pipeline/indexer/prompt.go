// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package indexer

import (
	"fmt"

	"github.com/haldorsen/archivist/internal/llm"
)

func summarizePrompt(relPath, text string) string {
	const maxPromptChars = 4000
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return fmt.Sprintf(`Summarize the following file for an archive-organization system.
File path: %s

Respond as JSON: {"summary": "<=2 sentences", "document_type": "one or two words", "key_topics": ["short", "tags"]}

Content:
%s`, relPath, text)
}

type summaryResponse struct {
	Summary      string   `json:"summary"`
	DocumentType string   `json:"document_type"`
	KeyTopics    []string `json:"key_topics"`
}

func parseSummaryResponse(raw string) (summary, docType string, topics []string, err error) {
	var resp summaryResponse
	if err := llm.ExtractJSON(raw, &resp); err != nil {
		return "", "", nil, err
	}
	return resp.Summary, resp.DocumentType, resp.KeyTopics, nil
}
