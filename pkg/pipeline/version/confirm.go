// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package version

import (
	"context"
	"fmt"
	"strings"

	"github.com/haldorsen/archivist/internal/llm"
)

// confirmationResponse is the local LLM's parsed confirmation of a
// candidate version chain and member ordering.
type confirmationResponse struct {
	Confirmed    bool  `json:"confirmed"`
	CurrentIndex int   `json:"current_index"`
	Order        []int `json:"order"`
}

// llmConfirm asks the local LLM to confirm a candidate chain and order
// its members. Returns ok=false when the LLM rejects the grouping.
func (r *Resolver) llmConfirm(ctx context.Context, cand candidate) (currentIdx int, order []int, reasoning string, ok bool, err error) {
	prompt := confirmationPrompt(cand)
	raw, err := r.local.Summarize(ctx, prompt, llm.SummarizeOptions{Temperature: 0.1})
	if err != nil {
		return 0, nil, "", false, err
	}

	var resp confirmationResponse
	if err := llm.ExtractJSON(raw, &resp); err != nil {
		return 0, nil, "", false, err
	}
	if !resp.Confirmed {
		return 0, nil, "", false, nil
	}
	if !validOrder(resp.Order, len(cand.members)) || resp.CurrentIndex < 0 || resp.CurrentIndex >= len(cand.members) {
		return 0, nil, "", false, fmt.Errorf("version.llm_confirm: malformed ordering response")
	}
	return resp.CurrentIndex, resp.Order, "confirmed by local LLM", true, nil
}

func validOrder(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make(map[int]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func confirmationPrompt(cand candidate) string {
	var sb strings.Builder
	sb.WriteString("These files may be successive versions of the same document. Confirm and order them oldest to newest.\n")
	sb.WriteString(`Respond as JSON: {"confirmed": <bool>, "current_index": <int, 0-based>, "order": [<int>, ... oldest to newest]}` + "\n\n")
	for i, m := range cand.members {
		sb.WriteString(fmt.Sprintf("[%d] name=%s size=%d mtime=%s summary=%s\n", i, m.CurrentName, m.FileSize, m.SourceMTime.Format("2006-01-02"), m.ContentSummary))
	}
	return sb.String()
}
