// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// fencedBlockRe matches fenced code blocks tagged json (or untagged),
// capturing the body. The largest match is preferred when several exist.
var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// ExtractJSON implements the three-step lenient front-end named in the
// design notes: (a) parse the whole body; (b) find the largest fenced
// code block and parse it; (c) find the outermost balanced braces and
// parse that. All three exhausted yields KindMalformed.
func ExtractJSON(body string, out any) error {
	body = strings.TrimSpace(body)

	if err := json.Unmarshal([]byte(body), out); err == nil {
		return nil
	}

	if block, ok := largestFencedBlock(body); ok {
		if err := json.Unmarshal([]byte(block), out); err == nil {
			return nil
		}
	}

	if slice, ok := outermostBalancedBraces(body); ok {
		if err := json.Unmarshal([]byte(slice), out); err == nil {
			return nil
		}
	}

	return pipelineerr.New(pipelineerr.KindMalformed, "llm.extract_json", errMalformed)
}

var errMalformed = malformedErr("no JSON-decodable region found in response body")

type malformedErr string

func (m malformedErr) Error() string { return string(m) }

func largestFencedBlock(body string) (string, bool) {
	matches := fencedBlockRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return "", false
	}
	best := ""
	for _, m := range matches {
		if len(m[1]) > len(best) {
			best = m[1]
		}
	}
	return strings.TrimSpace(best), best != ""
}

// outermostBalancedBraces scans for the first '{' and its matching
// closing '}' accounting for string literals, returning that slice (the
// balanced region that opens at the first '{').
func outermostBalancedBraces(body string) (string, bool) {
	start := strings.IndexByte(body, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(body); i++ {
		c := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[start : i+1], true
			}
		}
	}
	return "", false
}
