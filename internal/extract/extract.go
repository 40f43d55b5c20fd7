// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract implements a polymorphic text/content extractor
// contract: given a path and a byte budget, return UTF-8 text of length
// ≤ budget, or fail with KindUnsupported / KindCorrupt. The registry
// maps a lowercased extension to a concrete Extractor; unknown
// extensions route to the generic-binary extractor.
package extract

import (
	"strings"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// Extractor yields a plain-text representation of a file, bounded by
// budget bytes.
type Extractor interface {
	Extract(path string, budget int64) (string, error)
}

// Registry dispatches by lowercased, dot-stripped extension.
type Registry struct {
	byExt   map[string]Extractor
	generic Extractor
}

// NewRegistry builds the default registry wired to every concrete
// extractor implementation in this package.
func NewRegistry() *Registry {
	generic := genericBinaryExtractor{}
	plain := plainTextExtractor{}
	md := markdownExtractor{}
	pdf := pdfExtractor{}
	docx := docxExtractor{}
	xlsx := xlsxExtractor{}
	pptx := pptxExtractor{}

	byExt := map[string]Extractor{
		"txt": plain, "text": plain, "log": plain, "csv": plain,
		"json": plain, "xml": plain, "yaml": plain, "yml": plain,
		"ini": plain, "conf": plain, "cfg": plain,
		"md": md, "markdown": md,
		"pdf": pdf,
		"docx": docx,
		"xlsx": xlsx, "xlsm": xlsx,
		"pptx": pptx,
	}
	return &Registry{byExt: byExt, generic: generic}
}

// For returns the extractor registered for ext (lowercase, no leading
// dot), or the generic-binary extractor if none matches.
func (r *Registry) For(ext string) Extractor {
	if e, ok := r.byExt[strings.ToLower(ext)]; ok {
		return e
	}
	return r.generic
}

// truncate clamps s to at most budget bytes, respecting UTF-8 boundaries
// by trimming back to the last valid rune start if the cut lands
// mid-rune.
func truncate(s string, budget int64) string {
	if budget <= 0 || int64(len(s)) <= budget {
		return s
	}
	cut := int(budget)
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func unsupported(op string, err error) error {
	return pipelineerr.New(pipelineerr.KindUnsupported, op, err)
}

func corrupt(op string, err error) error {
	return pipelineerr.New(pipelineerr.KindCorrupt, op, err)
}

func pipelineerrIO(op string, err error) error {
	return pipelineerr.New(pipelineerr.KindIO, op, err)
}
