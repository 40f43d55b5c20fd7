// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"strings"

	"github.com/fumiama/go-docx"
)

type docxExtractor struct{}

func (docxExtractor) Extract(path string, budget int64) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", corrupt("extract.docx.open", err)
	}
	defer r.Close()

	doc := r.Editable()
	var sb strings.Builder
	for _, it := range doc.Document.Body.Items {
		if p, ok := it.(*docx.Paragraph); ok {
			for _, run := range p.Children {
				if run.Run != nil && run.Run.Text != nil {
					sb.WriteString(run.Run.Text.Text)
				}
			}
			sb.WriteString("\n")
		}
		if int64(sb.Len()) >= budget {
			break
		}
	}
	return truncate(sb.String(), budget), nil
}
