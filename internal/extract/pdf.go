// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

func (pdfExtractor) Extract(path string, budget int64) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", corrupt("extract.pdf.open", err)
	}
	defer f.Close()

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			// one malformed page doesn't invalidate the rest of the document.
			continue
		}
		sb.WriteString(txt)
		sb.WriteString("\n")
		if int64(sb.Len()) >= budget {
			break
		}
	}
	return truncate(sb.String(), budget), nil
}
