// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxMaxRowsPerSheet caps how many rows of each sheet are rendered,
// keeping extraction bounded even for very long spreadsheets.
const xlsxMaxRowsPerSheet = 200

type xlsxExtractor struct{}

func (xlsxExtractor) Extract(path string, budget int64) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", corrupt("extract.xlsx.open", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, name := range f.GetSheetList() {
		sb.WriteString("# ")
		sb.WriteString(name)
		sb.WriteString("\n")

		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for i, row := range rows {
			if i >= xlsxMaxRowsPerSheet {
				break
			}
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
			if int64(sb.Len()) >= budget {
				return truncate(sb.String(), budget), nil
			}
		}
	}
	return truncate(sb.String(), budget), nil
}
