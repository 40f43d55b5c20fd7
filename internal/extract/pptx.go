// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pptxExtractor reads text runs directly out of the OOXML slide parts.
// No library in the retrieval pack covers presentation formats
// specifically; this is the one extractor built on the
// standard library alone.
type pptxExtractor struct{}

var slideNumberRe = regexp.MustCompile(`ppt/slides/slide(\d+)\.xml$`)

type pptxTextRun struct {
	Text string `xml:",chardata"`
}

type pptxParagraph struct {
	Runs []pptxTextRun `xml:"r>t"`
}

type pptxSlide struct {
	XMLName xml.Name        `xml:"sld"`
	Paras   []pptxParagraph `xml:"cSld>spTree>sp>txBody>p"`
}

func (pptxExtractor) Extract(path string, budget int64) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", corrupt("extract.pptx.open", err)
	}
	defer zr.Close()

	type slideFile struct {
		num int
		f   *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slideNumberRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{num: n, f: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var sb strings.Builder
	for _, s := range slides {
		rc, err := s.f.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		var slide pptxSlide
		if err := xml.Unmarshal(raw, &slide); err != nil {
			continue
		}
		for _, p := range slide.Paras {
			for _, r := range p.Runs {
				sb.WriteString(r.Text)
			}
			sb.WriteString("\n")
		}
		if int64(sb.Len()) >= budget {
			break
		}
	}
	return truncate(sb.String(), budget), nil
}
