// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"io"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type plainTextExtractor struct{}

func (plainTextExtractor) Extract(path string, budget int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", pipelineerrIO("extract.plaintext.open", err)
	}
	defer f.Close()

	buf := make([]byte, budget)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", pipelineerrIO("extract.plaintext.read", err)
	}
	return string(buf[:n]), nil
}

// markdownExtractor renders the document through goldmark's AST and
// emits plain text, rather than treating markup syntax as content.
type markdownExtractor struct{}

func (markdownExtractor) Extract(path string, budget int64) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", pipelineerrIO("extract.markdown.read", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(raw))

	var sb []byte
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			sb = append(sb, t.Segment.Value(raw)...)
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb = append(sb, '\n')
			}
		case ast.KindCodeSpan, ast.KindString:
			// inline literals: fall through to text nodes they contain.
		}
		if int64(len(sb)) >= budget {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", corrupt("extract.markdown.walk", err)
	}
	return truncate(string(sb), budget), nil
}
