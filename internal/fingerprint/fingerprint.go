// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fingerprint computes a per-file content fingerprint and
// metadata record: a streamed sha256 digest plus size, mtime, extension,
// and MIME type, with a content-sniffing override for extensions the
// static table can't resolve confidently.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// streamBufSize bounds the hashing buffer so memory stays
// O(W × buffer) regardless of file size.
const streamBufSize = 64 * 1024

// Record is the per-file fingerprint and metadata produced for one file.
type Record struct {
	Extension    string // lowercased, no leading dot
	SizeBytes    int64
	ModTime      time.Time
	ContentHash  string // lowercase hex sha256
	MIME         string
}

// ambiguousExtensions are extensions whose static MIME mapping is
// unreliable enough to warrant content sniffing (no extension, or a
// generic binary/container extension that covers multiple real formats).
var ambiguousExtensions = map[string]bool{
	"":    true,
	"dat": true,
	"bin": true,
	"tmp": true,
}

// Compute streams fullPath through sha256 and stats it. It never reads
// more than streamBufSize at a time regardless of file size, keeping
// memory bounded for large files. Unreadable files return a
// pipelineerr with KindIO.
func Compute(fullPath string) (Record, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return Record{}, pipelineerr.New(pipelineerr.KindIO, "fingerprint.open", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Record{}, pipelineerr.New(pipelineerr.KindIO, "fingerprint.stat", err)
	}

	h := sha256.New()
	buf := make([]byte, streamBufSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return Record{}, pipelineerr.New(pipelineerr.KindIO, "fingerprint.read", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fullPath), "."))
	mime := resolveMIME(fullPath, ext)

	return Record{
		Extension:   ext,
		SizeBytes:   info.Size(),
		ModTime:     info.ModTime(),
		ContentHash: hex.EncodeToString(h.Sum(nil)),
		MIME:        mime,
	}, nil
}

// resolveMIME looks up ext in the static table first; for ambiguous or
// missing entries it sniffs file content instead.
func resolveMIME(fullPath, ext string) string {
	if m, ok := extensionMIME[ext]; ok && !ambiguousExtensions[ext] {
		return m
	}
	m, err := mimetype.DetectFile(fullPath)
	if err != nil || m == nil {
		if m2, ok := extensionMIME[ext]; ok {
			return m2
		}
		return "application/octet-stream"
	}
	return m.String()
}

// extensionMIME is the static extension→MIME table consulted before any
// content sniffing is attempted.
var extensionMIME = map[string]string{
	"txt":  "text/plain",
	"md":   "text/markdown",
	"markdown": "text/markdown",
	"csv":  "text/csv",
	"json": "application/json",
	"xml":  "application/xml",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/vnd.rar",
	"exe":  "application/x-msdownload",
	"dll":  "application/x-msdownload",
}

// IsBinaryCategory reports whether MIME belongs to a binary category
// (image, audio, video, archive, executable), which always yields empty
// extracted text.
func IsBinaryCategory(mime string) bool {
	switch {
	case strings.HasPrefix(mime, "image/"),
		strings.HasPrefix(mime, "audio/"),
		strings.HasPrefix(mime, "video/"):
		return true
	}
	switch mime {
	case "application/zip", "application/x-tar", "application/gzip",
		"application/x-7z-compressed", "application/vnd.rar",
		"application/x-msdownload":
		return true
	}
	return false
}
