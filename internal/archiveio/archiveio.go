// Copyright 2026 Archivist Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archiveio extracts a ZIP source archive onto disk, refusing
// any entry that would escape the destination root via `..` segments or
// an absolute path.
package archiveio

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/haldorsen/archivist/internal/pipelineerr"
)

// ExtractZip extracts every entry of archivePath into destRoot, verifying
// containment for each resolved entry path before writing it.
func ExtractZip(archivePath, destRoot string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return pipelineerr.New(pipelineerr.KindIO, "archiveio.open", err)
	}
	defer r.Close()

	absRoot, err := filepath.Abs(destRoot)
	if err != nil {
		return pipelineerr.New(pipelineerr.KindIO, "archiveio.abs_root", err)
	}

	for _, f := range r.File {
		target, err := resolveEntryPath(absRoot, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return pipelineerr.New(pipelineerr.KindIO, "archiveio.mkdir", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return pipelineerr.New(pipelineerr.KindIO, "archiveio.mkdir_parent", err)
		}
		if err := extractEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

// resolveEntryPath joins root with name and rejects the result if it
// would land outside root after cleaning, which also rejects absolute
// paths embedded in the entry name.
func resolveEntryPath(root, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", pipelineerr.New(pipelineerr.KindIO, "archiveio.entry", errContainment(name))
	}
	cleaned := filepath.Clean(filepath.Join(root, name))
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(os.PathSeparator)) {
		return "", pipelineerr.New(pipelineerr.KindIO, "archiveio.entry", errContainment(name))
	}
	return cleaned, nil
}

type errContainment string

func (e errContainment) Error() string {
	return "zip entry escapes destination root: " + string(e)
}

func extractEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return pipelineerr.New(pipelineerr.KindIO, "archiveio.open_entry", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return pipelineerr.New(pipelineerr.KindIO, "archiveio.create", err)
	}
	defer out.Close()

	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(out, rc, buf); err != nil {
		return pipelineerr.New(pipelineerr.KindIO, "archiveio.copy", err)
	}
	return nil
}
