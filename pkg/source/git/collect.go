package git

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/threatmap/threatmap/pkg/errors"
)

type fileKind int

const (
	fileOther fileKind = iota
	fileTerraform
	fileDoc
)

// Collect walks a checkout and gathers Terraform sources and documentation
// with their contents. Paths are slash-separated and relative to root; the
// lexical directory walk keeps ordering deterministic. Unreadable files and
// files with unsafe paths are logged and skipped rather than failing the
// whole checkout.
func Collect(root string) (tf, docs []File, err error) {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, entryErr error) error {
		if entryErr != nil {
			return entryErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}

		kind := classify(d.Name())
		if kind == fileOther {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		// Checkout contents are repository-controlled; drop anything with a
		// hostile path before it reaches reports or cache keys.
		if pathErr := errors.ValidatePath(filepath.ToSlash(rel)); pathErr != nil {
			log.Warn("Skipping file with unsafe path", "path", rel, "error", pathErr)
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Warn("Failed to read file", "path", rel, "error", readErr)
			return nil
		}

		f := File{Path: filepath.ToSlash(rel), Content: string(data)}
		switch kind {
		case fileTerraform:
			tf = append(tf, f)
		case fileDoc:
			docs = append(docs, f)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, walkErr, "walk checkout")
	}
	return tf, docs, nil
}

// classify sorts a file name into Terraform source, documentation, or
// neither. The rules mirror the sparse checkout patterns.
func classify(name string) fileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tf", ".tfvars":
		return fileTerraform
	case ".md", ".txt":
		return fileDoc
	}
	if strings.HasPrefix(name, "README") || strings.HasPrefix(name, "LICENSE") {
		return fileDoc
	}
	return fileOther
}
