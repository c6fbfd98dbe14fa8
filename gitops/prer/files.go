package prer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/byte4ever/repo_editor/gitops/git"
)

// File is the current state of a file on the default
// branch.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Version string `json:"versionToken"`
}

// ListFiles lists the files of dir on the default
// branch whose name ends with ext. Both dir and the
// returned paths are relative to the path prefix. An
// empty dir lists the prefix itself; a missing dir lists
// nothing.
func (w *Workflow) ListFiles(
	ctx context.Context,
	dir string,
	ext string,
) ([]git.Entry, error) {
	const errCtx = "listing files"

	target := w.cfg.PathPrefix

	if strings.Trim(dir, "/") != "" {
		var err error

		target, err = w.ResolvePath(dir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	entries, err := w.cfg.Repository.ListFiles(
		sctx, target, w.cfg.DefaultBranch,
	)
	if errors.Is(err, git.ErrNotFound) {
		return []git.Entry{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	out := make([]git.Entry, 0, len(entries))

	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(e.Name, ext) {
			continue
		}

		e.Path = w.relative(e.Path)
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b git.Entry) int {
		return strings.Compare(a.Path, b.Path)
	})

	return out, nil
}

// ReadFile returns the file at p, relative to the path
// prefix, on the default branch.
func (w *Workflow) ReadFile(
	ctx context.Context,
	p string,
) (*File, error) {
	const errCtx = "reading file"

	target, err := w.ResolvePath(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	blob, err := w.cfg.Repository.ReadBlob(
		sctx, target, w.cfg.DefaultBranch,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &File{
		Path:    w.relative(target),
		Content: string(blob.Content),
		Version: blob.Version,
	}, nil
}

func (w *Workflow) relative(p string) string {
	if w.cfg.PathPrefix == "" {
		return p
	}

	return strings.TrimPrefix(p, w.cfg.PathPrefix+"/")
}
