package prer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/gitops/git/memory"
	"github.com/byte4ever/repo_editor/gitops/prer"
)

func TestListFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New("main", memory.WithFiles(map[string]string{
		"sheets/data/b.csv":       "b\n",
		"sheets/data/a.csv":       "a\n",
		"sheets/data/notes.md":    "n\n",
		"sheets/data/old/x.csv":   "x\n",
		"sheets/other/ignore.csv": "i\n",
	}))
	wf := newWorkflow(t, repo, func(c *prer.Config) {
		c.PathPrefix = "/sheets/"
	})

	files, err := wf.ListFiles(ctx, "data", ".csv")
	require.NoError(t, err)
	assert.Equal(t, []git.Entry{
		{Name: "a.csv", Path: "data/a.csv", Type: "file"},
		{Name: "b.csv", Path: "data/b.csv", Type: "file"},
	}, files)

	files, err = wf.ListFiles(ctx, "missing", ".csv")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = wf.ListFiles(ctx, "../etc", "")
	assert.ErrorIs(t, err, prer.ErrInvalidRequest)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New("main", memory.WithFiles(map[string]string{
		"sheets/data/a.csv": "a,b\n",
	}))
	wf := newWorkflow(t, repo, func(c *prer.Config) {
		c.PathPrefix = "sheets"
	})

	f, err := wf.ReadFile(ctx, "data/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "data/a.csv", f.Path)
	assert.Equal(t, "a,b\n", f.Content)
	assert.NotEmpty(t, f.Version)

	_, err = wf.ReadFile(ctx, "data/none.csv")
	assert.ErrorIs(t, err, git.ErrNotFound)

	_, err = wf.ReadFile(ctx, "")
	assert.ErrorIs(t, err, prer.ErrInvalidRequest)
}
