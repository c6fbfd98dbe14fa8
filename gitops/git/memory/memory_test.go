package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/gitops/digester"
	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/gitops/git/memory"
)

func TestRepo_refs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New("main")

	head, err := repo.ResolveRef(ctx, "main")
	require.NoError(t, err)

	require.NoError(t, repo.CreateRef(ctx, "topic", head))

	got, err := repo.ResolveRef(ctx, "topic")
	require.NoError(t, err)
	assert.Equal(t, head, got)

	err = repo.CreateRef(ctx, "topic", head)
	assert.ErrorIs(t, err, git.ErrAlreadyExists)

	_, err = repo.ResolveRef(ctx, "missing")
	assert.ErrorIs(t, err, git.ErrNotFound)

	err = repo.CreateRef(ctx, "other", "deadbeef")
	assert.ErrorIs(t, err, git.ErrNotFound)
}

func TestRepo_blob_versions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New(
		"main",
		memory.WithFiles(map[string]string{
			"data/a.csv": "a,b\n",
		}),
	)

	blob, err := repo.ReadBlob(ctx, "data/a.csv", "main")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(blob.Content))
	assert.Equal(t, digester.BlobID([]byte("a,b\n")), blob.Version)

	_, err = repo.ReadBlob(ctx, "data/missing.csv", "main")
	assert.ErrorIs(t, err, git.ErrNotFound)

	_, err = repo.WriteBlob(ctx, git.BlobWrite{
		Path:    "data/a.csv",
		Content: []byte("x\n"),
		Branch:  "main",
		Message: "no token",
	})
	assert.ErrorIs(t, err, git.ErrVersionConflict)

	_, err = repo.WriteBlob(ctx, git.BlobWrite{
		Path:        "data/a.csv",
		Content:     []byte("x\n"),
		Branch:      "main",
		BaseVersion: "stale",
		Message:     "stale token",
	})
	assert.ErrorIs(t, err, git.ErrVersionConflict)

	version, err := repo.WriteBlob(ctx, git.BlobWrite{
		Path:        "data/a.csv",
		Content:     []byte("a,b\n1,2\n"),
		Branch:      "main",
		BaseVersion: blob.Version,
		Message:     "update",
	})
	require.NoError(t, err)
	assert.Equal(t, digester.BlobID([]byte("a,b\n1,2\n")), version)

	log, err := repo.Log("main")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "update", log[0].Message)
	assert.Equal(t, []string{"data/a.csv"}, log[0].Changed)
	assert.Equal(t, log[1].ID, log[0].Parent)

	_, err = repo.WriteBlob(ctx, git.BlobWrite{
		Path:    "x.csv",
		Content: []byte("x"),
		Branch:  "nope",
	})
	assert.ErrorIs(t, err, git.ErrNotFound)
}

func TestRepo_ListFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New(
		"main",
		memory.WithFiles(map[string]string{
			"data/a.csv":        "a",
			"data/b.csv":        "b",
			"data/nested/c.csv": "c",
			"README.md":         "r",
		}),
	)

	entries, err := repo.ListFiles(ctx, "data", "main")
	require.NoError(t, err)
	assert.Equal(t, []git.Entry{
		{Name: "a.csv", Path: "data/a.csv", Type: "file"},
		{Name: "b.csv", Path: "data/b.csv", Type: "file"},
		{Name: "nested", Path: "data/nested", Type: "dir"},
	}, entries)

	root, err := repo.ListFiles(ctx, "", "main")
	require.NoError(t, err)
	assert.Len(t, root, 2)

	_, err = repo.ListFiles(ctx, "nothing", "main")
	assert.ErrorIs(t, err, git.ErrNotFound)
}

func TestRepo_pull_request_lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New(
		"main",
		memory.WithBaseURL("https://example.com/o/r"),
	)

	head, err := repo.ResolveRef(ctx, "main")
	require.NoError(t, err)
	require.NoError(t, repo.CreateRef(ctx, "topic", head))

	_, err = repo.CreatePR(ctx, "topic", "main", "t", "b")
	assert.ErrorIs(t, err, git.ErrRemoteRejected)

	_, err = repo.WriteBlob(ctx, git.BlobWrite{
		Path:    "data/sample.csv",
		Content: []byte("a,b\n1,2\n"),
		Branch:  "topic",
		Message: "add sample",
	})
	require.NoError(t, err)

	ref, err := repo.CreatePR(ctx, "topic", "main", "t", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Number)
	assert.Equal(t, "https://example.com/o/r/pull/1", ref.URL)

	_, err = repo.CreatePR(ctx, "topic", "main", "t", "b")
	assert.ErrorIs(t, err, git.ErrAlreadyExists)

	files, err := repo.ListPullRequestFiles(ctx, ref.Number)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "data/sample.csv", files[0].Path)
	assert.Equal(t, "added", files[0].Status)
	assert.Equal(t, 2, files[0].Additions)

	pr, err := repo.GetPullRequest(ctx, ref.Number)
	require.NoError(t, err)
	assert.Equal(t, "topic", pr.Head)
	assert.Equal(t, "main", pr.Base)

	require.NoError(t, repo.Merge(ref.Number))

	content, ok := repo.Content("main", "data/sample.csv")
	require.True(t, ok)
	assert.Equal(t, "a,b\n1,2\n", string(content))

	open, err := repo.ListPullRequests(ctx, git.StateOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	err = repo.Merge(ref.Number)
	assert.ErrorIs(t, err, git.ErrRemoteRejected)
}

func TestRepo_Merge_conflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New(
		"main",
		memory.WithFiles(map[string]string{"f.csv": "a\n"}),
	)

	base, err := repo.ResolveRef(ctx, "main")
	require.NoError(t, err)

	blob, err := repo.ReadBlob(ctx, "f.csv", "main")
	require.NoError(t, err)

	var numbers []int

	for _, br := range []string{"one", "two"} {
		require.NoError(t, repo.CreateRef(ctx, br, base))

		_, err := repo.WriteBlob(ctx, git.BlobWrite{
			Path:        "f.csv",
			Content:     []byte(br + "\n"),
			Branch:      br,
			BaseVersion: blob.Version,
			Message:     br,
		})
		require.NoError(t, err)

		ref, err := repo.CreatePR(ctx, br, "main", br, "")
		require.NoError(t, err)

		numbers = append(numbers, ref.Number)
	}

	require.NoError(t, repo.Merge(numbers[0]))

	err = repo.Merge(numbers[1])
	assert.ErrorIs(t, err, git.ErrVersionConflict)

	content, ok := repo.Content("main", "f.csv")
	require.True(t, ok)
	assert.Equal(t, "one\n", string(content))
}

func TestRepo_issues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.New("main")

	first, err := repo.CreateIssue(ctx, "first", "body", []string{"bug"})
	require.NoError(t, err)
	assert.Equal(t, git.StateOpen, first.State)

	second, err := repo.CreateIssue(ctx, "second", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, second.Labels)

	_, err = repo.CreateIssue(ctx, "", "", nil)
	assert.ErrorIs(t, err, git.ErrRemoteRejected)

	closed := git.StateClosed
	title := "first, edited"

	updated, err := repo.UpdateIssue(ctx, first.Number, git.IssueFields{
		Title: &title,
		State: &closed,
	})
	require.NoError(t, err)
	assert.Equal(t, "first, edited", updated.Title)
	assert.Equal(t, "body", updated.Body)
	assert.Equal(t, git.StateClosed, updated.State)

	open, err := repo.ListIssues(ctx, git.StateOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "second", open[0].Title)

	all, err := repo.ListIssues(ctx, git.StateAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.Number, all[0].Number)

	bogus := "merged"
	_, err = repo.UpdateIssue(ctx, first.Number, git.IssueFields{
		State: &bogus,
	})
	assert.ErrorIs(t, err, git.ErrRemoteRejected)

	_, err = repo.GetIssue(ctx, 99)
	assert.ErrorIs(t, err, git.ErrNotFound)

	require.NoError(t, repo.AddComment(first.Number, "alice", "hi"))

	comments, err := repo.ListIssueComments(ctx, first.Number)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "alice", comments[0].Author)

	_, err = repo.ListIssueComments(ctx, 99)
	assert.ErrorIs(t, err, git.ErrNotFound)
}

func TestRepo_AfterReadBlob_hook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var calls []string

	repo := memory.New("main", memory.WithHooks(memory.Hooks{
		AfterReadBlob: func(path string, branch string) {
			calls = append(calls, branch+":"+path)
		},
	}))

	_, err := repo.ReadBlob(ctx, "x.csv", "main")
	assert.ErrorIs(t, err, git.ErrNotFound)
	assert.Equal(t, []string{"main:x.csv"}, calls)
}

func TestRepo_canceled_context(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := memory.New("main")

	_, err := repo.ResolveRef(ctx, "main")
	assert.ErrorIs(t, err, context.Canceled)
}
