package git_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/gitops/git/memory"
)

func TestPullRequestCreatorFunc_CreatePR_passes_args(
	t *testing.T,
) {
	t.Parallel()

	var (
		gotFrom  string
		gotTo    string
		gotTitle string
		gotBody  string
	)

	fn := git.PullRequestCreatorFunc(
		func(
			_ context.Context,
			from string,
			to string,
			title string,
			body string,
		) (*git.PullRequestRef, error) {
			gotFrom = from
			gotTo = to
			gotTitle = title
			gotBody = body

			return &git.PullRequestRef{Number: 7}, nil
		},
	)

	ref, err := fn.CreatePR(
		context.Background(),
		"update-csv-1",
		"main",
		"my title",
		"my body",
	)

	require.NoError(t, err)
	assert.Equal(t, 7, ref.Number)
	assert.Equal(t, "update-csv-1", gotFrom)
	assert.Equal(t, "main", gotTo)
	assert.Equal(t, "my title", gotTitle)
	assert.Equal(t, "my body", gotBody)
}

func TestPullRequestCreatorFunc_CreatePR_empty_body_uses_title(
	t *testing.T,
) {
	t.Parallel()

	var gotBody string

	fn := git.PullRequestCreatorFunc(
		func(
			_ context.Context,
			_ string,
			_ string,
			_ string,
			body string,
		) (*git.PullRequestRef, error) {
			gotBody = body

			return &git.PullRequestRef{}, nil
		},
	)

	_, err := fn.CreatePR(
		context.Background(),
		"a",
		"b",
		"the title",
		"",
	)

	require.NoError(t, err)
	assert.Equal(t, "the title", gotBody)
}

func TestPullRequestCreatorFunc_CreatePR_returns_error(
	t *testing.T,
) {
	t.Parallel()

	errTest := errors.New("test error")

	fn := git.PullRequestCreatorFunc(
		func(
			_ context.Context,
			_ string,
			_ string,
			_ string,
			_ string,
		) (*git.PullRequestRef, error) {
			return nil, errTest
		},
	)

	_, err := fn.CreatePR(
		context.Background(),
		"a",
		"b",
		"t",
		"d",
	)

	assert.ErrorIs(t, err, errTest)
}

func TestWithPullRequestCreator_overrides_only_create(
	t *testing.T,
) {
	t.Parallel()

	ctx := context.Background()
	remote := memory.New("main")

	errTest := errors.New("pr service down")

	repo := git.WithPullRequestCreator(
		remote,
		git.PullRequestCreatorFunc(
			func(
				_ context.Context,
				_ string,
				_ string,
				_ string,
				_ string,
			) (*git.PullRequestRef, error) {
				return nil, errTest
			},
		),
	)

	head, err := repo.ResolveRef(ctx, "main")
	require.NoError(t, err)
	assert.NotEmpty(t, head)

	_, err = repo.CreatePR(ctx, "x", "main", "t", "b")
	assert.ErrorIs(t, err, errTest)
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			want:   git.ErrNotFound,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			want:   git.ErrRemoteUnavailable,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			want:   git.ErrRemoteUnavailable,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			want:   git.ErrRemoteRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(
				t, git.ClassifyStatus(tt.status), tt.want,
			)
		})
	}
}
