package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/byte4ever/repo_editor/gitops/differ"
	"github.com/byte4ever/repo_editor/gitops/git"
)

// ListIssues implements git.Tracker. Issues are returned
// newest first.
func (r *Repo) ListIssues(
	ctx context.Context,
	state string,
) ([]git.Issue, error) {
	const errCtx = "listing issues"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]git.Issue, 0, len(r.issues))

	for _, is := range r.issues {
		if matchState(is.State, state) {
			out = append(out, cloneIssue(is))
		}
	}

	slices.SortFunc(out, func(a, b git.Issue) int {
		return cmp.Compare(b.Number, a.Number)
	})

	return out, nil
}

// GetIssue implements git.Tracker.
func (r *Repo) GetIssue(
	ctx context.Context,
	number int,
) (*git.Issue, error) {
	const errCtx = "getting issue"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	is, ok := r.issues[number]
	if !ok {
		return nil, fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	out := cloneIssue(is)

	return &out, nil
}

// CreateIssue implements git.Tracker.
func (r *Repo) CreateIssue(
	ctx context.Context,
	title string,
	body string,
	labels []string,
) (*git.Issue, error) {
	const errCtx = "creating issue"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if title == "" {
		return nil, fmt.Errorf(
			"%s: title is required: %w",
			errCtx, git.ErrRemoteRejected,
		)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	number := r.takeNumber()

	if labels == nil {
		labels = []string{}
	}

	is := &git.Issue{
		Number:    number,
		Title:     title,
		Body:      body,
		Labels:    slices.Clone(labels),
		State:     git.StateOpen,
		URL:       r.baseURL + "/issues/" + strconv.Itoa(number),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.issues[number] = is

	out := cloneIssue(is)

	return &out, nil
}

// UpdateIssue implements git.Tracker.
func (r *Repo) UpdateIssue(
	ctx context.Context,
	number int,
	fields git.IssueFields,
) (*git.Issue, error) {
	const errCtx = "updating issue"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	is, ok := r.issues[number]
	if !ok {
		return nil, fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	if fields.State != nil &&
		*fields.State != git.StateOpen &&
		*fields.State != git.StateClosed {
		return nil, fmt.Errorf(
			"%s: #%d: invalid state %q: %w",
			errCtx, number, *fields.State, git.ErrRemoteRejected,
		)
	}

	if fields.Title != nil {
		is.Title = *fields.Title
	}

	if fields.Body != nil {
		is.Body = *fields.Body
	}

	if fields.Labels != nil {
		is.Labels = slices.Clone(*fields.Labels)
	}

	if fields.State != nil {
		is.State = *fields.State
	}

	is.UpdatedAt = r.now().UTC()

	out := cloneIssue(is)

	return &out, nil
}

// AddComment appends a comment to an issue or pull
// request.
func (r *Repo) AddComment(
	number int,
	author string,
	body string,
) error {
	const errCtx = "adding comment"

	r.mu.Lock()
	defer r.mu.Unlock()

	_, isIssue := r.issues[number]
	_, isPull := r.pulls[number]

	if !isIssue && !isPull {
		return fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	r.seq++
	r.comments[number] = append(r.comments[number], git.Comment{
		ID:        int64(r.seq),
		Author:    author,
		Body:      body,
		CreatedAt: r.now().UTC(),
	})

	return nil
}

// ListIssueComments implements git.Tracker.
func (r *Repo) ListIssueComments(
	ctx context.Context,
	number int,
) ([]git.Comment, error) {
	const errCtx = "listing issue comments"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, isIssue := r.issues[number]
	_, isPull := r.pulls[number]

	if !isIssue && !isPull {
		return nil, fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	out := slices.Clone(r.comments[number])
	if out == nil {
		out = []git.Comment{}
	}

	return out, nil
}

// ListPullRequests implements git.Tracker. Pull requests
// are returned newest first.
func (r *Repo) ListPullRequests(
	ctx context.Context,
	state string,
) ([]git.PullRequest, error) {
	const errCtx = "listing pull requests"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]git.PullRequest, 0, len(r.pulls))

	for _, pr := range r.pulls {
		if matchState(pr.State, state) {
			out = append(out, clonePull(pr))
		}
	}

	slices.SortFunc(out, func(a, b git.PullRequest) int {
		return cmp.Compare(b.Number, a.Number)
	})

	return out, nil
}

// GetPullRequest implements git.Tracker.
func (r *Repo) GetPullRequest(
	ctx context.Context,
	number int,
) (*git.PullRequest, error) {
	const errCtx = "getting pull request"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pr, ok := r.pulls[number]
	if !ok {
		return nil, fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	out := clonePull(pr)

	return &out, nil
}

// ListPullRequestFiles implements git.Tracker. Files are
// computed between the merge base and the head branch.
func (r *Repo) ListPullRequestFiles(
	ctx context.Context,
	number int,
) ([]git.ChangedFile, error) {
	const errCtx = "listing pull request files"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pr, ok := r.pulls[number]
	if !ok {
		return nil, fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	head, err := r.head(pr.Head)
	if err != nil {
		return nil, fmt.Errorf("%s: #%d: %w", errCtx, number, err)
	}

	base, err := r.head(pr.Base)
	if err != nil {
		return nil, fmt.Errorf("%s: #%d: %w", errCtx, number, err)
	}

	ancestor := r.commits[r.mergeBase(head.ID, base.ID)]

	out := []git.ChangedFile{}

	for _, p := range unionKeys(ancestor.files, head.files) {
		before, inBefore := ancestor.files[p]
		after, inAfter := head.files[p]

		if inBefore == inAfter && string(before) == string(after) {
			continue
		}

		cf := git.ChangedFile{Path: p, Status: "modified"}

		switch {
		case !inBefore:
			cf.Status = "added"
			before = nil
		case !inAfter:
			cf.Status = "removed"
		}

		cf.Additions, cf.Deletions = differ.Stats(before, after)

		patch, err := differ.Unified(p, before, after)
		if err != nil {
			return nil, fmt.Errorf("%s: #%d: %w", errCtx, number, err)
		}

		cf.Patch = patch
		out = append(out, cf)
	}

	return out, nil
}

// Content returns the raw bytes of path at the head of
// branch.
func (r *Repo) Content(branch string, path string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.head(branch)
	if err != nil {
		return nil, false
	}

	c, ok := head.files[path]

	return slices.Clone(c), ok
}

func matchState(got string, want string) bool {
	return want == "" || want == git.StateAll || got == want
}

func cloneIssue(is *git.Issue) git.Issue {
	out := *is
	out.Labels = slices.Clone(is.Labels)

	return out
}

func clonePull(pr *pullRequest) git.PullRequest {
	out := pr.PullRequest
	out.Labels = slices.Clone(pr.Labels)

	return out
}
