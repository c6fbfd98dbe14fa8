package git

import (
	"context"
	"time"
)

// TrackerWithTimeout returns a Tracker that bounds every
// call to tr by d. A non-positive d returns tr unchanged.
func TrackerWithTimeout(tr Tracker, d time.Duration) Tracker {
	if d <= 0 {
		return tr
	}

	return &boundedTracker{tr: tr, timeout: d}
}

type boundedTracker struct {
	tr      Tracker
	timeout time.Duration
}

func (b *boundedTracker) ListIssues(
	ctx context.Context,
	state string,
) ([]Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.ListIssues(ctx, state)
}

func (b *boundedTracker) GetIssue(
	ctx context.Context,
	number int,
) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.GetIssue(ctx, number)
}

func (b *boundedTracker) CreateIssue(
	ctx context.Context,
	title string,
	body string,
	labels []string,
) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.CreateIssue(ctx, title, body, labels)
}

func (b *boundedTracker) UpdateIssue(
	ctx context.Context,
	number int,
	fields IssueFields,
) (*Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.UpdateIssue(ctx, number, fields)
}

func (b *boundedTracker) ListIssueComments(
	ctx context.Context,
	number int,
) ([]Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.ListIssueComments(ctx, number)
}

func (b *boundedTracker) ListPullRequests(
	ctx context.Context,
	state string,
) ([]PullRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.ListPullRequests(ctx, state)
}

func (b *boundedTracker) GetPullRequest(
	ctx context.Context,
	number int,
) (*PullRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.GetPullRequest(ctx, number)
}

func (b *boundedTracker) ListPullRequestFiles(
	ctx context.Context,
	number int,
) ([]ChangedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	return b.tr.ListPullRequestFiles(ctx, number)
}
