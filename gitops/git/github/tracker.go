package github

import (
	"context"
	"strconv"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/repo_editor/gitops/git"
)

// ListIssues lists issues in state, excluding pull
// requests, which GitHub returns from the same endpoint.
func (p *Provider) ListIssues(
	ctx context.Context,
	state string,
) ([]git.Issue, error) {
	const errCtx = "listing github issues"

	opts := &gh.IssueListByRepoOptions{
		State:       state,
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	out := []git.Issue{}

	for range maxPages {
		page, resp, err := p.client.Issues.ListByRepo(
			ctx, p.repoOwner, p.repo, opts,
		)
		if err != nil {
			return nil, p.fail(errCtx, state, resp, err, nil)
		}

		for _, is := range page {
			if is.IsPullRequest() {
				continue
			}

			out = append(out, toIssue(is))
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

// GetIssue returns issue number.
func (p *Provider) GetIssue(
	ctx context.Context,
	number int,
) (*git.Issue, error) {
	const errCtx = "getting github issue"

	is, resp, err := p.client.Issues.Get(
		ctx, p.repoOwner, p.repo, number,
	)
	if err != nil {
		return nil, p.fail(errCtx, hash(number), resp, err, nil)
	}

	out := toIssue(is)

	return &out, nil
}

// CreateIssue opens a new issue.
func (p *Provider) CreateIssue(
	ctx context.Context,
	title string,
	body string,
	labels []string,
) (*git.Issue, error) {
	const errCtx = "creating github issue"

	if labels == nil {
		labels = []string{}
	}

	is, resp, err := p.client.Issues.Create(
		ctx, p.repoOwner, p.repo, &gh.IssueRequest{
			Title:  &title,
			Body:   &body,
			Labels: &labels,
		},
	)
	if err != nil {
		return nil, p.fail(errCtx, title, resp, err, nil)
	}

	out := toIssue(is)

	return &out, nil
}

// UpdateIssue edits the non-nil fields of issue number.
func (p *Provider) UpdateIssue(
	ctx context.Context,
	number int,
	fields git.IssueFields,
) (*git.Issue, error) {
	const errCtx = "updating github issue"

	is, resp, err := p.client.Issues.Edit(
		ctx, p.repoOwner, p.repo, number, &gh.IssueRequest{
			Title:  fields.Title,
			Body:   fields.Body,
			Labels: fields.Labels,
			State:  fields.State,
		},
	)
	if err != nil {
		return nil, p.fail(errCtx, hash(number), resp, err, nil)
	}

	out := toIssue(is)

	return &out, nil
}

// ListIssueComments lists comments of an issue or pull
// request.
func (p *Provider) ListIssueComments(
	ctx context.Context,
	number int,
) ([]git.Comment, error) {
	const errCtx = "listing github issue comments"

	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	out := []git.Comment{}

	for range maxPages {
		page, resp, err := p.client.Issues.ListComments(
			ctx, p.repoOwner, p.repo, number, opts,
		)
		if err != nil {
			return nil, p.fail(errCtx, hash(number), resp, err, nil)
		}

		for _, c := range page {
			out = append(out, git.Comment{
				ID:        c.GetID(),
				Author:    c.GetUser().GetLogin(),
				Body:      c.GetBody(),
				CreatedAt: c.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

// ListPullRequests lists pull requests in state.
func (p *Provider) ListPullRequests(
	ctx context.Context,
	state string,
) ([]git.PullRequest, error) {
	const errCtx = "listing github pull requests"

	opts := &gh.PullRequestListOptions{
		State:       state,
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	out := []git.PullRequest{}

	for range maxPages {
		page, resp, err := p.client.PullRequests.List(
			ctx, p.repoOwner, p.repo, opts,
		)
		if err != nil {
			return nil, p.fail(errCtx, state, resp, err, nil)
		}

		for _, pr := range page {
			out = append(out, toPullRequest(pr))
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

// GetPullRequest returns pull request number.
func (p *Provider) GetPullRequest(
	ctx context.Context,
	number int,
) (*git.PullRequest, error) {
	const errCtx = "getting github pull request"

	pr, resp, err := p.client.PullRequests.Get(
		ctx, p.repoOwner, p.repo, number,
	)
	if err != nil {
		return nil, p.fail(errCtx, hash(number), resp, err, nil)
	}

	out := toPullRequest(pr)

	return &out, nil
}

// ListPullRequestFiles lists the files changed by pull
// request number.
func (p *Provider) ListPullRequestFiles(
	ctx context.Context,
	number int,
) ([]git.ChangedFile, error) {
	const errCtx = "listing github pull request files"

	opts := &gh.ListOptions{PerPage: pageSize}

	out := []git.ChangedFile{}

	for range maxPages {
		page, resp, err := p.client.PullRequests.ListFiles(
			ctx, p.repoOwner, p.repo, number, opts,
		)
		if err != nil {
			return nil, p.fail(errCtx, hash(number), resp, err, nil)
		}

		for _, f := range page {
			out = append(out, git.ChangedFile{
				Path:      f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

func toIssue(is *gh.Issue) git.Issue {
	return git.Issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		Body:      is.GetBody(),
		Labels:    labelNames(is.Labels),
		State:     is.GetState(),
		Author:    is.GetUser().GetLogin(),
		URL:       is.GetHTMLURL(),
		CreatedAt: is.GetCreatedAt().Time,
		UpdatedAt: is.GetUpdatedAt().Time,
	}
}

func toPullRequest(pr *gh.PullRequest) git.PullRequest {
	return git.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		Labels:    labelNames(pr.Labels),
		State:     pr.GetState(),
		Author:    pr.GetUser().GetLogin(),
		URL:       pr.GetHTMLURL(),
		Head:      pr.GetHead().GetRef(),
		Base:      pr.GetBase().GetRef(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
	}
}

func labelNames(labels []*gh.Label) []string {
	out := make([]string, 0, len(labels))

	for _, l := range labels {
		out = append(out, l.GetName())
	}

	return out
}

func hash(number int) string {
	return "#" + strconv.Itoa(number)
}
