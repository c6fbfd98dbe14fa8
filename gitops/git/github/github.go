package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/repo_editor/gitops/git"
)

// pageSize is the per_page value of list calls.
const pageSize = 100

// maxPages bounds list pagination.
const maxPages = 10

// Config holds the settings needed to create a GitHub
// repository client.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// BaseURL overrides the REST API root. It takes
	// precedence over EnterpriseHost.
	BaseURL string
	// HTTPClient is the transport; nil uses
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Provider talks to a single GitHub repository.
//
// Pattern: Strategy -- implements git.Repository and
// git.Tracker.
type Provider struct {
	client    *gh.Client
	repoOwner string
	repo      string
}

var (
	_ git.Repository = (*Provider)(nil)
	_ git.Tracker    = (*Provider)(nil)
)

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(cfg.HTTPClient).
		WithAuthToken(cfg.AccessToken)

	switch {
	case cfg.BaseURL != "":
		base, err := url.Parse(
			strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: base url: %w", errCtx, err,
			)
		}

		client.BaseURL = base

	case cfg.EnterpriseHost != "":
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
	}, nil
}

// ResolveRef returns the commit sha at the tip of
// branch.
func (p *Provider) ResolveRef(
	ctx context.Context,
	branch string,
) (string, error) {
	const errCtx = "resolving github ref"

	ref, resp, err := p.client.Git.GetRef(
		ctx, p.repoOwner, p.repo, "heads/"+branch,
	)
	if err != nil {
		return "", p.fail(errCtx, branch, resp, err, nil)
	}

	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", fmt.Errorf(
			"%s: %s: empty object sha: %w",
			errCtx, branch, git.ErrRemoteRejected,
		)
	}

	return sha, nil
}

// refExistsMessage is the 422 message GitHub sends for
// a taken ref name. Other 422 answers (invalid names)
// are rejections.
const refExistsMessage = "Reference already exists"

// CreateRef creates branch pointing at commit.
func (p *Provider) CreateRef(
	ctx context.Context,
	branch string,
	commit string,
) error {
	const errCtx = "creating github ref"

	_, resp, err := p.client.Git.CreateRef(
		ctx, p.repoOwner, p.repo, &gh.Reference{
			Ref:    gh.Ptr("refs/heads/" + branch),
			Object: &gh.GitObject{SHA: gh.Ptr(commit)},
		},
	)
	if err != nil {
		onConflict := git.ErrRemoteRejected

		var er *gh.ErrorResponse
		if errors.As(err, &er) &&
			strings.Contains(er.Message, refExistsMessage) {
			onConflict = git.ErrAlreadyExists
		}

		return p.fail(errCtx, branch, resp, err, onConflict)
	}

	return nil
}

// ReadBlob returns the file at path on branch. Files
// above the contents API size limit are fetched as raw
// blobs.
func (p *Provider) ReadBlob(
	ctx context.Context,
	path string,
	branch string,
) (*git.Blob, error) {
	const errCtx = "reading github blob"

	fc, _, resp, err := p.client.Repositories.GetContents(
		ctx, p.repoOwner, p.repo, path,
		&gh.RepositoryContentGetOptions{Ref: branch},
	)
	if err != nil {
		return nil, p.fail(errCtx, path, resp, err, nil)
	}

	if fc == nil {
		return nil, fmt.Errorf(
			"%s: %s is a directory: %w",
			errCtx, path, git.ErrRemoteRejected,
		)
	}

	var content []byte

	if fc.GetEncoding() == "none" {
		raw, resp, err := p.client.Git.GetBlobRaw(
			ctx, p.repoOwner, p.repo, fc.GetSHA(),
		)
		if err != nil {
			return nil, p.fail(errCtx, path, resp, err, nil)
		}

		content = raw
	} else {
		text, err := fc.GetContent()
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %s: decode: %w", errCtx, path, err,
			)
		}

		content = []byte(text)
	}

	return &git.Blob{
		Path:    fc.GetPath(),
		Content: content,
		Version: fc.GetSHA(),
	}, nil
}

// WriteBlob commits the file through the contents API.
// A stale sha answers 409; a missing sha for an existing
// file answers 422. Both are version conflicts.
func (p *Provider) WriteBlob(
	ctx context.Context,
	w git.BlobWrite,
) (string, error) {
	const errCtx = "writing github blob"

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(w.Message),
		Content: w.Content,
		Branch:  gh.Ptr(w.Branch),
	}

	var (
		res  *gh.RepositoryContentResponse
		resp *gh.Response
		err  error
	)

	if w.BaseVersion == "" {
		res, resp, err = p.client.Repositories.CreateFile(
			ctx, p.repoOwner, p.repo, w.Path, opts,
		)
	} else {
		opts.SHA = gh.Ptr(w.BaseVersion)
		res, resp, err = p.client.Repositories.UpdateFile(
			ctx, p.repoOwner, p.repo, w.Path, opts,
		)
	}

	if err != nil {
		return "", p.fail(
			errCtx, w.Path, resp, err, git.ErrVersionConflict,
		)
	}

	return res.GetContent().GetSHA(), nil
}

// ListFiles lists the directory dir on branch.
func (p *Provider) ListFiles(
	ctx context.Context,
	dir string,
	branch string,
) ([]git.Entry, error) {
	const errCtx = "listing github directory"

	_, dc, resp, err := p.client.Repositories.GetContents(
		ctx, p.repoOwner, p.repo, dir,
		&gh.RepositoryContentGetOptions{Ref: branch},
	)
	if err != nil {
		return nil, p.fail(errCtx, dir, resp, err, nil)
	}

	if dc == nil {
		return nil, fmt.Errorf(
			"%s: %s is a file: %w",
			errCtx, dir, git.ErrRemoteRejected,
		)
	}

	entries := make([]git.Entry, 0, len(dc))

	for _, c := range dc {
		entries = append(entries, git.Entry{
			Name: c.GetName(),
			Path: c.GetPath(),
			Type: c.GetType(),
		})
	}

	return entries, nil
}

// CreatePR creates a pull request from branch "from"
// into branch "to". GitHub answers 422 when one already
// exists for this head/base pair.
func (p *Provider) CreatePR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (*git.PullRequestRef, error) {
	const errCtx = "creating github pull request"

	pr := &gh.NewPullRequest{
		Title: &title,
		Head:  &from,
		Base:  &to,
		Body:  &body,
	}

	created, resp, err := p.client.PullRequests.Create(
		ctx, p.repoOwner, p.repo, pr,
	)
	if err != nil {
		return nil, p.fail(
			errCtx, from, resp, err, git.ErrAlreadyExists,
		)
	}

	slog.Info(
		"created pull request",
		"url", created.GetHTMLURL(),
	)

	return &git.PullRequestRef{
		Number: created.GetNumber(),
		URL:    created.GetHTMLURL(),
	}, nil
}

// fail logs a failed call and classifies it. onConflict
// is the taxonomy kind for 409 and 422 answers of this
// operation; nil means ErrRemoteRejected.
func (p *Provider) fail(
	errCtx string,
	subject string,
	resp *gh.Response,
	err error,
	onConflict error,
) error {
	kind := classify(resp, err, onConflict)

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	slog.Warn(
		"github request failed",
		"op", errCtx,
		"subject", subject,
		"status", status,
		"error", err,
	)

	return fmt.Errorf("%s: %s: %w: %w", errCtx, subject, kind, err)
}

// classify maps a go-github failure onto the git
// taxonomy.
func classify(
	resp *gh.Response,
	err error,
	onConflict error,
) error {
	var (
		rle *gh.RateLimitError
		are *gh.AbuseRateLimitError
	)

	if errors.As(err, &rle) || errors.As(err, &are) {
		return git.ErrRemoteUnavailable
	}

	if resp == nil || resp.Response == nil {
		return git.ErrRemoteUnavailable
	}

	switch resp.StatusCode {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		if onConflict != nil {
			return onConflict
		}
	}

	return git.ClassifyStatus(resp.StatusCode)
}
