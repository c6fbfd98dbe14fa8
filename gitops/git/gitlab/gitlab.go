package gitlab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/repo_editor/gitops/git"
)

const (
	pageSize = 100
	maxPages = 10
)

// Config holds the settings needed to create a GitLab
// repository client.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/project").
	Repo string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
	// HTTPClient is the transport; nil uses the client
	// library default.
	HTTPClient *http.Client
}

// Provider talks to a single GitLab project.
//
// Pattern: Strategy -- implements git.Repository.
// Version tokens are last commit ids of a file.
type Provider struct {
	client *gl.Client
	repo   string
}

var _ git.Repository = (*Provider)(nil)

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	opts := []gl.ClientOptionFunc{gl.WithBaseURL(host)}
	if cfg.HTTPClient != nil {
		opts = append(opts, gl.WithHTTPClient(cfg.HTTPClient))
	}

	client, err := gl.NewClient(cfg.AccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client: client,
		repo:   cfg.Repo,
	}, nil
}

// ResolveRef returns the commit id at the tip of branch.
func (p *Provider) ResolveRef(
	ctx context.Context,
	branch string,
) (string, error) {
	const errCtx = "resolving gitlab branch"

	b, resp, err := p.client.Branches.GetBranch(
		p.repo, branch, gl.WithContext(ctx),
	)
	if err != nil {
		return "", fail(errCtx, branch, resp, err, nil)
	}

	if b.Commit == nil || b.Commit.ID == "" {
		return "", fmt.Errorf(
			"%s: %s: no commit: %w",
			errCtx, branch, git.ErrRemoteRejected,
		)
	}

	return b.Commit.ID, nil
}

// CreateRef creates branch at commit. GitLab answers
// 400 when the branch already exists.
func (p *Provider) CreateRef(
	ctx context.Context,
	branch string,
	commit string,
) error {
	const errCtx = "creating gitlab branch"

	_, resp, err := p.client.Branches.CreateBranch(
		p.repo,
		&gl.CreateBranchOptions{
			Branch: gl.Ptr(branch),
			Ref:    gl.Ptr(commit),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fail(errCtx, branch, resp, err, git.ErrAlreadyExists)
	}

	return nil
}

// ReadBlob returns the file at path on branch.
func (p *Provider) ReadBlob(
	ctx context.Context,
	path string,
	branch string,
) (*git.Blob, error) {
	const errCtx = "reading gitlab file"

	f, resp, err := p.client.RepositoryFiles.GetFile(
		p.repo,
		path,
		&gl.GetFileOptions{Ref: gl.Ptr(branch)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fail(errCtx, path, resp, err, nil)
	}

	content := []byte(f.Content)

	if f.Encoding == "base64" {
		content, err = base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %s: decode: %w", errCtx, path, err,
			)
		}
	}

	return &git.Blob{
		Path:    f.FilePath,
		Content: content,
		Version: f.LastCommitID,
	}, nil
}

// WriteBlob commits the file through the commits API
// and returns the new commit id, which becomes the
// file's last commit id. GitLab answers 400 both for a
// stale last_commit_id and for creating a file that
// exists.
func (p *Provider) WriteBlob(
	ctx context.Context,
	w git.BlobWrite,
) (string, error) {
	const errCtx = "writing gitlab file"

	action := &gl.CommitActionOptions{
		Action:   gl.Ptr(gl.FileCreate),
		FilePath: gl.Ptr(w.Path),
		Content:  gl.Ptr(base64.StdEncoding.EncodeToString(w.Content)),
		Encoding: gl.Ptr("base64"),
	}

	if w.BaseVersion != "" {
		action.Action = gl.Ptr(gl.FileUpdate)
		action.LastCommitID = gl.Ptr(w.BaseVersion)
	}

	c, resp, err := p.client.Commits.CreateCommit(
		p.repo,
		&gl.CreateCommitOptions{
			Branch:        gl.Ptr(w.Branch),
			CommitMessage: gl.Ptr(w.Message),
			Actions:       []*gl.CommitActionOptions{action},
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", fail(errCtx, w.Path, resp, err, git.ErrVersionConflict)
	}

	if c == nil || c.ID == "" {
		// The commit may have landed; an empty token only
		// forces the next writer to re-read.
		slog.Warn(
			"gitlab commit returned no id",
			"path", w.Path,
			"branch", w.Branch,
		)

		return "", nil
	}

	return c.ID, nil
}

// ListFiles lists the tree at dir on branch.
func (p *Provider) ListFiles(
	ctx context.Context,
	dir string,
	branch string,
) ([]git.Entry, error) {
	const errCtx = "listing gitlab tree"

	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: pageSize},
		Ref:         gl.Ptr(branch),
	}

	if dir != "" {
		opts.Path = gl.Ptr(dir)
	}

	out := []git.Entry{}

	for range maxPages {
		nodes, resp, err := p.client.Repositories.ListTree(
			p.repo, opts, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, fail(errCtx, dir, resp, err, nil)
		}

		for _, n := range nodes {
			kind := "file"
			if n.Type == "tree" {
				kind = "dir"
			}

			out = append(out, git.Entry{
				Name: n.Name,
				Path: n.Path,
				Type: kind,
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return out, nil
}

// CreatePR creates a merge request from branch "from"
// into branch "to". GitLab answers 409 when one already
// exists for the source branch.
func (p *Provider) CreatePR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (*git.PullRequestRef, error) {
	const errCtx = "creating gitlab merge request"

	opts := gl.CreateMergeRequestOptions{
		Title:        &title,
		Description:  &body,
		SourceBranch: &from,
		TargetBranch: &to,
	}

	created, resp, err := p.client.MergeRequests.CreateMergeRequest(
		p.repo, &opts, gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fail(errCtx, from, resp, err, git.ErrAlreadyExists)
	}

	slog.Info(
		"created merge request",
		"url", created.WebURL,
	)

	return &git.PullRequestRef{
		Number: int(created.IID),
		URL:    created.WebURL,
	}, nil
}

// fail logs a failed call and classifies it. onConflict
// is the taxonomy kind for 400 and 409 answers of this
// operation; nil means ErrRemoteRejected.
func fail(
	errCtx string,
	subject string,
	resp *gl.Response,
	err error,
	onConflict error,
) error {
	var kind error

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		resp == nil || resp.Response == nil:
		kind = git.ErrRemoteUnavailable
	case onConflict != nil &&
		(resp.StatusCode == http.StatusBadRequest ||
			resp.StatusCode == http.StatusConflict):
		kind = onConflict
	default:
		kind = git.ClassifyStatus(resp.StatusCode)
	}

	slog.Warn(
		"gitlab request failed",
		"op", errCtx,
		"subject", subject,
		"error", err,
	)

	return fmt.Errorf("%s: %s: %w: %w", errCtx, subject, kind, err)
}
