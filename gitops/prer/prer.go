package prer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/byte4ever/repo_editor/gitops/commitmsg"
	"github.com/byte4ever/repo_editor/gitops/differ"
	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/templating"
)

// Defaults applied by New to zero Config fields.
const (
	DefaultStepTimeout        = 10 * time.Second
	DefaultBranchRetries      = 2
	DefaultBranchRetryBackoff = 100 * time.Millisecond
)

// Config holds all settings of a revision workflow. Use
// a Config struct instead of many arguments.
type Config struct {
	// Repository is the remote the workflow writes to.
	Repository git.Repository

	// DefaultBranch is both the base of every revision
	// branch and the pull request target.
	DefaultBranch string

	// PathPrefix is an optional subdirectory every
	// request path is resolved under.
	PathPrefix string

	// BranchPrefix prefixes generated branch names.
	// Ignored when Namer is set.
	BranchPrefix string

	// Namer overrides branch name generation.
	Namer BranchNamer

	// BranchRetries is the number of extra attempts,
	// each with a regenerated name, when the branch
	// name is taken. Negative disables retries.
	BranchRetries int

	// BranchRetryBackoff is the pause before each extra
	// attempt, doubled every time.
	BranchRetryBackoff time.Duration

	// StepTimeout bounds every remote call.
	StepTimeout time.Duration

	// Templates renders commit and pull request
	// messages the request leaves empty.
	Templates templating.Templates

	// Now overrides time.Now.
	Now func() time.Time
}

// Request is a single revision submission. It is
// consumed exactly once.
type Request struct {
	// Path is the target file, relative to PathPrefix.
	Path string `json:"path"`
	// Content is the complete new file content.
	Content []byte `json:"-"`
	// CommitMessage, Title and Description override the
	// configured templates when set.
	CommitMessage string `json:"commitMessage,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	// Author is the session identity, recorded in the
	// commit trailers.
	Author string `json:"-"`
}

// Result describes the pull request a revision opened.
// The pull request itself is the durable record.
type Result struct {
	Branch            string `json:"branchName"`
	PullRequestNumber int    `json:"pullRequestNumber"`
	PullRequestURL    string `json:"pullRequestUrl"`
	Path              string `json:"path"`
	BaseCommit        string `json:"baseCommit"`
	Version           string `json:"versionToken"`
	Created           bool   `json:"created"`
}

// Preview describes a revision without performing it.
type Preview struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	Unchanged bool   `json:"unchanged"`
	Version   string `json:"versionToken,omitempty"`
	Diff      string `json:"diff"`
}

// Workflow runs revision submissions. It holds no state
// across submissions and is safe for concurrent use.
type Workflow struct {
	cfg Config
	eng templating.Engine
}

// New validates cfg, applies defaults, and returns a
// Workflow.
func New(cfg Config) (*Workflow, error) {
	const errCtx = "creating revision workflow"

	if cfg.Repository == nil {
		return nil, fmt.Errorf(
			"%s: repository must be set", errCtx,
		)
	}

	if cfg.DefaultBranch == "" {
		return nil, fmt.Errorf(
			"%s: default branch must be set", errCtx,
		)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Namer == nil {
		prefix := cfg.BranchPrefix
		if prefix == "" {
			prefix = DefaultBranchPrefix
		}

		nm := NewNamer(prefix)
		nm.Now = cfg.Now
		cfg.Namer = nm
	}

	if cfg.BranchRetries == 0 {
		cfg.BranchRetries = DefaultBranchRetries
	}

	if cfg.BranchRetries < 0 {
		cfg.BranchRetries = 0
	}

	if cfg.BranchRetryBackoff == 0 {
		cfg.BranchRetryBackoff = DefaultBranchRetryBackoff
	}

	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultStepTimeout
	}

	cfg.PathPrefix = strings.Trim(cfg.PathPrefix, "/")
	cfg.Templates = cfg.Templates.WithDefaults()

	wf := &Workflow{cfg: cfg}

	if err := wf.eng.Validate(cfg.Templates); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return wf, nil
}

// DefaultBranch returns the configured default branch.
func (w *Workflow) DefaultBranch() string {
	return w.cfg.DefaultBranch
}

// StepTimeout returns the bound applied to each remote
// call.
func (w *Workflow) StepTimeout() time.Duration {
	return w.cfg.StepTimeout
}

// ResolvePath validates a request path and joins it
// under the configured prefix.
func (w *Workflow) ResolvePath(p string) (string, error) {
	const errCtx = "resolving path"

	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf(
			"%s: path is required: %w", errCtx, ErrInvalidRequest,
		)
	}

	if strings.HasPrefix(p, "/") ||
		slices.Contains(strings.Split(p, "/"), "..") {
		return "", fmt.Errorf(
			"%s: %q must be a relative path inside the "+
				"repository: %w",
			errCtx, p, ErrInvalidRequest,
		)
	}

	clean := path.Clean(p)
	if clean == "." {
		return "", fmt.Errorf(
			"%s: %q names no file: %w", errCtx, p, ErrInvalidRequest,
		)
	}

	return path.Join(w.cfg.PathPrefix, clean), nil
}

// Submit runs the revision workflow:
//  1. resolve the default branch tip,
//  2. create a fresh branch at it (bounded retry on name
//     collision),
//  3. read the target's version token on the branch,
//  4. commit the new content guarded by that token,
//  5. open a pull request into the default branch.
//
// Failures are *StepError values naming the step.
func (w *Workflow) Submit(
	ctx context.Context,
	req Request,
) (*Result, error) {
	target, err := w.ResolvePath(req.Path)
	if err != nil {
		return nil, stepErr(StepValidate, ErrInvalidRequest, "", err)
	}

	if len(req.Content) == 0 {
		return nil, stepErr(
			StepValidate, ErrInvalidRequest, "",
			errors.New("content is required"),
		)
	}

	log := slog.With("path", target)

	// Step 1: Resolve base.
	base, err := w.resolveBase(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("resolved base", "commit", base)

	// Step 2: Create branch.
	branch, err := w.createBranch(ctx, base)
	if err != nil {
		return nil, err
	}

	log = log.With("branch", branch)
	log.Info("created revision branch")

	// Step 3: Resolve current blob state.
	current, err := w.readBlob(ctx, target, branch)
	if err != nil {
		return nil, err
	}

	baseVersion := ""
	if current != nil {
		baseVersion = current.Version
	}

	// Step 4: Write blob.
	now := w.cfg.Now()
	vars := templating.Vars(target, req.Author, branch, now)

	summary := req.CommitMessage
	if summary == "" {
		summary = w.eng.Render(w.cfg.Templates.CommitMessage, vars)
	}

	msg := commitmsg.Generate(commitmsg.Message{
		Summary: summary,
		Path:    target,
		Author:  req.Author,
	})

	version, err := w.writeBlob(ctx, git.BlobWrite{
		Path:        target,
		Content:     req.Content,
		Branch:      branch,
		BaseVersion: baseVersion,
		Message:     msg,
	})
	if err != nil {
		return nil, err
	}

	log.Info(
		"committed revision",
		"version", version,
		"created", current == nil,
	)

	// Step 5: Open pull request.
	title := req.Title
	if title == "" {
		title = w.eng.Render(w.cfg.Templates.PRTitle, vars)
	}

	body := req.Description
	if body == "" {
		body = w.eng.Render(w.cfg.Templates.PRBody, vars)
	}

	ref, err := w.openPullRequest(ctx, branch, title, body)
	if err != nil {
		log.Error(
			"commit landed without pull request",
			"error", err,
		)

		return nil, err
	}

	log.Info(
		"opened pull request",
		"number", ref.Number,
		"url", ref.URL,
	)

	return &Result{
		Branch:            branch,
		PullRequestNumber: ref.Number,
		PullRequestURL:    ref.URL,
		Path:              target,
		BaseCommit:        base,
		Version:           version,
		Created:           current == nil,
	}, nil
}

// Preview diffs req.Content against the target file on
// the default branch. It performs no write.
func (w *Workflow) Preview(
	ctx context.Context,
	req Request,
) (*Preview, error) {
	const errCtx = "previewing revision"

	target, err := w.ResolvePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	blob, err := w.cfg.Repository.ReadBlob(
		sctx, target, w.cfg.DefaultBranch,
	)
	if err != nil && !errors.Is(err, git.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	pv := &Preview{Path: target}

	var before []byte

	if blob != nil {
		before = blob.Content
		pv.Exists = true
		pv.Version = blob.Version
		pv.Unchanged = bytes.Equal(blob.Content, req.Content)
	}

	pv.Diff, err = differ.Unified(target, before, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return pv, nil
}

// stepContext bounds one remote call.
func (w *Workflow) stepContext(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, w.cfg.StepTimeout)
}

func (w *Workflow) resolveBase(ctx context.Context) (string, error) {
	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	base, err := w.cfg.Repository.ResolveRef(sctx, w.cfg.DefaultBranch)
	if err != nil {
		return "", stepErr(StepResolveBase, ErrBaseResolution, "", err)
	}

	return base, nil
}

// createBranch tries up to 1+BranchRetries fresh names.
// Only name collisions are retried.
func (w *Workflow) createBranch(
	ctx context.Context,
	base string,
) (string, error) {
	backoff := w.cfg.BranchRetryBackoff

	var lastErr error

	for attempt := 0; attempt <= w.cfg.BranchRetries; attempt++ {
		if attempt > 0 {
			slog.Warn(
				"branch name taken, regenerating",
				"attempt", attempt,
				"error", lastErr,
			)

			if err := sleep(ctx, backoff); err != nil {
				return "", stepErr(
					StepCreateBranch, ErrBranchCreation, "", err,
				)
			}

			backoff *= 2
		}

		name := w.cfg.Namer.Next()

		sctx, cancel := w.stepContext(ctx)
		err := w.cfg.Repository.CreateRef(sctx, name, base)

		cancel()

		if err == nil {
			return name, nil
		}

		if !errors.Is(err, git.ErrAlreadyExists) {
			return "", stepErr(
				StepCreateBranch, ErrBranchCreation, "", err,
			)
		}

		lastErr = err
	}

	return "", stepErr(
		StepCreateBranch, ErrBranchCreation, "",
		fmt.Errorf(
			"gave up after %d attempts: %w",
			w.cfg.BranchRetries+1, lastErr,
		),
	)
}

// readBlob returns nil without error when the target
// does not exist yet.
func (w *Workflow) readBlob(
	ctx context.Context,
	target string,
	branch string,
) (*git.Blob, error) {
	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	blob, err := w.cfg.Repository.ReadBlob(sctx, target, branch)
	if errors.Is(err, git.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, stepErr(StepReadBlob, ErrBlobResolution, branch, err)
	}

	return blob, nil
}

func (w *Workflow) writeBlob(
	ctx context.Context,
	bw git.BlobWrite,
) (string, error) {
	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	version, err := w.cfg.Repository.WriteBlob(sctx, bw)

	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, git.ErrVersionConflict):
		return "", stepErr(
			StepWriteBlob, ErrConcurrentModification, bw.Branch, err,
		)
	default:
		return "", stepErr(StepWriteBlob, ErrBlobWrite, bw.Branch, err)
	}
}

func (w *Workflow) openPullRequest(
	ctx context.Context,
	branch string,
	title string,
	body string,
) (*git.PullRequestRef, error) {
	sctx, cancel := w.stepContext(ctx)
	defer cancel()

	ref, err := w.cfg.Repository.CreatePR(
		sctx, branch, w.cfg.DefaultBranch, title, body,
	)
	if err == nil && ref == nil {
		err = errors.New("remote returned no pull request")
	}

	if err != nil {
		return nil, stepErr(
			StepOpenPullRequest, ErrOrphanedCommit, branch, err,
		)
	}

	return ref, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	tm := time.NewTimer(d)
	defer tm.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tm.C:
		return nil
	}
}
