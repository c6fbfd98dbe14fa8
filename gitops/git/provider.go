package git

import (
	"context"
	"time"
)

// Pattern: Strategy -- swap git platform without
// changing the revision workflow.

// Blob is the content of a file at a branch together
// with its version token.
type Blob struct {
	Path    string
	Content []byte
	// Version is an opaque, content-derived token used
	// for optimistic concurrency on the next write.
	Version string
}

// BlobWrite describes a single-file commit. Leave
// BaseVersion empty when creating a new file.
type BlobWrite struct {
	Path        string
	Content     []byte
	Branch      string
	BaseVersion string
	Message     string
}

// Entry is one item of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// PullRequestRef identifies a newly created pull
// request.
type PullRequestRef struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Issue is the read model of a tracker issue.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Labels    []string  `json:"labels"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IssueFields holds the mutable fields of an issue.
// Nil members are left untouched on update.
type IssueFields struct {
	Title  *string   `json:"title,omitempty"`
	Body   *string   `json:"body,omitempty"`
	Labels *[]string `json:"labels,omitempty"`
	State  *string   `json:"state,omitempty"`
}

// PullRequest is the read model of a pull request.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Labels    []string  `json:"labels"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	Head      string    `json:"head"`
	Base      string    `json:"base"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChangedFile is one file touched by a pull request.
type ChangedFile struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// Comment is a single issue or pull request comment.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// State filters for issue and pull request listings.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// PullRequestCreator opens pull requests on a git
// hosting platform.
type PullRequestCreator interface {
	CreatePR(
		ctx context.Context,
		from string,
		to string,
		title string,
		body string,
	) (*PullRequestRef, error)
}

// Repository is the capability set the revision
// workflow needs from a single hosted repository. Every
// method is one blocking remote call with no retry.
type Repository interface {
	PullRequestCreator

	// ResolveRef returns the commit at the tip of
	// branch, or ErrNotFound.
	ResolveRef(ctx context.Context, branch string) (string, error)

	// CreateRef creates branch at commit, or fails with
	// ErrAlreadyExists.
	CreateRef(ctx context.Context, branch string, commit string) error

	// ReadBlob returns the file at path on branch, or
	// ErrNotFound.
	ReadBlob(ctx context.Context, path string, branch string) (*Blob, error)

	// WriteBlob commits w and returns the new version
	// token. A stale or missing BaseVersion yields
	// ErrVersionConflict.
	WriteBlob(ctx context.Context, w BlobWrite) (string, error)

	// ListFiles lists the directory dir on branch.
	ListFiles(ctx context.Context, dir string, branch string) ([]Entry, error)
}

// Tracker exposes the issue and pull request read/write
// surface of a hosted repository.
type Tracker interface {
	ListIssues(ctx context.Context, state string) ([]Issue, error)
	GetIssue(ctx context.Context, number int) (*Issue, error)
	CreateIssue(ctx context.Context, title string, body string, labels []string) (*Issue, error)
	UpdateIssue(ctx context.Context, number int, fields IssueFields) (*Issue, error)
	ListIssueComments(ctx context.Context, number int) ([]Comment, error)

	ListPullRequests(ctx context.Context, state string) ([]PullRequest, error)
	GetPullRequest(ctx context.Context, number int) (*PullRequest, error)
	ListPullRequestFiles(ctx context.Context, number int) ([]ChangedFile, error)
}

// PullRequestCreatorFunc adapts a plain function to the
// PullRequestCreator interface. When body is empty the
// title is used as body.
type PullRequestCreatorFunc func(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (*PullRequestRef, error)

// CreatePR delegates to the wrapped function. If body
// is empty, title is substituted.
func (f PullRequestCreatorFunc) CreatePR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (*PullRequestRef, error) {
	if body == "" {
		body = title
	}

	return f(ctx, from, to, title, body)
}

// WithPullRequestCreator returns a Repository that
// delegates everything to repo except pull request
// creation, which goes to prc.
func WithPullRequestCreator(
	repo Repository,
	prc PullRequestCreator,
) Repository {
	return &overriddenCreator{Repository: repo, prc: prc}
}

type overriddenCreator struct {
	Repository

	prc PullRequestCreator
}

func (o *overriddenCreator) CreatePR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (*PullRequestRef, error) {
	return o.prc.CreatePR(ctx, from, to, title, body)
}
