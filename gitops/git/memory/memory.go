package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/byte4ever/repo_editor/gitops/digester"
	"github.com/byte4ever/repo_editor/gitops/git"
)

// Hooks are invoked outside the remote's lock so they
// may call back into the remote.
type Hooks struct {
	// AfterReadBlob runs after a successful or
	// not-found ReadBlob.
	AfterReadBlob func(path string, branch string)
}

// Option configures a Repo.
type Option func(*Repo)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// WithBaseURL sets the prefix of pull request and issue
// URLs.
func WithBaseURL(u string) Option {
	return func(r *Repo) { r.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHooks installs test hooks.
func WithHooks(h Hooks) Option {
	return func(r *Repo) { r.hooks = h }
}

// WithFiles seeds the default branch with files in its
// root commit.
func WithFiles(files map[string]string) Option {
	return func(r *Repo) {
		for p, c := range files {
			r.seed[p] = []byte(c)
		}
	}
}

// Commit describes one commit of a branch history.
type Commit struct {
	ID      string
	Parent  string
	Message string
	// Changed lists the paths this commit touched
	// relative to its parent.
	Changed []string
}

type commit struct {
	Commit

	files map[string][]byte
	// merged is the second parent of a merge commit.
	merged string
}

type pullRequest struct {
	git.PullRequest

	merged bool
}

// Repo is an in-memory hosted repository.
type Repo struct {
	mu sync.Mutex

	now     func() time.Time
	baseURL string
	hooks   Hooks
	seed    map[string][]byte

	defaultBranch string
	branches      map[string]string
	commits       map[string]*commit
	seq           int

	// Issues and pull requests share one number space.
	nextNumber int
	issues     map[int]*git.Issue
	comments   map[int][]git.Comment
	pulls      map[int]*pullRequest
}

// New returns a remote whose defaultBranch holds a root
// commit with the seeded files.
func New(defaultBranch string, opts ...Option) *Repo {
	r := &Repo{
		now:           time.Now,
		baseURL:       "https://git.example.com/memory/repo",
		seed:          make(map[string][]byte),
		defaultBranch: defaultBranch,
		branches:      make(map[string]string),
		commits:       make(map[string]*commit),
		nextNumber:    1,
		issues:        make(map[int]*git.Issue),
		comments:      make(map[int][]git.Comment),
		pulls:         make(map[int]*pullRequest),
	}

	for _, opt := range opts {
		opt(r)
	}

	root := r.newCommit("", "Initial commit", r.seed, sortedKeys(r.seed))
	r.branches[defaultBranch] = root.ID

	return r
}

// DefaultBranch returns the branch New was created
// with.
func (r *Repo) DefaultBranch() string {
	return r.defaultBranch
}

// newCommit records a commit. Callers hold r.mu.
func (r *Repo) newCommit(
	parent string,
	message string,
	files map[string][]byte,
	changed []string,
) *commit {
	r.seq++

	payload := strings.Join([]string{
		"parent " + parent,
		"seq " + strconv.Itoa(r.seq),
		"time " + r.now().UTC().Format(time.RFC3339Nano),
		"",
		message,
	}, "\n")

	cm := &commit{
		Commit: Commit{
			ID:      digester.ObjectID(digester.KindCommit, []byte(payload)),
			Parent:  parent,
			Message: message,
			Changed: changed,
		},
		files: files,
	}
	r.commits[cm.ID] = cm

	return cm
}

// ResolveRef implements git.Repository.
func (r *Repo) ResolveRef(
	ctx context.Context,
	branch string,
) (string, error) {
	const errCtx = "resolving ref"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.branches[branch]
	if !ok {
		return "", fmt.Errorf(
			"%s: %s: %w", errCtx, branch, git.ErrNotFound,
		)
	}

	return id, nil
}

// CreateRef implements git.Repository.
func (r *Repo) CreateRef(
	ctx context.Context,
	branch string,
	commitID string,
) error {
	const errCtx = "creating ref"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.branches[branch]; ok {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, branch, git.ErrAlreadyExists,
		)
	}

	if _, ok := r.commits[commitID]; !ok {
		return fmt.Errorf(
			"%s: commit %s: %w", errCtx, commitID, git.ErrNotFound,
		)
	}

	r.branches[branch] = commitID

	return nil
}

// ReadBlob implements git.Repository.
func (r *Repo) ReadBlob(
	ctx context.Context,
	path string,
	branch string,
) (*git.Blob, error) {
	blob, err := r.readBlob(ctx, path, branch)

	if r.hooks.AfterReadBlob != nil {
		r.hooks.AfterReadBlob(path, branch)
	}

	return blob, err
}

func (r *Repo) readBlob(
	ctx context.Context,
	path string,
	branch string,
) (*git.Blob, error) {
	const errCtx = "reading blob"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.head(branch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	content, ok := head.files[path]
	if !ok {
		return nil, fmt.Errorf(
			"%s: %s@%s: %w", errCtx, path, branch, git.ErrNotFound,
		)
	}

	return &git.Blob{
		Path:    path,
		Content: slices.Clone(content),
		Version: digester.BlobID(content),
	}, nil
}

// WriteBlob implements git.Repository.
func (r *Repo) WriteBlob(
	ctx context.Context,
	w git.BlobWrite,
) (string, error) {
	const errCtx = "writing blob"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.head(w.Branch)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	current, exists := head.files[w.Path]

	switch {
	case exists && !digester.VerifyBlob(current, w.BaseVersion):
		return "", fmt.Errorf(
			"%s: %s@%s: expected %q: %w",
			errCtx, w.Path, w.Branch, w.BaseVersion,
			git.ErrVersionConflict,
		)
	case !exists && w.BaseVersion != "":
		return "", fmt.Errorf(
			"%s: %s@%s: file no longer exists: %w",
			errCtx, w.Path, w.Branch, git.ErrVersionConflict,
		)
	}

	files := maps.Clone(head.files)
	files[w.Path] = slices.Clone(w.Content)

	cm := r.newCommit(head.ID, w.Message, files, []string{w.Path})
	r.branches[w.Branch] = cm.ID

	return digester.BlobID(w.Content), nil
}

// ListFiles implements git.Repository.
func (r *Repo) ListFiles(
	ctx context.Context,
	dir string,
	branch string,
) ([]git.Entry, error) {
	const errCtx = "listing files"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.head(branch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	prefix := strings.Trim(dir, "/")
	if prefix == "." {
		prefix = ""
	}

	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]git.Entry)

	for p := range head.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}

		name, _, isDir := strings.Cut(rest, "/")

		entry := git.Entry{Name: name, Path: prefix + name, Type: "file"}
		if isDir {
			entry.Type = "dir"
		}

		seen[name] = entry
	}

	if len(seen) == 0 && prefix != "" {
		return nil, fmt.Errorf(
			"%s: %s@%s: %w", errCtx, dir, branch, git.ErrNotFound,
		)
	}

	entries := make([]git.Entry, 0, len(seen))
	for _, name := range sortedKeys(seen) {
		entries = append(entries, seen[name])
	}

	return entries, nil
}

// CreatePR implements git.PullRequestCreator.
func (r *Repo) CreatePR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (*git.PullRequestRef, error) {
	const errCtx = "creating pull request"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	headID, ok := r.branches[from]
	if !ok {
		return nil, fmt.Errorf(
			"%s: head %s: %w", errCtx, from, git.ErrRemoteRejected,
		)
	}

	baseID, ok := r.branches[to]
	if !ok {
		return nil, fmt.Errorf(
			"%s: base %s: %w", errCtx, to, git.ErrRemoteRejected,
		)
	}

	if headID == baseID {
		return nil, fmt.Errorf(
			"%s: no commits between %s and %s: %w",
			errCtx, to, from, git.ErrRemoteRejected,
		)
	}

	for _, pr := range r.pulls {
		if pr.State == git.StateOpen &&
			pr.Head == from && pr.Base == to {
			return nil, fmt.Errorf(
				"%s: %s -> %s: %w",
				errCtx, from, to, git.ErrAlreadyExists,
			)
		}
	}

	now := r.now().UTC()
	number := r.takeNumber()

	pr := &pullRequest{
		PullRequest: git.PullRequest{
			Number:    number,
			Title:     title,
			Body:      body,
			Labels:    []string{},
			State:     git.StateOpen,
			URL:       r.baseURL + "/pull/" + strconv.Itoa(number),
			Head:      from,
			Base:      to,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	r.pulls[number] = pr

	return &git.PullRequestRef{Number: number, URL: pr.URL}, nil
}

// Log returns the history of branch from its head back
// to the root commit.
func (r *Repo) Log(branch string) ([]Commit, error) {
	const errCtx = "reading log"

	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.head(branch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var out []Commit

	for cm := head; cm != nil; cm = r.commits[cm.Parent] {
		out = append(out, cm.Commit)
	}

	return out, nil
}

// Merge merges pull request number into its base. Paths
// changed on both sides since the merge base with
// different content fail with git.ErrVersionConflict
// and leave the base untouched.
func (r *Repo) Merge(number int) error {
	const errCtx = "merging pull request"

	r.mu.Lock()
	defer r.mu.Unlock()

	pr, ok := r.pulls[number]
	if !ok {
		return fmt.Errorf(
			"%s: #%d: %w", errCtx, number, git.ErrNotFound,
		)
	}

	if pr.State != git.StateOpen {
		return fmt.Errorf(
			"%s: #%d is %s: %w",
			errCtx, number, pr.State, git.ErrRemoteRejected,
		)
	}

	head := r.commits[r.branches[pr.Head]]
	base := r.commits[r.branches[pr.Base]]
	mergeBase := r.commits[r.mergeBase(head.ID, base.ID)]

	files := maps.Clone(base.files)

	var changed []string

	for _, p := range unionKeys(mergeBase.files, head.files) {
		ours, inOurs := head.files[p]
		anc, inAnc := mergeBase.files[p]

		if inOurs == inAnc && string(ours) == string(anc) {
			continue
		}

		theirs, inTheirs := base.files[p]
		baseMoved := inTheirs != inAnc ||
			string(theirs) != string(anc)
		sameResult := inTheirs == inOurs &&
			string(theirs) == string(ours)

		if baseMoved && !sameResult {
			return fmt.Errorf(
				"%s: #%d: %s changed on both sides: %w",
				errCtx, number, p, git.ErrVersionConflict,
			)
		}

		if inOurs {
			files[p] = ours
		} else {
			delete(files, p)
		}

		changed = append(changed, p)
	}

	msg := fmt.Sprintf(
		"Merge pull request #%d from %s", number, pr.Head,
	)

	cm := r.newCommit(base.ID, msg, files, changed)
	cm.merged = head.ID
	r.branches[pr.Base] = cm.ID

	pr.State = git.StateClosed
	pr.merged = true
	pr.UpdatedAt = r.now().UTC()

	return nil
}

// head returns the commit at the tip of branch. Callers
// hold r.mu.
func (r *Repo) head(branch string) (*commit, error) {
	id, ok := r.branches[branch]
	if !ok {
		return nil, fmt.Errorf(
			"branch %s: %w", branch, git.ErrNotFound,
		)
	}

	return r.commits[id], nil
}

// mergeBase returns the nearest common ancestor of a and
// b. Callers hold r.mu.
func (r *Repo) mergeBase(a string, b string) string {
	ancestors := make(map[string]struct{})

	queue := []string{a}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == "" {
			continue
		}

		if _, ok := ancestors[id]; ok {
			continue
		}

		ancestors[id] = struct{}{}
		cm := r.commits[id]
		queue = append(queue, cm.Parent, cm.merged)
	}

	queue = []string{b}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == "" {
			continue
		}

		if _, ok := ancestors[id]; ok {
			return id
		}

		cm := r.commits[id]
		queue = append(queue, cm.Parent, cm.merged)
	}

	return ""
}

func (r *Repo) takeNumber() int {
	n := r.nextNumber
	r.nextNumber++

	return n
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func unionKeys(a map[string][]byte, b map[string][]byte) []string {
	all := maps.Clone(a)
	maps.Copy(all, b)

	return sortedKeys(all)
}
