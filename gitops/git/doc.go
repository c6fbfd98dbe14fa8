// Package git defines the remote repository contract consumed by the
// revision workflow and the HTTP API.
//
// Repository covers ref resolution, branch creation, blob reads and writes
// guarded by version tokens, directory listing, and pull request creation.
// Tracker covers issues, pull request reads, and comments. Implementations
// exist for GitHub, GitLab, and an in-process memory remote in sub-packages.
//
// Every method is a single blocking remote call. Retry policy lives in the
// caller. Failures wrap the sentinels ErrNotFound, ErrAlreadyExists,
// ErrVersionConflict, ErrRemoteUnavailable, and ErrRemoteRejected.
package git
