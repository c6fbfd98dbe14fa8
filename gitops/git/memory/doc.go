// Package memory implements git.Repository and git.Tracker in process.
//
// The remote keeps real commit history per branch, content-addressed blob
// version tokens, pull requests whose changed files are computed against
// the merge base, and issues with comments. It enforces the same
// concurrency rules as a hosted API: CreateRef fails on existing names and
// WriteBlob fails on stale version tokens. Hooks let tests inject a
// concurrent edit between a read and the following write.
package memory
