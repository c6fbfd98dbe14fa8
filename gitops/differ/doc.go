// Package differ renders unified diffs and line statistics between two
// versions of a file. It backs the revision preview and the per-file stats
// the memory remote reports for pull requests.
package differ
