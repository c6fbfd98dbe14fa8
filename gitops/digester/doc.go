// Package digester computes content-addressed git object ids. Blob ids
// double as optimistic-concurrency version tokens: two reads of a file
// yield the same token exactly when the bytes are identical.
package digester
