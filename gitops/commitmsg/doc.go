// Package commitmsg builds revision commit messages with Edited-Path and
// Edited-By git trailers and parses them back.
package commitmsg
