// Package prer orchestrates revision submissions. Submit resolves the tip of
// the default branch, creates a uniquely named branch at it (regenerating the
// name a bounded number of times on collision), reads the target file's
// version token on that branch, commits the new content guarded by the token,
// and opens a pull request into the default branch.
//
// The steps are separate remote calls and are not transactional. Every
// failure is a *StepError naming the step and matching one kind with
// errors.Is: ErrBaseResolution, ErrBranchCreation, ErrBlobResolution,
// ErrBlobWrite, ErrConcurrentModification, or ErrOrphanedCommit. Branches
// left behind by late failures are not deleted.
package prer
