package prer

import (
	"errors"
	"fmt"
)

// Step names one remote call of the revision workflow.
type Step string

// Workflow steps in execution order.
const (
	StepValidate        Step = "validate"
	StepResolveBase     Step = "resolve-base"
	StepCreateBranch    Step = "create-branch"
	StepReadBlob        Step = "read-blob"
	StepWriteBlob       Step = "write-blob"
	StepOpenPullRequest Step = "open-pull-request"
)

// Failure kinds. A StepError matches exactly one of them
// with errors.Is.
var (
	// ErrInvalidRequest rejects a request before any
	// remote call.
	ErrInvalidRequest = errors.New("invalid revision request")

	// ErrBaseResolution means the default branch could
	// not be read. Not retried: it is a configuration
	// fault.
	ErrBaseResolution = errors.New("base resolution failed")

	// ErrBranchCreation means no fresh branch could be
	// created, including after bounded name
	// regeneration.
	ErrBranchCreation = errors.New("branch creation failed")

	// ErrBlobResolution means the target file state on
	// the new branch could not be determined. The branch
	// is left behind.
	ErrBlobResolution = errors.New("blob resolution failed")

	// ErrBlobWrite means the commit was refused for a
	// reason other than a version conflict.
	ErrBlobWrite = errors.New("blob write failed")

	// ErrConcurrentModification means the file changed
	// between read and write. The caller must re-read
	// and redo the edit.
	ErrConcurrentModification = errors.New(
		"file was modified concurrently",
	)

	// ErrOrphanedCommit means the commit landed on the
	// branch but no pull request was opened. Do not
	// retry the whole workflow blindly; open the pull
	// request for Branch instead.
	ErrOrphanedCommit = errors.New(
		"commit landed without a pull request",
	)
)

// StepError reports which workflow step failed. It
// unwraps to both its Kind and the underlying cause.
type StepError struct {
	Step Step
	Kind error
	// Branch is the revision branch when it had already
	// been created, for manual recovery.
	Branch string
	Err    error
}

func (e *StepError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf(
			"%s: %v (branch %s): %v",
			e.Step, e.Kind, e.Branch, e.Err,
		)
	}

	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

// Unwrap exposes Kind and Err to errors.Is and
// errors.As.
func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Retryable reports whether submitting the same request
// again is safe and may succeed. Only failures that left
// no commit behind qualify.
func (e *StepError) Retryable() bool {
	switch e.Kind {
	case ErrBranchCreation, ErrBlobResolution, ErrBlobWrite:
		return true
	default:
		return false
	}
}

func stepErr(
	step Step,
	kind error,
	branch string,
	err error,
) *StepError {
	return &StepError{
		Step:   step,
		Kind:   kind,
		Branch: branch,
		Err:    err,
	}
}
