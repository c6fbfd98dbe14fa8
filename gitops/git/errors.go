package git

import (
	"errors"
	"net/http"
)

// Remote failure taxonomy. Adapters wrap these so
// callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrVersionConflict   = errors.New("version conflict")
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrRemoteRejected    = errors.New("remote rejected request")
)

// ClassifyStatus maps an HTTP status code returned by a
// hosting API to the generic taxonomy. Status codes
// whose meaning depends on the operation (409, 422) are
// left to the caller and reported as ErrRemoteRejected.
func ClassifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return ErrRemoteUnavailable
	default:
		return ErrRemoteRejected
	}
}
