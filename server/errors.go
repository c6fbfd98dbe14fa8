package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/gitops/prer"
	"github.com/byte4ever/repo_editor/session"
)

var (
	errBadRequest     = errors.New("bad request")
	errNotImplemented = errors.New(
		"issue tracking is not supported by the configured provider",
	)
)

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", errBadRequest, msg)
}

// errorBody is the JSON shape of every error answer.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Step      string `json:"step,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// classify maps err to a status and a stable code.
// Workflow kinds are checked before remote kinds since a
// StepError wraps both.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errBadRequest),
		errors.Is(err, session.ErrMissingName),
		errors.Is(err, prer.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errNotImplemented):
		return http.StatusNotImplemented, "not_implemented"
	case errors.Is(err, prer.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, prer.ErrBranchCreation) &&
		errors.Is(err, git.ErrAlreadyExists):
		return http.StatusConflict, "branch_exhausted"
	case errors.Is(err, prer.ErrOrphanedCommit):
		return http.StatusBadGateway, "orphaned_commit"
	case errors.Is(err, prer.ErrBaseResolution):
		return http.StatusBadGateway, "base_resolution"
	case errors.Is(err, prer.ErrBranchCreation):
		return http.StatusBadGateway, "branch_creation"
	case errors.Is(err, prer.ErrBlobResolution):
		return http.StatusBadGateway, "blob_resolution"
	case errors.Is(err, prer.ErrBlobWrite):
		return http.StatusBadGateway, "blob_write"
	case errors.Is(err, git.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, git.ErrAlreadyExists),
		errors.Is(err, git.ErrVersionConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, git.ErrRemoteUnavailable):
		return http.StatusBadGateway, "remote_unavailable"
	case errors.Is(err, git.ErrRemoteRejected):
		return http.StatusBadGateway, "remote_rejected"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)

	body := errorBody{Error: err.Error(), Code: code}

	var se *prer.StepError
	if errors.As(err, &se) {
		body.Step = string(se.Step)
		body.Branch = se.Branch
		body.Retryable = se.Retryable()
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", code, "error", err)
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(dst); err != nil {
		return badRequest(fmt.Sprintf("decoding body: %v", err))
	}

	return nil
}
