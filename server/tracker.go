package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/byte4ever/repo_editor/gitops/git"
)

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// tracked guards routes needing the issue tracker.
func (s *Server) tracked(w http.ResponseWriter) bool {
	if s.cfg.Tracker == nil {
		writeError(w, errNotImplemented)
		return false
	}

	return true
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	state, err := stateParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	issues, err := s.cfg.Tracker.ListIssues(r.Context(), state)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	var req createIssueRequest

	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeError(w, badRequest("title is required"))
		return
	}

	is, err := s.cfg.Tracker.CreateIssue(
		r.Context(), req.Title, req.Body, req.Labels,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, is)
}

func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	number, err := numberParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	is, err := s.cfg.Tracker.GetIssue(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, is)
}

func (s *Server) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	number, err := numberParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var fields git.IssueFields

	if err := decode(w, r, &fields); err != nil {
		writeError(w, err)
		return
	}

	if fields.State != nil &&
		*fields.State != git.StateOpen &&
		*fields.State != git.StateClosed {
		writeError(w, badRequest(fmt.Sprintf(
			"state %q must be open or closed", *fields.State,
		)))

		return
	}

	is, err := s.cfg.Tracker.UpdateIssue(r.Context(), number, fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, is)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	number, err := numberParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := s.cfg.Tracker.ListIssueComments(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleListPulls(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	state, err := stateParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pulls, err := s.cfg.Tracker.ListPullRequests(r.Context(), state)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pulls)
}

func (s *Server) handleGetPull(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	number, err := numberParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pr, err := s.cfg.Tracker.GetPullRequest(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pr)
}

func (s *Server) handleListPullFiles(w http.ResponseWriter, r *http.Request) {
	if !s.tracked(w) {
		return
	}

	number, err := numberParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := s.cfg.Tracker.ListPullRequestFiles(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, files)
}

func numberParam(r *http.Request) (int, error) {
	raw := r.PathValue("number")

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, badRequest(fmt.Sprintf("%q is not an issue number", raw))
	}

	return n, nil
}

// stateParam defaults to open.
func stateParam(r *http.Request) (string, error) {
	state := r.URL.Query().Get("state")

	switch state {
	case "":
		return git.StateOpen, nil
	case git.StateOpen, git.StateClosed, git.StateAll:
		return state, nil
	default:
		return "", badRequest(fmt.Sprintf(
			"state %q must be open, closed, or all", state,
		))
	}
}
