package server

import (
	"net/http"

	"github.com/byte4ever/repo_editor/gitops/git"
	"github.com/byte4ever/repo_editor/gitops/prer"
)

type revisionRequest struct {
	Path          string `json:"path"`
	Content       string `json:"content"`
	CommitMessage string `json:"commitMessage"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}

func (rr revisionRequest) toRequest(author string) prer.Request {
	return prer.Request{
		Path:          rr.Path,
		Content:       []byte(rr.Content),
		CommitMessage: rr.CommitMessage,
		Title:         rr.Title,
		Description:   rr.Description,
		Author:        author,
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req revisionRequest

	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.cfg.Workflow.Submit(r.Context(), req.toRequest(author(r)))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req revisionRequest

	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	pv, err := s.cfg.Workflow.Preview(r.Context(), req.toRequest(author(r)))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pv)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.cfg.Workflow.ListFiles(
		r.Context(), s.cfg.DataDir, s.cfg.DataExt,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Files []git.Entry `json:"files"`
	}{Files: files})
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.cfg.Workflow.ReadFile(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}
