package main

import (
	"fmt"
	"net/http"

	"github.com/byte4ever/repo_editor/config"
	"github.com/byte4ever/repo_editor/gitops/git"
	ghprov "github.com/byte4ever/repo_editor/gitops/git/github"
	glprov "github.com/byte4ever/repo_editor/gitops/git/gitlab"
	"github.com/byte4ever/repo_editor/gitops/git/memory"
	"github.com/byte4ever/repo_editor/gitops/prer"
	"github.com/byte4ever/repo_editor/session"
)

// app is the wired object graph for one invocation.
type app struct {
	cfg      *config.Config
	repo     git.Repository
	tracker  git.Tracker
	workflow *prer.Workflow
}

func (g *globals) build() (*app, error) {
	const errCtx = "building editor"

	cfg, err := config.LoadWithEnv(g.configPath, g.getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	a := &app{cfg: cfg}

	// Bounds every HTTP request, so each page of a
	// paginated listing gets its own step timeout.
	hc := &http.Client{Timeout: cfg.Workflow.StepTimeout}

	switch cfg.Provider {
	case config.ProviderGitHub:
		pv, err := ghprov.NewProvider(ghprov.Config{
			RepoOwner:      cfg.Repository.Owner,
			Repo:           cfg.Repository.Name,
			AccessToken:    cfg.GitHub.Token,
			EnterpriseHost: cfg.GitHub.EnterpriseHost,
			HTTPClient:     hc,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		a.repo, a.tracker = pv, pv

	case config.ProviderGitLab:
		pv, err := glprov.NewProvider(glprov.Config{
			Host:        cfg.GitLab.Host,
			Repo:        cfg.GitLab.Repo,
			AccessToken: cfg.GitLab.Token,
			HTTPClient:  hc,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		a.repo = pv

	case config.ProviderMemory:
		mem := memory.New(cfg.Repository.DefaultBranch)
		a.repo, a.tracker = mem, mem
	}

	a.workflow, err = prer.New(prer.Config{
		Repository:         a.repo,
		DefaultBranch:      cfg.Repository.DefaultBranch,
		PathPrefix:         cfg.Repository.Path,
		BranchPrefix:       cfg.Workflow.BranchPrefix,
		BranchRetries:      retries(cfg.Workflow.BranchRetries),
		BranchRetryBackoff: cfg.Workflow.BranchRetryBackoff,
		StepTimeout:        cfg.Workflow.StepTimeout,
		Templates:          cfg.Templates,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return a, nil
}

// retries maps an explicit zero to the workflow's
// "no retries" value.
func retries(n int) int {
	if n == 0 {
		return -1
	}

	return n
}

func (a *app) sessions() (*session.Manager, error) {
	return session.New(session.Config{
		SharedSecret: a.cfg.Session.MagicLoginToken,
		SigningKey:   []byte(a.cfg.Session.JWTSecret),
		TTL:          a.cfg.Session.TTL,
	})
}
