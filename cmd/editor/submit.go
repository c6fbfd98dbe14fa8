package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/byte4ever/repo_editor/gitops/prer"
)

type revisionFlags struct {
	path        string
	file        string
	message     string
	title       string
	description string
	author      string
}

func (f *revisionFlags) register(cmd *cobra.Command, full bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.path, "path", "", "repository path of the file")
	fl.StringVar(&f.file, "file", "-", "local file with the new content, - for stdin")

	_ = cmd.MarkFlagRequired("path")

	if !full {
		return
	}

	fl.StringVar(&f.message, "message", "", "commit message")
	fl.StringVar(&f.title, "title", "", "pull request title")
	fl.StringVar(&f.description, "description", "", "pull request body")
	fl.StringVar(&f.author, "author", "", "identity recorded in the commit (default $USER)")
}

func (f *revisionFlags) request(g *globals) (prer.Request, error) {
	const errCtx = "reading content"

	var (
		content []byte
		err     error
	)

	if f.file == "-" {
		content, err = io.ReadAll(g.stdin)
	} else {
		content, err = os.ReadFile(f.file) //nolint:gosec // path from CLI flag
	}

	if err != nil {
		return prer.Request{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	author := f.author
	if author == "" {
		author = g.getenv("USER")
	}

	return prer.Request{
		Path:          f.path,
		Content:       content,
		CommitMessage: f.message,
		Title:         f.title,
		Description:   f.description,
		Author:        author,
	}, nil
}

func newSubmitCmd(g *globals) *cobra.Command {
	var f revisionFlags

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Commit new file content on a fresh branch and open a pull request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.build()
			if err != nil {
				return err
			}

			req, err := f.request(g)
			if err != nil {
				return err
			}

			res, err := a.workflow.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			if g.jsonOut {
				return g.printJSON(res)
			}

			return g.printf(
				"opened pull request #%d %s\nbranch  %s\nversion %s\n",
				res.PullRequestNumber, res.PullRequestURL,
				res.Branch, res.Version,
			)
		},
	}

	f.register(cmd, true)

	return cmd
}

func newPreviewCmd(g *globals) *cobra.Command {
	var f revisionFlags

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the diff a submission would commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.build()
			if err != nil {
				return err
			}

			req, err := f.request(g)
			if err != nil {
				return err
			}

			pv, err := a.workflow.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}

			if g.jsonOut {
				return g.printJSON(pv)
			}

			if pv.Unchanged {
				return g.printf("%s is unchanged\n", pv.Path)
			}

			return g.printf("%s", pv.Diff)
		},
	}

	f.register(cmd, false)

	return cmd
}
