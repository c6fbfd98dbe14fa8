package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/byte4ever/repo_editor/gitops/git"
)

var errNoTracker = errors.New(
	"issue tracking is not supported by the configured provider",
)

func (a *app) requireTracker() (git.Tracker, error) {
	if a.tracker == nil {
		return nil, errNoTracker
	}

	return git.TrackerWithTimeout(
		a.tracker, a.workflow.StepTimeout(),
	), nil
}

func newIssuesCmd(g *globals) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.build()
			if err != nil {
				return err
			}

			tr, err := a.requireTracker()
			if err != nil {
				return err
			}

			issues, err := tr.ListIssues(cmd.Context(), state)
			if err != nil {
				return err
			}

			if g.jsonOut {
				return g.printJSON(issues)
			}

			rows := make([][]string, 0, len(issues))
			for _, is := range issues {
				rows = append(rows, []string{
					strconv.Itoa(is.Number),
					is.State,
					is.Title,
					strings.Join(is.Labels, ","),
					is.Author,
				})
			}

			g.table([]string{"Number", "State", "Title", "Labels", "Author"}, rows)

			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", git.StateOpen, "open, closed, or all")

	return cmd
}

func newPullsCmd(g *globals) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "pulls [number]",
		Short: "List pull requests, or the files changed by one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.build()
			if err != nil {
				return err
			}

			tr, err := a.requireTracker()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				number, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("pull request number: %w", err)
				}

				return g.pullFiles(cmd, tr, number)
			}

			pulls, err := tr.ListPullRequests(cmd.Context(), state)
			if err != nil {
				return err
			}

			if g.jsonOut {
				return g.printJSON(pulls)
			}

			rows := make([][]string, 0, len(pulls))
			for _, pr := range pulls {
				rows = append(rows, []string{
					strconv.Itoa(pr.Number),
					pr.State,
					pr.Title,
					pr.Head + " -> " + pr.Base,
					pr.Author,
				})
			}

			g.table([]string{"Number", "State", "Title", "Branches", "Author"}, rows)

			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", git.StateOpen, "open, closed, or all")

	return cmd
}

func (g *globals) pullFiles(
	cmd *cobra.Command,
	tr git.Tracker,
	number int,
) error {
	files, err := tr.ListPullRequestFiles(cmd.Context(), number)
	if err != nil {
		return err
	}

	if g.jsonOut {
		return g.printJSON(files)
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.Path,
			f.Status,
			"+" + strconv.Itoa(f.Additions),
			"-" + strconv.Itoa(f.Deletions),
		})
	}

	g.table([]string{"Path", "Status", "Added", "Removed"}, rows)

	return nil
}

func (g *globals) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(g.stdout)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.AppendBulk(rows)
	t.Render()
}

func (g *globals) printJSON(v any) error {
	enc := json.NewEncoder(g.stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func (g *globals) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(g.stdout, format, args...)

	return err
}
