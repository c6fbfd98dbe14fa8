package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// globals holds the persistent flags and the process
// environment shared by every subcommand.
type globals struct {
	configPath string
	debug      bool
	logJSON    bool
	jsonOut    bool

	getenv func(string) string
	stdin  io.Reader
	stdout io.Writer
}

func newRootCmd(
	getenv func(string) string,
	stdin io.Reader,
	stdout io.Writer,
) *cobra.Command {
	g := &globals{getenv: getenv, stdin: stdin, stdout: stdout}

	root := &cobra.Command{
		Use:           "editor",
		Short:         "Edit repository files through pull requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(g.debug, g.logJSON)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML configuration file")
	pf.BoolVar(&g.debug, "debug", false, "log at debug level")
	pf.BoolVar(&g.logJSON, "log-json", false, "log as JSON")
	pf.BoolVar(&g.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCmd(g),
		newSubmitCmd(g),
		newPreviewCmd(g),
		newIssuesCmd(g),
		newPullsCmd(g),
	)

	return root
}

func setupLogging(debug bool, asJSON bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(h))
}
