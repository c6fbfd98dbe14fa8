package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byte4ever/repo_editor/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const errCtx = "serve"

			a, err := g.build()
			if err != nil {
				return err
			}

			sessions, err := a.sessions()
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			srv, err := server.New(server.Config{
				Workflow:     a.workflow,
				Tracker:      a.tracker,
				Sessions:     sessions,
				DataDir:      a.cfg.Data.Dir,
				DataExt:      a.cfg.Data.Ext,
				CookieSecure: a.cfg.Session.CookieSecure,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default API_ADDR)")

	return cmd
}
