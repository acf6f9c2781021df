package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print server and client version",
		Long: `Print the model server's version and this client's build information.

When the server cannot be reached the server line shows a diagnostic
("not connected", "write error", "read error" or "invalid response")
and the command still succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "server: %s\n", c.Version(cmd.Context()))
			fmt.Fprintf(a.stdout, "client: ollamactl %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
