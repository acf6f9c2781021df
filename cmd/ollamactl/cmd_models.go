package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ollamactl/pkg/types"
)

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models installed on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			c, err := a.newClient(cmd.Context())
			if err != nil {
				return err
			}
			models, err := c.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if models == nil {
					models = []types.ModelDescriptor{}
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(types.ModelsResponse{Models: models})
			}
			for _, m := range models {
				fmt.Fprintln(a.stdout, m.Name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print full model descriptors as JSON")
	return cmd
}
