package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/latestcomment/go-interview-room/internal/services"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the models offered by the configured endpoint",
	}
	cmd.AddCommand(newModelsListCmd(), newModelsParseCmd())
	return cmd
}

func newModelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Query the endpoint for its model list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checking URL: %s/models\n", cfg.ModelBaseURL)

			models, err := services.NewAIService(modelConfig(cfg)).ListModels(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Owned by", "Created"})
			table.SetAutoWrapText(false)
			table.SetBorder(false)
			for _, m := range models {
				table.Append([]string{m.Id, m.OwnedBy, m.CreatedAt.Format("2006-01-02")})
			}
			table.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "%d models\n", len(models))
			return nil
		},
	}
}

func newModelsParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the model ids of a saved /models response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "models.json"
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			ids, err := services.ParseModelDump(raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Available Models:")
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
