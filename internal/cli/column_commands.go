package cli

import (
	"github.com/spf13/cobra"
)

func newColumnCmd() *cobra.Command {
	columnCmd := &cobra.Command{
		Use:   "column",
		Short: "Client-side column edits (the table service has no ALTER COLUMN)",
	}

	columnCmd.AddCommand(&cobra.Command{
		Use:   "copy <table> <src> <dst>",
		Short: "Copy a column on every entity that has it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			return client.CopyColumn(cmd.Context(), args[0], args[1], args[2])
		},
	})

	columnCmd.AddCommand(&cobra.Command{
		Use:   "delete <table> <column>",
		Short: "Remove a column from every entity that has it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			return client.DeleteColumn(cmd.Context(), args[0], args[1])
		},
	})

	columnCmd.AddCommand(&cobra.Command{
		Use:   "rename <table> <old> <new>",
		Short: "Rename a column (copy pass, then delete pass)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			return client.RenameColumn(cmd.Context(), args[0], args[1], args[2])
		},
	})

	return columnCmd
}
