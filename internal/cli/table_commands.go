package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eazure-dev/eazure/frame"
	"github.com/eazure-dev/eazure/tables"
)

func newTableCmd() *cobra.Command {
	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Table-level operations",
	}

	tableCmd.AddCommand(newTableCreateCmd())
	tableCmd.AddCommand(newTableDeleteCmd())
	tableCmd.AddCommand(newTableExistsCmd())
	tableCmd.AddCommand(newTableQueryCmd())
	tableCmd.AddCommand(newTableWriteCmd())
	tableCmd.AddCommand(newTableTruncateCmd())
	tableCmd.AddCommand(newTableRenameCmd())

	return tableCmd
}

func newTableCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <table>",
		Short: "Create a table (no-op if it exists)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			return client.Create(cmd.Context(), args[0])
		},
	}
}

func newTableDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete a table (no-op if absent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			return client.DeleteIfExists(cmd.Context(), args[0])
		},
	}
}

func newTableExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <table>",
		Short: "Report whether a table exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			exists, err := client.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	}
}

func newTableQueryCmd() *cobra.Command {
	var filter string
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Scan entities, optionally filtered, to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			entities, err := client.Query(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}
			f := frame.FromEntities(entities)
			if asCSV {
				return f.WriteCSV(cmd.OutOrStdout())
			}
			return f.WriteJSON(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "OData filter expression")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Emit CSV instead of JSON records")
	return cmd
}

func newTableWriteCmd() *cobra.Command {
	var csvPath string
	var partitionKey string
	var truncate bool
	var pointwise bool

	cmd := &cobra.Command{
		Use:   "write <table>",
		Short: "Upload a local CSV as table entities",
		Long: `Reads a local CSV file, derives PartitionKey and zero-padded RowKey
columns from --partition-key, and writes the rows to the table using atomic
batches (or one-by-one with --pointwise). With --truncate, existing rows are
deleted first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer file.Close()
			f, err := frame.ReadCSV(file)
			if err != nil {
				return err
			}
			entities := tables.AssignKeys(f.Entities(), partitionKey)

			client, err := tableClient()
			if err != nil {
				return err
			}
			if pointwise {
				return client.Write(cmd.Context(), args[0], entities, truncate)
			}
			return client.WriteBatched(cmd.Context(), args[0], entities, truncate)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV file to upload")
	cmd.Flags().StringVar(&partitionKey, "partition-key", "", "Partition key value for all rows")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "Delete all existing rows first")
	cmd.Flags().BoolVar(&pointwise, "pointwise", false, "Insert rows one by one instead of batched")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("partition-key")
	return cmd
}

func newTableTruncateCmd() *cobra.Command {
	var pointwise bool

	cmd := &cobra.Command{
		Use:   "truncate <table>",
		Short: "Delete every entity in a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			if pointwise {
				return client.DeleteAllRows(cmd.Context(), args[0])
			}
			return client.DeleteAllBatched(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&pointwise, "pointwise", false, "Delete rows one by one instead of batched")
	return cmd
}

func newTableRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a table (copy entities, delete the source)",
		Long: `Renames a table by deleting any existing table with the new name,
creating it, copying every entity across in atomic batches, and deleting the
source. Not transactional: an interrupted run can leave both tables populated
until the rename is rerun.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tableClient()
			if err != nil {
				return err
			}
			return client.RenameTable(cmd.Context(), args[0], args[1])
		},
	}
}
