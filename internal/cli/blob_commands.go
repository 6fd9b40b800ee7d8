package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eazure-dev/eazure/frame"
)

func newBlobCmd() *cobra.Command {
	blobCmd := &cobra.Command{
		Use:   "blob",
		Short: "Blob storage operations (codec chosen by file extension)",
	}

	blobCmd.AddCommand(newBlobGetCmd())
	blobCmd.AddCommand(newBlobPutCmd())
	blobCmd.AddCommand(newBlobRmCmd())
	blobCmd.AddCommand(newBlobAppendCmd())
	blobCmd.AddCommand(newBlobFilterCmd())

	return blobCmd
}

func newBlobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <container> <blob>",
		Short: "Download a blob and print it decoded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := blobClient()
			if err != nil {
				return err
			}
			obj, err := client.Read(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if f, ok := obj.(*frame.Frame); ok {
				return f.WriteCSV(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), obj)
			return nil
		},
	}
}

func newBlobPutCmd() *cobra.Command {
	var filePath string
	var noOverwrite bool

	cmd := &cobra.Command{
		Use:   "put <container> <blob>",
		Short: "Upload a local file as a typed blob",
		Long: `Uploads a local file. The blob name's extension picks the codec:
.csv is parsed and re-encoded as tabular data, .json is parsed and stored as
the document it contains, .txt uploads as text. The local file's content must
match the blob extension.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := blobClient()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			obj, err := localObject(args[1], data)
			if err != nil {
				return err
			}
			return client.Write(cmd.Context(), obj, args[0], args[1], !noOverwrite)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Local file to upload")
	cmd.Flags().BoolVar(&noOverwrite, "no-overwrite", false, "Fail if the blob already exists")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// localObject decodes a local file's bytes into the object to upload, based
// on the destination blob name's extension. Parsing .csv and .json here keeps
// the upload codec from encoding the file's text as a string literal.
func localObject(blobName string, data []byte) (any, error) {
	switch strings.ToLower(path.Ext(blobName)) {
	case ".csv":
		f, err := frame.ReadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return f, nil
	case ".json":
		var obj any
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("parse %s: %w", blobName, err)
		}
		return obj, nil
	case ".gob":
		return nil, fmt.Errorf("%s: gob blobs are written programmatically, not from local files", blobName)
	default:
		return string(data), nil
	}
}

func newBlobRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <container> <blob>",
		Short: "Delete a blob (no-op if absent)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := blobClient()
			if err != nil {
				return err
			}
			return client.DeleteIfExists(cmd.Context(), args[0], args[1])
		},
	}
}

func newBlobAppendCmd() *cobra.Command {
	var csvPath string
	var idVars []string

	cmd := &cobra.Command{
		Use:   "append <container> <blob>",
		Short: "Append local CSV rows to a stored tabular blob",
		Long: `Merges a local CSV with the blob's current rows and re-uploads the
result. With --id-vars, duplicate rows (by those columns) are dropped,
keeping the incoming row.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := blobClient()
			if err != nil {
				return err
			}
			file, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer file.Close()
			f, err := frame.ReadCSV(file)
			if err != nil {
				return err
			}
			return client.Append(cmd.Context(), f, args[0], args[1], idVars)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the CSV file with rows to append")
	cmd.Flags().StringSliceVar(&idVars, "id-vars", nil, "Columns identifying unique rows")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newBlobFilterCmd() *cobra.Command {
	var rawFilters []string

	cmd := &cobra.Command{
		Use:   "filter <container> <blob>",
		Short: "Filter a stored tabular blob in place",
		Long: `Downloads a tabular blob, keeps only rows whose column values appear
in the allowed sets, and re-uploads it. Filters take the form
column=value1,value2 and may repeat for multiple columns.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := make(map[string][]string, len(rawFilters))
			for _, raw := range rawFilters {
				column, values, ok := strings.Cut(raw, "=")
				if !ok {
					return fmt.Errorf("invalid filter %q, want column=value1,value2", raw)
				}
				filters[column] = strings.Split(values, ",")
			}
			client, err := blobClient()
			if err != nil {
				return err
			}
			return client.Filter(cmd.Context(), args[0], args[1], filters)
		},
	}
	cmd.Flags().StringArrayVar(&rawFilters, "where", nil, "Column filter, column=value1,value2 (repeatable)")
	return cmd
}
