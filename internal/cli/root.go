// Package cli provides the command-line interface for eazure.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eazure-dev/eazure/blobs"
	"github.com/eazure-dev/eazure/internal/config"
	"github.com/eazure-dev/eazure/internal/logging"
	"github.com/eazure-dev/eazure/tables"
	"github.com/eazure-dev/eazure/tables/aztable"
)

var (
	// Global flags
	envVar         string
	useDefaultCred bool
	retryMax       int
	verbose        bool

	// Global logger
	logger *logging.Logger
)

// Version is set by the main package at startup.
var Version = "dev"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "eazure",
		Short: "Convenience CLI for Azure blob and table storage",
		Long: `eazure ` + Version + ` - Azure storage convenience tool.

Reads and writes typed blobs (codec chosen by file extension), uploads
tabular data to Azure tables in atomic batches, and performs client-side
schema edits (copy/delete/rename column, rename table).

The storage connection string is read from AZURE_STORAGE_CONNECTION_STRING
(or the variable named with --env-var), with .env file support.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&envVar, "env-var", config.DefaultEnvVar, "Environment variable holding the connection string")
	rootCmd.PersistentFlags().BoolVar(&useDefaultCred, "azure-credential", false, "Authenticate with DefaultAzureCredential instead of the connection string key")
	rootCmd.PersistentFlags().IntVar(&retryMax, "retry-max", -1, "Transport-level retry cap (-1 = default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version

	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newColumnCmd())
	rootCmd.AddCommand(newBlobCmd())

	return rootCmd
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(envVar, useDefaultCred)
	if err != nil {
		return nil, err
	}
	settings.RetryMax = retryMax
	return settings, nil
}

func tableClient() (*tables.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	svc, err := settings.TableService()
	if err != nil {
		return nil, err
	}
	return tables.NewClient(aztable.NewStore(svc), logger.Zerolog()), nil
}

func blobClient() (*blobs.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	azc, err := settings.BlobClient()
	if err != nil {
		return nil, err
	}
	return blobs.NewClient(blobs.NewAzureBlobAPI(azc), logger.Zerolog()), nil
}
