// Package commands defines all Cobra CLI commands for the docuchat binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/docuchat/docuchat-go/internal/audit"
	"github.com/docuchat/docuchat-go/internal/config"
	"github.com/docuchat/docuchat-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docuchat",
		Short: "DocuChat — ask questions about your own documents",
		Long: `DocuChat is a local-first question answering service for your documents.

Upload PDF, Word, plain text, Markdown, or wiki files; DocuChat extracts the
text, chunks it, embeds it, and indexes it in a vector store. Questions are
answered from the most relevant chunks, streamed token by token, and every
answer cites the documents, pages, and chunks it was grounded on.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.docuchat/config.yaml).
See 'docuchat --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.docuchat/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
