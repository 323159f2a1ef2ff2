package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/config"
	"github.com/ragsift/ragsift/internal/errors"
	"github.com/ragsift/ragsift/internal/retrieve"
)

// backendFlags holds the retrieval backend selection flags shared by
// every command that talks to a backend.
type backendFlags struct {
	backend string
	corpus  string
}

// addBackendFlags registers --backend and --corpus on a command.
func addBackendFlags(cmd *cobra.Command, f *backendFlags) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "Retrieval backend: mcp or local (default from config)")
	cmd.Flags().StringVar(&f.corpus, "corpus", "", "Corpus file for the local backend")
}

// apply copies explicitly-set backend flags onto the configuration.
// Unset flags leave the configured values alone.
func (f *backendFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("backend") {
		cfg.Retrieval.Backend = f.backend
	}
	if cmd.Flags().Changed("corpus") {
		cfg.Retrieval.Corpus = f.corpus
	}
}

// newRetrievalClient builds the configured retrieval backend after
// applying any backend flag overrides.
func newRetrievalClient(cmd *cobra.Command, cfg *config.Config, f *backendFlags) (retrieve.Client, error) {
	f.apply(cmd, cfg)
	return retrieve.New(cfg)
}

// emitJSONError writes the structured error envelope to stdout so that
// --json consumers get a parseable failure. The human rendering still
// goes to stderr when the error propagates up.
func emitJSONError(cmd *cobra.Command, err error) {
	data, jerr := errors.FormatJSON(err)
	if jerr != nil {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}
