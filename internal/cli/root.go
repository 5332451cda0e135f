// Package cli wires the confession ledger operations into a cobra command
// tree backed by a durable store.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath      string // SQLite database path
	PostgresDSN string // Postgres DSN; overrides DBPath when set
	Verbose     bool
	Format      string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the whisper CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "whisper",
		Short: "whisper - anonymous confession ledger",
		Long: `An append-mostly ledger of anonymous confessions.

Each identity can publish one confession. Anyone can react to a confession,
and each identity can leave one comment per confession. Records live at
addresses derived from their seeds, so uniqueness comes from the derivation
itself rather than from database constraints.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "whisper.db", "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.PostgresDSN, "postgres-dsn", "", "Postgres DSN (overrides --db)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewPublishCommand(opts))
	cmd.AddCommand(NewReactCommand(opts))
	cmd.AddCommand(NewCommentCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewFeedCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openStore opens the configured backend: Postgres when a DSN is given,
// SQLite otherwise. The caller owns the returned closer.
func openStore(opts *RootOptions) (store.RecordStore, func() error, error) {
	if opts.PostgresDSN != "" {
		pg, err := store.OpenPostgres(opts.PostgresDSN)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open postgres store", err)
		}
		return pg, pg.Close, nil
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, st.Close, nil
}
