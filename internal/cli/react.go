package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/service"
)

// ReactOutput is the success payload for the react command.
type ReactOutput struct {
	Post      string `json:"post"`
	Reactions uint64 `json:"reactions"`
}

func (o ReactOutput) String() string {
	return fmt.Sprintf("Reaction recorded\n  post: %s\n  reactions: %d", o.Post, o.Reactions)
}

// NewReactCommand creates the react command.
func NewReactCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react <post-address> <reactor>",
		Short: "React to a confession",
		Long: `Increment a confession's reaction counter.

Reactions are anonymous and unbounded: the reactor identity is not stored,
and the same identity may react any number of times.

Exit codes:
  0 - Reaction recorded
  1 - Operation failure (post does not exist)
  2 - Command error

Example:
  whisper react 7f3a... bob`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReact(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runReact(opts *RootOptions, post, reactor string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := newFormatter(opts, cmd)
	svc := service.New(st)

	count, err := svc.React(cmd.Context(), ledger.Address(post), ledger.Identity(reactor))
	if err != nil {
		return operationFailure(f, err)
	}

	return f.Success(ReactOutput{Post: post, Reactions: count})
}
