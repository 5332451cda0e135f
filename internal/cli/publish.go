package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/service"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	Signer string
}

// PublishOutput is the success payload for the publish command.
type PublishOutput struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
	Owner   string `json:"owner"`
}

func (o PublishOutput) String() string {
	return fmt.Sprintf("Published confession for %s\n  address: %s\n  bump: %d", o.Owner, o.Address, o.Bump)
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish <owner> <content-ref>",
		Short: "Publish a confession",
		Long: `Publish a confession for an identity.

Each identity can publish exactly one confession; a second publish for the
same owner fails with ALREADY_EXISTS. The content reference is an opaque
pointer (1-200 bytes) to externally stored content.

Exit codes:
  0 - Published
  1 - Operation failure (duplicate, invalid content reference)
  2 - Command error (database not found, etc.)

Examples:
  whisper publish alice ipfs://QmConfession
  whisper publish alice ipfs://QmConfession --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Signer, "signer", "", "authorizing identity (defaults to owner)")

	return cmd
}

func runPublish(opts *PublishOptions, owner, contentRef string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	signer := opts.Signer
	if signer == "" {
		signer = owner
	}

	f := newFormatter(opts.RootOptions, cmd)
	svc := service.New(st)

	res, err := svc.Publish(cmd.Context(), ledger.Identity(signer), ledger.Identity(owner), contentRef)
	if err != nil {
		return operationFailure(f, err)
	}

	f.VerboseLog("created post record at %s (bump %d)", res.Address, res.Bump)
	if err := f.Success(PublishOutput{
		Address: string(res.Address),
		Bump:    res.Bump,
		Owner:   owner,
	}); err != nil {
		return err
	}
	return nil
}
