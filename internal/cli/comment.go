package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/service"
)

// CommentOptions holds flags for the comment command.
type CommentOptions struct {
	*RootOptions
	Signer string
}

// CommentOutput is the success payload for the comment command.
type CommentOutput struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
	Post    string `json:"post"`
	Author  string `json:"author"`
}

func (o CommentOutput) String() string {
	return fmt.Sprintf("Comment recorded by %s\n  address: %s\n  post: %s\n  bump: %d",
		o.Author, o.Address, o.Post, o.Bump)
}

// NewCommentCommand creates the comment command.
func NewCommentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "comment <post-address> <author> <content-ref>",
		Short: "Comment on a confession",
		Long: `Leave a comment on a confession.

Each identity can leave exactly one comment per confession; a second
comment by the same author on the same post fails with ALREADY_EXISTS.
The parent post must exist, and a successful comment increments its
comment counter in the same transaction.

Exit codes:
  0 - Comment recorded
  1 - Operation failure (duplicate, missing post, invalid content reference)
  2 - Command error

Example:
  whisper comment 7f3a... bob ipfs://QmReply`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComment(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Signer, "signer", "", "authorizing identity (defaults to author)")

	return cmd
}

func runComment(opts *CommentOptions, post, author, contentRef string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	signer := opts.Signer
	if signer == "" {
		signer = author
	}

	f := newFormatter(opts.RootOptions, cmd)
	svc := service.New(st)

	res, err := svc.Comment(cmd.Context(), ledger.Identity(signer), ledger.Identity(author), ledger.Address(post), contentRef)
	if err != nil {
		return operationFailure(f, err)
	}

	return f.Success(CommentOutput{
		Address: string(res.Address),
		Bump:    res.Bump,
		Post:    post,
		Author:  author,
	})
}
