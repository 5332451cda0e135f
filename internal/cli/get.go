package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/service"
)

// PostOutput is the success payload for "get post".
type PostOutput struct {
	Address    string `json:"address"`
	Owner      string `json:"owner"`
	ContentRef string `json:"content_ref"`
	Reactions  uint64 `json:"reactions"`
	Comments   uint64 `json:"comments"`
	CreatedAt  int64  `json:"created_at"`
	Bump       uint8  `json:"bump"`
}

func (o PostOutput) String() string {
	return fmt.Sprintf("Post %s\n  owner: %s\n  content: %s\n  reactions: %d\n  comments: %d\n  created_at: %d\n  bump: %d",
		o.Address, o.Owner, o.ContentRef, o.Reactions, o.Comments, o.CreatedAt, o.Bump)
}

// CommentRecordOutput is the success payload for "get comment".
type CommentRecordOutput struct {
	Address    string `json:"address"`
	Post       string `json:"post"`
	Author     string `json:"author"`
	ContentRef string `json:"content_ref"`
	CreatedAt  int64  `json:"created_at"`
	Bump       uint8  `json:"bump"`
}

func (o CommentRecordOutput) String() string {
	return fmt.Sprintf("Comment %s\n  post: %s\n  author: %s\n  content: %s\n  created_at: %d\n  bump: %d",
		o.Address, o.Post, o.Author, o.ContentRef, o.CreatedAt, o.Bump)
}

// NewGetCommand creates the get command with post and comment subcommands.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a record by address",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "post <address>",
		Short:         "Read a post record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetPost(rootOpts, args[0], cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "comment <address>",
		Short:         "Read a comment record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetComment(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runGetPost(opts *RootOptions, addr string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := newFormatter(opts, cmd)
	svc := service.New(st)

	post, err := svc.GetPost(cmd.Context(), ledger.Address(addr))
	if err != nil {
		return operationFailure(f, err)
	}

	return f.Success(PostOutput{
		Address:    string(post.Address),
		Owner:      string(post.Owner),
		ContentRef: post.ContentRef,
		Reactions:  post.ReactionCount,
		Comments:   post.CommentCount,
		CreatedAt:  post.CreatedAt,
		Bump:       post.Bump,
	})
}

func runGetComment(opts *RootOptions, addr string, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := newFormatter(opts, cmd)
	svc := service.New(st)

	comment, err := svc.GetComment(cmd.Context(), ledger.Address(addr))
	if err != nil {
		return operationFailure(f, err)
	}

	return f.Success(CommentRecordOutput{
		Address:    string(comment.Address),
		Post:       string(comment.Post),
		Author:     string(comment.Author),
		ContentRef: comment.ContentRef,
		CreatedAt:  comment.CreatedAt,
		Bump:       comment.Bump,
	})
}
