package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/whisper/internal/service"
)

// FeedOutput is the success payload for the feed command.
type FeedOutput struct {
	Posts []PostOutput `json:"posts"`
	Total int          `json:"total"`
}

func (o FeedOutput) String() string {
	if o.Total == 0 {
		return "No confessions published."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d confession(s)\n", o.Total)
	for _, post := range o.Posts {
		fmt.Fprintf(&b, "  %s  owner=%s  reactions=%d  comments=%d\n",
			post.Address, post.Owner, post.Reactions, post.Comments)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "List all confessions",
		Long: `List every published confession, ordered by creation time.

Example:
  whisper feed --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(rootOpts, cmd)
		},
	}
}

func runFeed(opts *RootOptions, cmd *cobra.Command) error {
	st, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := newFormatter(opts, cmd)
	svc := service.New(st)

	posts, err := svc.Feed(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list posts", err)
	}

	out := FeedOutput{Posts: make([]PostOutput, 0, len(posts)), Total: len(posts)}
	for _, post := range posts {
		out.Posts = append(out.Posts, PostOutput{
			Address:    string(post.Address),
			Owner:      string(post.Owner),
			ContentRef: post.ContentRef,
			Reactions:  post.ReactionCount,
			Comments:   post.CommentCount,
			CreatedAt:  post.CreatedAt,
			Bump:       post.Bump,
		})
	}

	return f.Success(out)
}
