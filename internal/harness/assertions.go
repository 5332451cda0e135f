package harness

import (
	"context"
	"fmt"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/service"
)

// evaluateAssertions checks every assertion against final store state and
// records failures on the result.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		if msg := h.evaluateAssertion(ctx, &a); msg != "" {
			result.AddFailure(fmt.Sprintf("assertion %d (%s): %s", i, a.Type, msg))
		}
	}
}

// evaluateAssertion returns an empty string when the assertion holds, or a
// failure description.
func (h *Harness) evaluateAssertion(ctx context.Context, a *Assertion) string {
	switch a.Type {
	case AssertPostState:
		return h.assertPostState(ctx, a)
	case AssertCommentExists:
		return h.assertComment(ctx, a, true)
	case AssertCommentAbsent:
		return h.assertComment(ctx, a, false)
	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
}

func (h *Harness) assertPostState(ctx context.Context, a *Assertion) string {
	post, err := h.ledger.GetPost(ctx, postAddress(a.Post))
	if err != nil {
		return fmt.Sprintf("post %q: %v", a.Post, err)
	}

	if a.Reactions != nil && post.ReactionCount != *a.Reactions {
		return fmt.Sprintf("post %q: expected %d reactions, got %d", a.Post, *a.Reactions, post.ReactionCount)
	}
	if a.Comments != nil && post.CommentCount != *a.Comments {
		return fmt.Sprintf("post %q: expected %d comments, got %d", a.Post, *a.Comments, post.CommentCount)
	}
	return ""
}

func (h *Harness) assertComment(ctx context.Context, a *Assertion, wantExists bool) string {
	addr, _ := ledger.MustDeriveCommentAddress(postAddress(a.Post), ledger.Identity(a.Author))

	_, err := h.ledger.GetComment(ctx, addr)
	switch {
	case err == nil && !wantExists:
		return fmt.Sprintf("comment by %q on %q exists but should not", a.Author, a.Post)
	case err != nil && wantExists:
		return fmt.Sprintf("comment by %q on %q: %v", a.Author, a.Post, err)
	case err != nil && !service.IsNotInitialized(err):
		return fmt.Sprintf("comment by %q on %q: unexpected error: %v", a.Author, a.Post, err)
	}
	return ""
}
