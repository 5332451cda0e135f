package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/service"
	"github.com/roach88/whisper/internal/store"
	"github.com/roach88/whisper/internal/testutil"
)

// scenarioEpoch is the fixed clock start for every scenario run.
const scenarioEpoch = 1700000000

// Harness executes one scenario against a fresh ledger.
type Harness struct {
	ledger *service.Ledger
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory SQLite database with a fixed
// clock and sequential operation tokens, so repeated runs of the same
// scenario produce byte-identical traces.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		ledger: service.New(st,
			service.WithClock(testutil.NewFixedClock(scenarioEpoch, 1)),
			service.WithTokenGenerator(&testutil.TokenSequence{}),
		),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, int64(i+1), step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	h.evaluateAssertions(ctx, scenario.Assertions, result)

	return result, nil
}

// executeStep runs one step, checks its expected outcome, and appends the
// trace event.
func (h *Harness) executeStep(ctx context.Context, seq int64, step Step, result *Result) error {
	signer := ledger.Identity(step.Signer)
	if step.Signer == "" {
		signer = ledger.Identity(step.Actor)
	}
	actor := ledger.Identity(step.Actor)

	var opErr error
	switch step.Op {
	case OpPublish:
		_, opErr = h.ledger.Publish(ctx, signer, actor, step.ContentRef)
	case OpReact:
		_, opErr = h.ledger.React(ctx, postAddress(step.Post), actor)
	case OpComment:
		_, opErr = h.ledger.Comment(ctx, signer, actor, postAddress(step.Post), step.ContentRef)
	case OpGet:
		_, opErr = h.ledger.GetPost(ctx, postAddress(step.Post))
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	outcome := outcomeCode(opErr)
	if outcome != step.Expect {
		result.AddFailure(fmt.Sprintf("step %d (%s by %s): expected outcome %q, got %q",
			seq, step.Op, step.Actor, step.Expect, outcome))
	}

	event := TraceEvent{
		Seq:    seq,
		Step:   step.Op,
		Actor:  step.Actor,
		Post:   step.Post,
		Output: outcome,
	}

	// Counters are snapshotted only for successful steps; a failed step has
	// no well-defined target state to report.
	if opErr == nil {
		target := step.Post
		if step.Op == OpPublish {
			target = step.Actor
		}
		post, err := h.ledger.GetPost(ctx, postAddress(target))
		if err != nil {
			return fmt.Errorf("snapshot post %q: %w", target, err)
		}
		event.Reactions = &post.ReactionCount
		event.Comments = &post.CommentCount
	}

	result.Trace = append(result.Trace, event)

	h.logger.Info("step executed",
		"seq", seq,
		"op", step.Op,
		"actor", step.Actor,
		"outcome", outcome,
	)
	return nil
}

// postAddress resolves an owner label to the post address it derives.
// A label that never published resolves to an address with no record, which
// is exactly what a dangling reference should look like.
func postAddress(ownerLabel string) ledger.Address {
	addr, _ := ledger.MustDerivePostAddress(ledger.Identity(ownerLabel))
	return addr
}

// outcomeCode maps an operation result to its trace representation:
// "ok" on success, the typed error code on an operation failure, and
// "INTERNAL" for anything untyped.
func outcomeCode(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := service.CodeOf(err); code != "" {
		return string(code)
	}
	return "INTERNAL"
}
