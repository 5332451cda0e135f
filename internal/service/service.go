package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/whisper/internal/ledger"
	"github.com/roach88/whisper/internal/store"
)

// Ledger orchestrates the confession operations over a RecordStore.
//
// Thread-safety: Ledger itself is stateless; concurrent operations are
// safe to whatever degree the underlying store's Atomic/Mutate contract
// provides (all bundled backends serialize conflicting writers).
type Ledger struct {
	store  store.RecordStore
	clock  Clock
	tokens TokenGenerator
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the creation-time source. Used by tests and the
// conformance harness to pin timestamps.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithTokenGenerator overrides the operation-token source.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(l *Ledger) { l.tokens = g }
}

// WithLogger sets the operation logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a Ledger over the given store.
func New(st store.RecordStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  st,
		clock:  SystemClock{},
		tokens: UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PublishResult identifies the created post record.
type PublishResult struct {
	Address ledger.Address `json:"address"`
	Bump    uint8          `json:"bump"`
}

// CommentResult identifies the created comment record.
type CommentResult struct {
	Address ledger.Address `json:"address"`
	Bump    uint8          `json:"bump"`
}

// Publish creates the signer's post record.
//
// State machine: validate content ref -> bind signer to owner -> derive the
// owner's single post address -> create-if-absent with zeroed counters.
// A second publish by the same owner derives the same address and fails
// with ALREADY_EXISTS; that rejection is the one-post-per-owner cap.
func (l *Ledger) Publish(ctx context.Context, signer, owner ledger.Identity, contentRef string) (PublishResult, error) {
	const op = "publish"

	if err := validateContentRef(op, contentRef); err != nil {
		return PublishResult{}, err
	}
	if err := validateSigner(op, signer, owner); err != nil {
		return PublishResult{}, err
	}

	addr, bump, err := ledger.DerivePostAddress(owner)
	if err != nil {
		return PublishResult{}, NewDerivationExhaustedError(op, err)
	}

	post := ledger.Post{
		Address:    addr,
		Owner:      owner,
		ContentRef: contentRef,
		CreatedAt:  l.clock.Now(),
		Bump:       bump,
	}
	if err := l.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return PublishResult{}, NewAlreadyExistsError(op, addr)
		}
		return PublishResult{}, fmt.Errorf("%s: %w", op, err)
	}

	l.logger.Info("confession published",
		"token", l.tokens.Generate(),
		"address", addr,
		"owner", owner,
	)
	return PublishResult{Address: addr, Bump: bump}, nil
}

// React increments a post's reaction counter and returns the new count.
//
// No uniqueness constraint applies to the reactor: the same identity may
// react unboundedly many times, and no reactor identity is persisted. This
// is a deliberate policy, not an oversight - do not add dedup here.
func (l *Ledger) React(ctx context.Context, post ledger.Address, reactor ledger.Identity) (uint64, error) {
	const op = "react"

	updated, err := l.store.MutatePost(ctx, post, func(p *ledger.Post) error {
		next, ok := checkedIncrement(p.ReactionCount)
		if !ok {
			return NewCounterOverflowError(op, post)
		}
		p.ReactionCount = next
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, NewNotInitializedError(op, post)
		}
		return 0, opFailure(op, err)
	}

	l.logger.Info("confession reaction recorded",
		"token", l.tokens.Generate(),
		"address", post,
		"reactor", reactor,
		"reaction_count", updated.ReactionCount,
	)
	return updated.ReactionCount, nil
}

// Comment creates the signer's comment on a post and bumps the post's
// comment counter.
//
// State machine: validate content ref -> bind signer to author -> derive
// the (post, author) comment address -> inside one store transaction:
// confirm the parent exists, create-if-absent the comment, bump the
// counter. The creation and the bump commit together or not at all; a
// duplicate (post, author) pair fails with ALREADY_EXISTS and leaves the
// counter untouched.
func (l *Ledger) Comment(ctx context.Context, signer, author ledger.Identity, post ledger.Address, contentRef string) (CommentResult, error) {
	const op = "comment"

	if err := validateContentRef(op, contentRef); err != nil {
		return CommentResult{}, err
	}
	if err := validateSigner(op, signer, author); err != nil {
		return CommentResult{}, err
	}

	addr, bump, err := ledger.DeriveCommentAddress(post, author)
	if err != nil {
		return CommentResult{}, NewDerivationExhaustedError(op, err)
	}

	comment := ledger.Comment{
		Address:    addr,
		Post:       post,
		Author:     author,
		ContentRef: contentRef,
		CreatedAt:  l.clock.Now(),
		Bump:       bump,
	}

	err = l.store.Atomic(ctx, func(tx store.RecordStore) error {
		// Parent existence is confirmed inside the transaction so the
		// comment can never outlive a post that was absent at commit time.
		if _, err := tx.GetPost(ctx, post); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NewNotInitializedError(op, post)
			}
			return err
		}

		if err := tx.CreateComment(ctx, comment); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return NewAlreadyExistsError(op, addr)
			}
			return err
		}

		_, err := tx.MutatePost(ctx, post, func(p *ledger.Post) error {
			next, ok := checkedIncrement(p.CommentCount)
			if !ok {
				return NewCounterOverflowError(op, post)
			}
			p.CommentCount = next
			return nil
		})
		return err
	})
	if err != nil {
		return CommentResult{}, opFailure(op, err)
	}

	l.logger.Info("confession comment recorded",
		"token", l.tokens.Generate(),
		"address", addr,
		"post", post,
		"author", author,
	)
	return CommentResult{Address: addr, Bump: bump}, nil
}

// GetPost reads a post record.
func (l *Ledger) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	const op = "get-post"

	post, err := l.store.GetPost(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ledger.Post{}, NewNotInitializedError(op, addr)
		}
		return ledger.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	return post, nil
}

// GetComment reads a comment record.
func (l *Ledger) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	const op = "get-comment"

	comment, err := l.store.GetComment(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ledger.Comment{}, NewNotInitializedError(op, addr)
		}
		return ledger.Comment{}, fmt.Errorf("%s: %w", op, err)
	}
	return comment, nil
}

// Feed enumerates all post records via the store's scan facility, ordered
// by creation time then address.
func (l *Ledger) Feed(ctx context.Context) ([]ledger.Post, error) {
	posts, err := l.store.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return posts, nil
}

// checkedIncrement adds 1 with uint64 overflow detection.
func checkedIncrement(n uint64) (uint64, bool) {
	if n == math.MaxUint64 {
		return 0, false
	}
	return n + 1, true
}

// opFailure passes typed operation errors through unchanged and wraps
// everything else with the operation name.
func opFailure(op string, err error) error {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe
	}
	return fmt.Errorf("%s: %w", op, err)
}
