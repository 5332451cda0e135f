// Package store abstracts the ledger's record space: a key-value store of
// fixed-layout records keyed by derived address.
//
// The interface exposes exactly the primitives the confession service
// needs from its execution environment:
//
//   - create-if-absent: concurrent creators racing for one address see
//     exactly one winner; occupied addresses are never overwritten
//   - read: typed lookup by address
//   - mutate: read-modify-write of a post's counters as one atomic step
//   - atomic composition: several store calls as one all-or-nothing
//     transaction (used to pair a comment creation with its counter bump)
//
// Three backends implement the interface: SQLite (durable, default for the
// CLI), in-memory (tests and ephemeral use), and Postgres.
//
// The atomic-serialized-transaction guarantee the ledger core requires from
// its host is modeled here explicitly rather than assumed ambient: Atomic is
// part of the contract, and each backend supplies it with its own mechanism
// (a single-connection SQL transaction, a held write lock, a gorm
// transaction).
package store

import (
	"context"
	"errors"

	"github.com/roach88/whisper/internal/ledger"
)

// Sentinel errors shared by all backends. Callers match with errors.Is.
var (
	// ErrAlreadyExists means the target address is occupied. Create calls
	// never overwrite; a duplicate creation is a terminal outcome, not a
	// transient one.
	ErrAlreadyExists = errors.New("record already exists at address")

	// ErrNotFound means no record exists at the address.
	ErrNotFound = errors.New("record not found")
)

// RecordStore is the ledger's view of the host key-value space.
//
// MutatePost applies fn to the current record and persists the result as a
// single atomic step. fn must be free of side effects beyond field updates
// so repeated application under retry is safe. Only the counter fields of
// the updated record are persisted: owner, content ref, creation time and
// bump are write-once.
//
// Atomic runs fn against a transactional view of the store. If fn returns
// an error, none of its writes are observable. Nesting Atomic inside an
// Atomic body joins the outer transaction.
type RecordStore interface {
	CreatePost(ctx context.Context, post ledger.Post) error
	GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error)
	MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error)

	CreateComment(ctx context.Context, comment ledger.Comment) error
	GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error)

	// Posts enumerates all post records for feed construction, ordered by
	// creation time then address for deterministic results. This is the
	// host's account-scan facility; there is no secondary indexing.
	Posts(ctx context.Context) ([]ledger.Post, error)

	Atomic(ctx context.Context, fn func(tx RecordStore) error) error
}
