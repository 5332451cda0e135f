package ledger

// Identity is an externally verified actor reference. The execution
// environment guarantees that a transaction's claimed identity actually
// authorized it; this package treats identities as opaque non-empty strings.
type Identity string

// Address identifies a record in the ledger's key-value space: the lowercase
// hex encoding of a 32-byte derived digest.
type Address string

// RecordKind tags the two record shapes sharing the address space.
// Feed readers scan all records and filter by kind.
type RecordKind string

const (
	KindPost    RecordKind = "post"
	KindComment RecordKind = "comment"
)

// MaxContentRefLen is the inclusive upper bound on a content reference,
// measured in bytes. Content itself lives off-ledger; records carry only an
// opaque pointer to it.
const MaxContentRefLen = 200

// Post is a published confession. Everything except the two counters is
// immutable after creation. The counters are mutable by any identity, but
// only through the react/comment operations.
type Post struct {
	// Address is the derived address this record is stored under.
	Address Address `json:"address"`

	// Owner is the publishing identity. Exactly one post exists per owner:
	// the address is derived from the owner alone.
	Owner Identity `json:"owner"`

	// ContentRef is an opaque pointer to externally stored content,
	// 1..MaxContentRefLen bytes.
	ContentRef string `json:"content_ref"`

	// ReactionCount is incremented by exactly 1 per successful reaction.
	// Monotonically non-decreasing.
	ReactionCount uint64 `json:"reaction_count"`

	// CommentCount is incremented by exactly 1 per successful comment.
	// Monotonically non-decreasing.
	CommentCount uint64 `json:"comment_count"`

	// CreatedAt is the creation time in Unix UTC seconds. Set once.
	CreatedAt int64 `json:"created_at"`

	// Bump is the disambiguation value chosen during derivation. Stored so
	// verifiers can recompute the derivation and confirm the address is
	// authentic.
	Bump uint8 `json:"bump"`
}

// Comment is a child record attached to a post. Fully immutable after
// creation. One comment exists per (post, author) pair: the address is
// derived from both.
type Comment struct {
	// Address is the derived address this record is stored under.
	Address Address `json:"address"`

	// Post is the address of the parent post. The parent must exist at the
	// time the comment is created.
	Post Address `json:"post"`

	// Author is the commenting identity.
	Author Identity `json:"author"`

	// ContentRef is an opaque pointer to externally stored content,
	// 1..MaxContentRefLen bytes.
	ContentRef string `json:"content_ref"`

	// CreatedAt is the creation time in Unix UTC seconds. Set once.
	CreatedAt int64 `json:"created_at"`

	// Bump is the disambiguation value chosen during derivation.
	Bump uint8 `json:"bump"`
}
