// Package service implements the confession ledger's three operations:
// publish, react, comment.
//
// Each operation is a small state machine executed as one atomic
// transaction against the record store:
//
//	validate inputs -> derive target address(es) -> create / mutate -> result or typed failure
//
// Records move Nonexistent -> Created exactly once (publish and comment are
// the only creation edges); posts additionally loop Created -> Created on
// every successful react or comment, bumping a counter. No deletion edge
// exists.
//
// Uniqueness comes from addressing, not locking: one owner derives one post
// address, one (post, author) pair derives one comment address, and the
// store's create-if-absent primitive rejects the duplicate. The store's
// Atomic/Mutate contract carries the concurrency burden - racing creators
// see exactly one winner, racing reactors lose no updates, and a comment's
// record creation and counter bump commit together or not at all.
package service
