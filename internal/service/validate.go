package service

import "github.com/roach88/whisper/internal/ledger"

// Validation rules evaluated before any store mutation:
//
//  1. Content reference byte length must be >= 1 and <= ledger.MaxContentRefLen.
//  2. The identity authorizing the transaction must equal the identity
//     supplied as the acting party for role-restricted fields (publisher
//     for publish, commenter for comment).
//
// The checks are independent and order-insensitive in outcome: any single
// failing rule aborts the operation. Structural rules are cheap and run
// before any store read; the parent-exists rule for comments needs a store
// read and therefore lives inside the operation's transaction.

// validateContentRef enforces the 1..MaxContentRefLen byte bound.
// Length is measured in bytes, not runes: the bound is a storage contract,
// not a display constraint.
func validateContentRef(op, contentRef string) error {
	if len(contentRef) == 0 {
		return NewEmptyContentURIError(op)
	}
	if len(contentRef) > ledger.MaxContentRefLen {
		return NewContentURITooLongError(op, len(contentRef))
	}
	return nil
}

// validateSigner enforces that the authorizing identity holds the
// role-restricted field. The execution environment has already verified
// that signer authorized the transaction; this rule only binds that
// authority to the acting party named in the arguments.
func validateSigner(op string, signer, required ledger.Identity) error {
	if signer != required {
		return NewUnauthorizedSignerError(op, signer, required)
	}
	return nil
}
