// Package ledger provides the foundational types for the whisper content
// ledger: identities, derived addresses, and the post/comment record shapes.
//
// This package also implements address derivation. Every record lives at a
// deterministic address computed from its owning identity plus context, so
// the ledger needs no registry or secondary uniqueness index: a second
// publish by the same owner lands on the same address and is rejected by the
// store's create-if-absent primitive.
//
// All other internal packages import ledger; ledger imports nothing
// internal. This keeps it the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - NO float types anywhere - counters are uint64, timestamps int64
//   - Derivation is pure: no I/O, no shared state, deterministic output
//   - All JSON tags use snake_case
package ledger
