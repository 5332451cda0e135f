package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for derived addresses.
// Version suffix enables future algorithm migration.
const (
	DomainPost    = "whisper/post/v1"
	DomainComment = "whisper/comment/v1"
)

// maxBump is the highest disambiguation value tried during derivation.
// The search runs downward from maxBump to 0; the first valid candidate is
// the canonical bump for the seeds.
const maxBump = 255

// DerivationExhaustedError is returned when no bump lands the derived
// address inside the usable address space. This should not occur in
// practice and signals an address-space or implementation bug; callers
// must treat it as fatal, never retry.
type DerivationExhaustedError struct {
	Domain string
}

func (e *DerivationExhaustedError) Error() string {
	return fmt.Sprintf("address derivation exhausted all bumps (domain=%s)", e.Domain)
}

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// addressUsable reports whether a digest falls in the usable address space.
// Digests with a zero leading byte are reserved for the host environment
// and must be skipped during the bump search.
func addressUsable(digest [sha256.Size]byte) bool {
	return digest[0] != 0x00
}

// derive runs the bump search for the given domain and seeds.
// Seeds plus the candidate bump are serialized as canonical JSON so the
// derivation is stable across implementations and re-verifiable from the
// stored record alone.
func derive(domain string, seeds map[string]any) (Address, uint8, error) {
	obj := make(map[string]any, len(seeds)+1)
	for k, v := range seeds {
		obj[k] = v
	}

	for bump := maxBump; bump >= 0; bump-- {
		obj["bump"] = int64(bump)
		canonical, err := MarshalCanonical(obj)
		if err != nil {
			return "", 0, fmt.Errorf("derive: marshal seeds: %w", err)
		}
		digest := hashWithDomain(domain, canonical)
		if addressUsable(digest) {
			return Address(hex.EncodeToString(digest[:])), uint8(bump), nil
		}
	}

	return "", 0, &DerivationExhaustedError{Domain: domain}
}

// DerivePostAddress computes the address for an owner's post.
// One owner maps to exactly one possible address, which is what enforces
// the one-post-per-owner invariant without a uniqueness index.
func DerivePostAddress(owner Identity) (Address, uint8, error) {
	return derive(DomainPost, map[string]any{
		"owner": string(owner),
	})
}

// DeriveCommentAddress computes the address for an author's comment on a
// post. One (post, author) pair maps to exactly one possible address.
func DeriveCommentAddress(post Address, author Identity) (Address, uint8, error) {
	return derive(DomainComment, map[string]any{
		"post":   string(post),
		"author": string(author),
	})
}

// VerifyPostAddress reports whether (addr, bump) is the canonical
// derivation for owner. A stored record whose bump does not match the
// canonical search result is treated as forged.
func VerifyPostAddress(addr Address, owner Identity, bump uint8) bool {
	derived, canonicalBump, err := DerivePostAddress(owner)
	return err == nil && derived == addr && canonicalBump == bump
}

// VerifyCommentAddress reports whether (addr, bump) is the canonical
// derivation for (post, author).
func VerifyCommentAddress(addr Address, post Address, author Identity, bump uint8) bool {
	derived, canonicalBump, err := DeriveCommentAddress(post, author)
	return err == nil && derived == addr && canonicalBump == bump
}

// MustDerivePostAddress is like DerivePostAddress but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDerivePostAddress(owner Identity) (Address, uint8) {
	addr, bump, err := DerivePostAddress(owner)
	if err != nil {
		panic(err)
	}
	return addr, bump
}

// MustDeriveCommentAddress is like DeriveCommentAddress but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDeriveCommentAddress(post Address, author Identity) (Address, uint8) {
	addr, bump, err := DeriveCommentAddress(post, author)
	if err != nil {
		panic(err)
	}
	return addr, bump
}
