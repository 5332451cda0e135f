package ledger

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePostAddressDeterminism(t *testing.T) {
	addr1, bump1, err := DerivePostAddress("alice")
	require.NoError(t, err)

	addr2, bump2, err := DerivePostAddress("alice")
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2, "derivation must be deterministic")
	assert.Equal(t, bump1, bump2)
	assert.Len(t, string(addr1), 64, "SHA-256 hex is 64 characters")
}

func TestDerivePostAddressChangesWithOwner(t *testing.T) {
	addr1, _ := MustDerivePostAddress("alice")
	addr2, _ := MustDerivePostAddress("bob")

	assert.NotEqual(t, addr1, addr2, "different owners must map to different addresses")
}

func TestDeriveCommentAddressChangesWithInput(t *testing.T) {
	post, _ := MustDerivePostAddress("alice")
	otherPost, _ := MustDerivePostAddress("dana")

	addr1, _ := MustDeriveCommentAddress(post, "bob")
	addr2, _ := MustDeriveCommentAddress(post, "carol")
	addr3, _ := MustDeriveCommentAddress(otherPost, "bob")

	assert.NotEqual(t, addr1, addr2, "different authors must map to different addresses")
	assert.NotEqual(t, addr1, addr3, "different posts must map to different addresses")
}

func TestPostAndCommentDomainsAreSeparated(t *testing.T) {
	// Same seed material under different domains must not collide. An
	// identity that equals some post address hex must still derive a
	// distinct comment address.
	postAddr, _ := MustDerivePostAddress("alice")
	commentAddr, _ := MustDeriveCommentAddress(postAddr, "alice")

	assert.NotEqual(t, postAddr, commentAddr)
}

func TestDerivedAddressIsUsable(t *testing.T) {
	// The bump search must never return an address in the host-reserved
	// range (leading zero byte).
	for _, owner := range []Identity{"alice", "bob", "carol", "dana", "erin"} {
		addr, _, err := DerivePostAddress(owner)
		require.NoError(t, err)
		assert.NotEqual(t, "00", string(addr[:2]), "owner %s derived a reserved address", owner)
	}
}

func TestAddressUsablePredicate(t *testing.T) {
	var reserved [sha256.Size]byte
	assert.False(t, addressUsable(reserved))

	reserved[0] = 0x01
	assert.True(t, addressUsable(reserved))
}

func TestVerifyPostAddress(t *testing.T) {
	addr, bump := MustDerivePostAddress("alice")

	assert.True(t, VerifyPostAddress(addr, "alice", bump))
	assert.False(t, VerifyPostAddress(addr, "bob", bump), "wrong owner must fail verification")
	assert.False(t, VerifyPostAddress("deadbeef", "alice", bump), "wrong address must fail verification")

	// A non-canonical bump is a forgery even if the owner is right.
	assert.False(t, VerifyPostAddress(addr, "alice", bump-1))
}

func TestVerifyCommentAddress(t *testing.T) {
	post, _ := MustDerivePostAddress("alice")
	addr, bump := MustDeriveCommentAddress(post, "bob")

	assert.True(t, VerifyCommentAddress(addr, post, "bob", bump))
	assert.False(t, VerifyCommentAddress(addr, post, "carol", bump))
	assert.False(t, VerifyCommentAddress(addr, "deadbeef", "bob", bump))
}

func TestHashWithDomainSeparation(t *testing.T) {
	d1 := hashWithDomain(DomainPost, []byte("payload"))
	d2 := hashWithDomain(DomainComment, []byte("payload"))

	assert.NotEqual(t, d1, d2, "same payload under different domains must differ")
}
