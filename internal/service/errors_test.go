package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationErrorFormatting(t *testing.T) {
	withAddr := NewAlreadyExistsError("publish", "abc123")
	assert.Equal(t, "publish: ALREADY_EXISTS: record already exists at derived address (address=abc123)", withAddr.Error())

	withoutAddr := NewEmptyContentURIError("comment")
	assert.Equal(t, "comment: EMPTY_CONTENT_URI: content URI cannot be empty", withoutAddr.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeNotInitialized, CodeOf(NewNotInitializedError("react", "abc")))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))

	// Wrapped errors still resolve.
	wrapped := fmt.Errorf("outer: %w", NewCounterOverflowError("react", "abc"))
	assert.Equal(t, ErrCodeCounterOverflow, CodeOf(wrapped))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsAlreadyExists(NewAlreadyExistsError("publish", "abc")))
	assert.False(t, IsAlreadyExists(NewNotInitializedError("react", "abc")))

	assert.True(t, IsNotInitialized(NewNotInitializedError("get-post", "abc")))
	assert.False(t, IsNotInitialized(errors.New("plain")))

	assert.True(t, IsValidation(NewEmptyContentURIError("publish")))
	assert.True(t, IsValidation(NewContentURITooLongError("publish", 300)))
	assert.True(t, IsValidation(NewUnauthorizedSignerError("publish", "mallory", "alice")))
	assert.False(t, IsValidation(NewAlreadyExistsError("publish", "abc")))
}

func TestContentURITooLongMessage(t *testing.T) {
	err := NewContentURITooLongError("publish", 201)
	assert.Contains(t, err.Error(), "201 bytes")
	assert.Contains(t, err.Error(), "max 200")
}
