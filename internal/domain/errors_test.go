package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKindAndMessage(t *testing.T) {
	wrapped := fmt.Errorf("accept offer: %w", ErrOfferNotPending)
	assert.ErrorIs(t, wrapped, ErrOfferNotPending)
	assert.NotErrorIs(t, wrapped, ErrRequestNotOpen)

	withCause := ErrUserNotFound.Wrap(errors.New("sql: no rows"))
	assert.ErrorIs(t, withCause, ErrUserNotFound)
	assert.Equal(t, "user not found: sql: no rows", withCause.Error())
}

func TestKindOfAndMessageOf(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    ErrorKind
		message string
	}{
		{"sentinel", ErrDuplicateOffer, KindConflict, "you already have an active offer on this request"},
		{"wrapped", fmt.Errorf("x: %w", ErrBlocked), KindBlocked, "conversation is blocked"},
		{"ad hoc", InvalidInput("name is required"), KindInvalidInput, "name is required"},
		{"foreign", errors.New("connection reset"), KindInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.message, MessageOf(tt.err))
		})
	}
}
