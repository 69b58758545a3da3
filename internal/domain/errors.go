package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business errors so the delivery layer can map them.
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindBlocked      ErrorKind = "blocked"
	KindInternal     ErrorKind = "internal"
)

// Error is the single error type returned by use cases for rule violations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so wrapped copies of a sentinel still match.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidInput builds an ad-hoc validation error.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf reports the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

var (
	ErrInvalidInput  = NewError(KindInvalidInput, "invalid input")
	ErrNotAuthorized = NewError(KindUnauthorized, "Not authorized")
	ErrUnauthorized  = NewError(KindUnauthorized, "unauthorized")
)

// User errors
var (
	ErrUserNotFound            = NewError(KindNotFound, "user not found")
	ErrInvalidStatusTransition = NewError(KindInvalidState, "invalid user status transition")
)

// Swipe & match errors
var (
	ErrDuplicateSwipe     = NewError(KindConflict, "already swiped on this user")
	ErrCannotSwipeSelf    = NewError(KindInvalidInput, "cannot swipe on yourself")
	ErrInvalidSwipe       = NewError(KindInvalidInput, "invalid swipe action")
	ErrMatchNotFound      = NewError(KindNotFound, "match not found")
	ErrMatchNotActive     = NewError(KindInvalidState, "match is not active")
	ErrNotMatchMember     = NewError(KindUnauthorized, "not a participant of this match")
	ErrBlocked            = NewError(KindBlocked, "conversation is blocked")
	ErrCannotBlockSelf    = NewError(KindInvalidInput, "cannot block yourself")
	ErrEmptyMessage       = NewError(KindInvalidInput, "message content is required")
	ErrMessageTooLong     = NewError(KindInvalidInput, "message content is too long")
	ErrInvalidMessageType = NewError(KindInvalidInput, "invalid message type")
)

// Help marketplace errors
var (
	ErrRequestNotFound       = NewError(KindNotFound, "help request not found")
	ErrOfferNotFound         = NewError(KindNotFound, "offer not found")
	ErrConversationNotFound  = NewError(KindNotFound, "conversation not found")
	ErrConversationExists    = NewError(KindConflict, "conversation already exists for this request")
	ErrInvalidCategory       = NewError(KindInvalidInput, "invalid category")
	ErrInvalidPrice          = NewError(KindInvalidInput, "price must be a non-negative amount in cents")
	ErrRequestNotOpen        = NewError(KindInvalidState, "request is not open")
	ErrRequestNotInProgress  = NewError(KindInvalidState, "request is not in progress")
	ErrRequestClosed         = NewError(KindInvalidState, "request is already completed or cancelled")
	ErrOwnRequest            = NewError(KindInvalidInput, "cannot offer help on your own request")
	ErrDuplicateOffer        = NewError(KindConflict, "you already have an active offer on this request")
	ErrOfferNotPending       = NewError(KindInvalidState, "offer is not pending")
	ErrOfferNotAccepted      = NewError(KindInvalidState, "offer has not been accepted")
	ErrOfferMismatch         = NewError(KindInvalidInput, "offer does not belong to this request")
	ErrNotConversationMember = NewError(KindUnauthorized, "not a participant of this conversation")
)
