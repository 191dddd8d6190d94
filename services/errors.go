package services

import (
	"errors"

	"github.com/cppla/blogapi/utils"
)

// Kind classifies a service failure. Callers branch on Kind, never on message text.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindConflict
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is an expected, client-facing failure. Fields is set only for KindInvalidInput.
type Error struct {
	Kind    Kind
	Message string
	Fields  []utils.FieldError
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for both a missing post and a missing comment.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput, Message: "Invalid input"}
	ErrConflict           = &Error{Kind: KindConflict, Message: "Conflict"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "Unauthenticated"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "Forbidden"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "Not found"}
)

var (
	errEmailTaken       = &Error{Kind: KindConflict, Message: "Email already registered"}
	errUserGone         = &Error{Kind: KindUnauthenticated, Message: "User not found"}
	errPostNotFound     = &Error{Kind: KindNotFound, Message: "Blog not found"}
	errCommentNotFound  = &Error{Kind: KindNotFound, Message: "Comment not found"}
	errNotPostAuthor    = &Error{Kind: KindForbidden, Message: "Unauthorized: not the author"}
	errNotCommentEditor = &Error{Kind: KindForbidden, Message: "Unauthorized to delete comment"}
)

// KindOf reports the kind of err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
