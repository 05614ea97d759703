package catleg

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL    = "internal"
	EINVALID     = "invalid"
	ENOTFOUND    = "not_found"
	EUNSUPPORTED = "unsupported"
	ETIMEOUT     = "timeout"
)

// Named error kinds. Match them with errors.Is; build concrete errors
// carrying a message with their Errorf method.
var (
	ErrInvalidIdentifier    = &Error{Code: EINVALID, Reason: "invalid_identifier", Message: "invalid identifier"}
	ErrArticleNotFound      = &Error{Code: ENOTFOUND, Reason: "article_not_found", Message: "article not found"}
	ErrTocNotFound          = &Error{Code: ENOTFOUND, Reason: "toc_not_found", Message: "table of contents not found"}
	ErrSectionNotFound      = &Error{Code: ENOTFOUND, Reason: "section_not_found", Message: "section not found"}
	ErrUnsupportedAuthority = &Error{Code: EUNSUPPORTED, Reason: "unsupported_authority", Message: "unsupported identifier authority"}
	ErrTimeout              = &Error{Code: ETIMEOUT, Reason: "timeout", Message: "operation timed out"}
)

// Error represents an application-specific error.
type Error struct {
	// Machine-readable error code.
	Code string

	// Optional machine-readable kind within the code (e.g. "section_not_found").
	Reason string

	// Human-readable message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("catleg error: code=%s message=%s", e.Code, e.Message)
}

// Is reports whether target is an *Error of the same code and, when target
// carries a reason, of the same reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Reason == "" || t.Reason == e.Reason)
}

// Errorf returns a new error of the same kind with a formatted message.
func (e *Error) Errorf(format string, args ...any) *Error {
	return &Error{
		Code:    e.Code,
		Reason:  e.Reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
