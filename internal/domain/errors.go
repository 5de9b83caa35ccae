package domain

import "errors"

var (
	// ErrTemplateNotFound signals a missing template.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrShareLinkNotFound signals a missing or expired share link.
	ErrShareLinkNotFound = errors.New("share link not found")
	// ErrForbidden signals that the caller may not access the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated signals that the operation requires a signed-in caller.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrValidation signals an invalid request parameter.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCursor signals a malformed or incompatible pagination token.
	// IsValidation treats it as part of the validation class.
	ErrInvalidCursor = errors.New("invalid pagination token")
)

// IsValidation reports whether err belongs to the validation error class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidCursor)
}
