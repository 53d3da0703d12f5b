package shared

import "errors"

// Lookup and uniqueness failures reported by the repositories. Handlers map
// them onto 404 pages or form errors.
var (
	ErrNotFound      = errors.New("storefront: record not found")
	ErrAlreadyExists = errors.New("storefront: email already registered")
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("storefront: invalid email or password")

// ErrIdempotencyConflict means the checkout key was already consumed.
var ErrIdempotencyConflict = errors.New("storefront: checkout already submitted")

var (
	ErrCSRFTokenMissing  = errors.New("csrf: token missing")
	ErrCSRFTokenMismatch = errors.New("csrf: token mismatch")
)
