package auth

import "errors"

var (
	// ErrNoToken means the request carried no credential at all.
	ErrNoToken = errors.New("auth: no credential presented")

	// ErrInvalidToken indicates a token failed signature, shape, kind or
	// expiry validation.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrSessionExpired means the access token was unusable and the refresh
	// token could not recover the session. The transport must clear both
	// session cookies when surfacing this error.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrInvalidCredentials covers failed email/password login attempts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUserNotFound means the token subject no longer resolves to a user.
	// Surfaced as a generic auth failure to avoid leaking account existence.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrAccountSuspended means the user exists but is suspended or deleted.
	ErrAccountSuspended = errors.New("auth: account suspended")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("auth: not found")

	// ErrEmailTaken means a registration collided with an existing account.
	ErrEmailTaken = errors.New("auth: email already registered")

	// ErrInvalidInput covers malformed registration or status input.
	ErrInvalidInput = errors.New("auth: invalid input")
)
