package application

import "errors"

// Error taxonomy. Handlers map these onto status codes; every
// authentication failure renders the same 401 body and every ownership
// failure renders the same 404 body, so none of the distinctions below
// ever reach a client.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpired            = errors.New("credential expired")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrServiceUnavailable = errors.New("auth service unavailable")
)
