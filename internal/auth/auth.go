// Package auth resolves the caller of an HTTP request to a users.User and
// stores it in the request context.
package auth

import (
	"errors"
	"net/http"
)

var (
	ErrNoSession          = errors.New("no valid session found")
	ErrInvalidCredentials = errors.New("email and password are required")
)

// AuthClient authenticates requests. WithAuthHTTP never rejects a request;
// it only attaches the user when there is a valid session. Handlers decide
// whether anonymous callers are allowed.
type AuthClient interface {
	Register(mux *http.ServeMux)
	WithAuthHTTP(handler http.Handler) http.Handler
}
