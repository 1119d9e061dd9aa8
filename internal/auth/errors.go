package auth

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingToken       = errors.New("missing token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInternal           = errors.New("internal error")
	ErrMethodNotSupported = errors.New("authentication method not supported")
)

// HTTPStatus maps an error from this package to a status code and a message that
// is safe to show to clients. Unknown errors are treated as internal.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return http.StatusBadRequest, "invalid email"
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest, "user already exists"
	case errors.Is(err, ErrMethodNotSupported):
		return http.StatusBadRequest, "authentication method not supported"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized, "missing token"
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
