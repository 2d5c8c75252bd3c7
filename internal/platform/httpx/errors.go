// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped onto HTTP status codes.
var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
)

// StatusFor maps an error onto the status code reported to the client.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
