package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMissingCredential means the request carried no usable Authorization header.
var ErrMissingCredential = errors.New("missing credential")

const bearerPrefix = "Bearer "

// FromHeader extracts the opaque bearer credential from a request header map.
// The remainder after the "Bearer " prefix is returned untouched; expiry and
// validity are the token verifier's problem, not ours.
func FromHeader(h http.Header) (string, error) {
	v := h.Get("Authorization")

	if !strings.HasPrefix(v, bearerPrefix) {
		return "", ErrMissingCredential
	}

	return v[len(bearerPrefix):], nil
}
