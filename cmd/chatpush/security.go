package main

import (
	"crypto/subtle"
	"net/http"

	"chatpush/internal/constants"

	"golang.org/x/crypto/blake2b"
)

// verifyAdminSecret reports whether the request carries the configured admin
// secret. Both sides are hashed first so the comparison takes the same time
// whatever their lengths. An unset secret matches nothing.
func verifyAdminSecret(r *http.Request, secret string) bool {
	if secret == "" {
		return false
	}

	provided := r.Header.Get(constants.AdminSecretHeader)
	if provided == "" {
		return false
	}

	want := blake2b.Sum256([]byte(secret))
	got := blake2b.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}
