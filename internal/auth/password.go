// Package auth provides password hashing, JWT issuance/verification and the
// HTTP middleware that guards authenticated routes.
//
// AUTHENTICATION FLOW:
//  1. POST /register hashes the password with bcrypt, stores the user, and
//     issues a JWT bound to the email.
//  2. POST /login verifies the password against the stored hash and issues
//     a fresh JWT.
//  3. On protected routes, RequireAuth reads `Authorization: Bearer <jwt>`,
//     validates the signature and expiry, and re-resolves the user record
//     by the embedded email. Tokens are not self-sufficient — deleting a
//     user invalidates all of their outstanding tokens on next use.
//
// There is no server-side revocation: logout is the client discarding its
// copy, and a discarded token stays technically valid until natural expiry.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 lands around 250ms per
// hash on current server hardware — slow enough to hurt brute force, fast
// enough not to hurt login.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests —
// the minimum cost (4) makes tests run orders of magnitude faster.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Intended for tests; do not use low costs in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The output embeds
// the salt and cost, so it can be stored as-is and later verified with
// Verify alone.
//
// Returns an error if the plaintext exceeds 72 bytes — bcrypt would
// silently truncate it, so we reject instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. The comparison is constant-time inside bcrypt, so
// response timing leaks nothing about how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
