package auth

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthenticator checks HTTP Basic credentials against bcrypt
// password hashes.
type BasicAuthenticator struct {
	hashes map[string][]byte
}

// NewBasicAuthenticator parses "shopper:bcrypt-hash" entries separated
// by commas.
func NewBasicAuthenticator(
	users string,
) (*BasicAuthenticator, error) {
	pairs, err := parsePairs(users, "basic", "user:hash")
	if err != nil {
		return nil, err
	}

	hashes := make(map[string][]byte, len(pairs))
	for user, hash := range pairs {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf(
				"basic auth: user %q: %w",
				user, err,
			)
		}
		hashes[user] = []byte(hash)
	}

	return &BasicAuthenticator{hashes: hashes}, nil
}

// Authenticate verifies the request's Basic credentials.
func (a *BasicAuthenticator) Authenticate(
	r *http.Request,
) (*Identity, error) {
	user, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	hash, known := a.hashes[user]
	if !known {
		return nil, fmt.Errorf(
			"%w: unknown user",
			ErrInvalidCredentials,
		)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, fmt.Errorf(
			"%w: wrong password",
			ErrInvalidCredentials,
		)
	}

	return &Identity{Method: MethodBasic, Subject: user}, nil
}

// Method returns MethodBasic.
func (a *BasicAuthenticator) Method() Method {
	return MethodBasic
}
