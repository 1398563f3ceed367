package auth

import (
	"errors"
	"net/http"
)

// MultiAuthenticator accepts any of several methods. A method that finds
// no credentials defers to the next one; a method that finds bad
// credentials ends the attempt.
type MultiAuthenticator struct {
	chain []Authenticator
}

// NewMultiAuthenticator tries authenticators in the given order.
func NewMultiAuthenticator(
	chain ...Authenticator,
) *MultiAuthenticator {
	return &MultiAuthenticator{chain: chain}
}

// Authenticate returns the first identity established by the chain.
func (a *MultiAuthenticator) Authenticate(
	r *http.Request,
) (*Identity, error) {
	for _, next := range a.chain {
		id, err := next.Authenticate(r)
		switch {
		case err == nil:
			return id, nil
		case !errors.Is(err, ErrUnauthenticated):
			return nil, err
		}
	}

	return nil, ErrUnauthenticated
}

// Method returns MethodMulti.
func (a *MultiAuthenticator) Method() Method {
	return MethodMulti
}
