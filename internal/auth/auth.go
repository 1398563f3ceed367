// Package auth identifies the shopper or client behind a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Method names how a request was authenticated.
type Method string

// Supported authentication methods.
const (
	MethodNone   Method = "none"
	MethodBasic  Method = "basic"
	MethodAPIKey Method = "apikey"
	MethodMulti  Method = "multi"
)

// Identity is the authenticated caller. Subject is recorded as the
// creator of new shopping lists.
type Identity struct {
	Method  Method
	Subject string
}

// Authenticator checks the credentials carried by a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
	Method() Method
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type identityKey struct{}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Anonymous lets every request through without a subject.
type Anonymous struct{}

// Authenticate always succeeds.
func (Anonymous) Authenticate(_ *http.Request) (*Identity, error) {
	return &Identity{Method: MethodNone}, nil
}

// Method returns MethodNone.
func (Anonymous) Method() Method {
	return MethodNone
}

// parsePairs splits "left:right,left:right" credential lists. Only the
// first colon of an entry separates the two halves.
func parsePairs(
	config, kind, format string,
) (map[string]string, error) {
	trimmed := strings.TrimSpace(config)
	if trimmed == "" {
		return nil, fmt.Errorf(
			"%s auth: config must not be empty",
			kind,
		)
	}

	pairs := make(map[string]string)
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		left, right, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf(
				"%s auth: invalid entry, expected %s",
				kind, format,
			)
		}

		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)
		if left == "" || right == "" {
			return nil, fmt.Errorf(
				"%s auth: both halves of %s must be set",
				kind, format,
			)
		}

		pairs[left] = right
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf(
			"%s auth: no valid entries found",
			kind,
		)
	}

	return pairs, nil
}
