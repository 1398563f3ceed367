package auth

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the client key.
const APIKeyHeader = "X-API-Key"

type apiKey struct {
	key    []byte
	client string
}

// APIKeyAuthenticator identifies client apps by a static key.
type APIKeyAuthenticator struct {
	keys []apiKey
}

// NewAPIKeyAuthenticator parses "key:client" entries separated by commas.
func NewAPIKeyAuthenticator(
	keys string,
) (*APIKeyAuthenticator, error) {
	pairs, err := parsePairs(keys, "apikey", "key:client")
	if err != nil {
		return nil, err
	}

	a := &APIKeyAuthenticator{keys: make([]apiKey, 0, len(pairs))}
	for key, client := range pairs {
		a.keys = append(a.keys, apiKey{key: []byte(key), client: client})
	}

	return a, nil
}

// Authenticate matches the X-API-Key header. Every configured key is
// compared in constant time.
func (a *APIKeyAuthenticator) Authenticate(
	r *http.Request,
) (*Identity, error) {
	presented := r.Header.Get(APIKeyHeader)
	if presented == "" {
		return nil, ErrUnauthenticated
	}

	var client string
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare([]byte(presented), k.key) == 1 {
			client = k.client
		}
	}

	if client == "" {
		return nil, ErrInvalidAPIKey
	}

	return &Identity{Method: MethodAPIKey, Subject: client}, nil
}

// Method returns MethodAPIKey.
func (a *APIKeyAuthenticator) Method() Method {
	return MethodAPIKey
}
