package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
)

type stubAuthenticator struct {
	id  *auth.Identity
	err error
}

func (s stubAuthenticator) Authenticate(_ *http.Request) (*auth.Identity, error) {
	return s.id, s.err
}

func (s stubAuthenticator) Method() auth.Method {
	return auth.MethodNone
}

func TestMultiAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	ana := &auth.Identity{Method: auth.MethodBasic, Subject: "ana"}
	app := &auth.Identity{Method: auth.MethodAPIKey, Subject: "android"}
	none := stubAuthenticator{err: auth.ErrUnauthenticated}

	tests := []struct {
		name    string
		chain   []auth.Authenticator
		want    *auth.Identity
		wantErr error
	}{
		{name: "empty chain", wantErr: auth.ErrUnauthenticated},
		{name: "first succeeds", chain: []auth.Authenticator{stubAuthenticator{id: ana}, stubAuthenticator{id: app}}, want: ana},
		{name: "falls through to second", chain: []auth.Authenticator{none, stubAuthenticator{id: app}}, want: app},
		{name: "nobody has credentials", chain: []auth.Authenticator{none, none}, wantErr: auth.ErrUnauthenticated},
		{
			name:    "bad credentials stop the chain",
			chain:   []auth.Authenticator{stubAuthenticator{err: auth.ErrInvalidAPIKey}, stubAuthenticator{id: ana}},
			wantErr: auth.ErrInvalidAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			m := auth.NewMultiAuthenticator(tt.chain...)

			// Act
			got, err := m.Authenticate(httptest.NewRequest("GET", "/", nil))

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Authenticate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMultiAuthenticator_Method(t *testing.T) {
	t.Parallel()

	if m := auth.NewMultiAuthenticator(); m.Method() != auth.MethodMulti {
		t.Errorf("Method() = %s, want %s", m.Method(), auth.MethodMulti)
	}
}
