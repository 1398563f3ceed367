package auth_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
)

func generateBcryptHash(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate bcrypt hash: %v", err)
	}

	return string(hash)
}

func TestNewBasicAuthenticator(t *testing.T) {
	t.Parallel()

	hash := generateBcryptHash(t, "secret")

	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{name: "single user", config: "ana:" + hash},
		{name: "two users with spaces", config: " ana:" + hash + " , bo:" + hash + " "},
		{name: "trailing comma", config: "ana:" + hash + ","},
		{name: "empty config", config: "", wantErr: true},
		{name: "whitespace config", config: "   ", wantErr: true},
		{name: "missing colon", config: "anahash", wantErr: true},
		{name: "empty user", config: ":" + hash, wantErr: true},
		{name: "empty hash", config: "ana:", wantErr: true},
		{name: "not a bcrypt hash", config: "ana:plaintext", wantErr: true},
		{name: "only commas", config: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			a, err := auth.NewBasicAuthenticator(tt.config)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBasicAuthenticator() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && a == nil {
				t.Error("NewBasicAuthenticator() returned nil")
			}
		})
	}
}

func TestBasicAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	a, err := auth.NewBasicAuthenticator("ana:" + generateBcryptHash(t, "secret"))
	if err != nil {
		t.Fatalf("NewBasicAuthenticator() error = %v", err)
	}

	tests := []struct {
		name        string
		setAuth     bool
		user        string
		password    string
		wantErr     error
		wantSubject string
	}{
		{name: "valid credentials", setAuth: true, user: "ana", password: "secret", wantSubject: "ana"},
		{name: "no credentials", wantErr: auth.ErrUnauthenticated},
		{name: "unknown user", setAuth: true, user: "bo", password: "secret", wantErr: auth.ErrInvalidCredentials},
		{name: "wrong password", setAuth: true, user: "ana", password: "nope", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest("GET", "/api/v1/lists", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}

			// Act
			id, err := a.Authenticate(req)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if id.Subject != tt.wantSubject || id.Method != auth.MethodBasic {
				t.Errorf("Authenticate() = %+v", id)
			}
		})
	}
}

func TestBasicAuthenticator_Method(t *testing.T) {
	t.Parallel()

	a, err := auth.NewBasicAuthenticator("ana:" + generateBcryptHash(t, "x"))
	if err != nil {
		t.Fatalf("NewBasicAuthenticator() error = %v", err)
	}

	if a.Method() != auth.MethodBasic {
		t.Errorf("Method() = %s, want %s", a.Method(), auth.MethodBasic)
	}
}
