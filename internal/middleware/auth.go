package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
	"github.com/vyrodovalexey/shoplist-api/internal/model"
)

// Auth authenticates every request except probes and CORS preflights, and
// stores the identity in the request context. Change feed upgrades carry
// credentials in their handshake headers like any other request.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAuth(r) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				writeUnauthorized(w, err)
				return
			}

			logger.Debug("authenticated",
				zap.String("subject", id.Subject),
				zap.String("auth_method", string(id.Method)),
			)

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func skipAuth(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	if probePaths[r.URL.Path] {
		return true
	}
	for p := range probePaths {
		if strings.HasPrefix(r.URL.Path, p+"/") {
			return true
		}
	}
	return false
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="shoplist"`)
	case errors.Is(err, auth.ErrInvalidAPIKey):
		w.Header().Set("WWW-Authenticate", "API-Key")
	default:
		w.Header().Set("WWW-Authenticate", `Basic realm="shoplist", API-Key`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: err.Error(),
	})
}
