package middleware

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/logging"
)

// TokenVerifier resolves an access token to a user id.
type TokenVerifier interface {
	Authenticate(accessToken string) (string, error)
}

// Authenticate attaches the caller's identity when the request carries a
// bearer token. Requests without one pass through anonymously; an invalid
// token is rejected.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.Authenticate(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rejected access token", "error", err)
				writeError(w, http.StatusUnauthorized, "Unauthenticated", "invalid or expired access token")
				return
			}

			ctx := auth.WithUserID(r.Context(), userID)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not authenticate.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserIDFromContext(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "Unauthenticated", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{StatusCode: status, Kind: kind, Message: message})
}
