package chi

import (
	"net/http"
	"strings"

	"github.com/marcelsud/bookshelf-api/internal/auth"
	"github.com/marcelsud/bookshelf-api/internal/user"
)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// authenticate puts the token's user in the request context or answers 401
func authenticate(authn auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := authn.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), u)))
		})
	}
}
