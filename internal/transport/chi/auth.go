package chi

import (
	"net/http"
	"strings"

	"github.com/gravyprompts/gravyd/internal/config"
	"github.com/gravyprompts/gravyd/internal/domain"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware resolves the Bearer token to a caller identity and
// stores it in the request context. Requests without an Authorization
// header pass through as the anonymous caller; a present but invalid
// credential is rejected.
func BearerAuthMiddleware(keys []config.APIKey) func(http.Handler) http.Handler {
	identities := make(map[string]domain.Identity, len(keys))
	for _, k := range keys {
		if k.Key == "" {
			continue
		}
		identities[k.Key] = domain.Identity{
			UserID: k.UserID,
			Email:  k.Email,
			Admin:  k.Admin,
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					codeUnauthenticated, "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			ident, ok := identities[token]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, "invalid api key")
				return
			}

			ctx := domain.ContextWithIdentity(r.Context(), ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
