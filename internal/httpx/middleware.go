package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/chaitanyaponnada/projecthub/internal/users"
)

type ctxKey int

const sessionKey ctxKey = iota

// SessionFrom returns the authenticated session attached by Auth.
func SessionFrom(ctx context.Context) (users.Session, bool) {
	s, ok := ctx.Value(sessionKey).(users.Session)
	return s, ok
}

type Auth struct {
	Users *users.Service
}

// Require rejects requests without a resolvable bearer token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		sess, err := a.Users.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

// RequireAdmin stacks on Require and gates on the admin flag.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r.Context())
		if !sess.IsAdmin {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
