package middleware

import (
	"context"
	"net/http"

	"shotlog/internal/models"
)

const (
	// UserCookieName holds the alias chosen at login
	UserCookieName = "shotlog_user"
	// UserHeaderName lets API clients pass the alias without a cookie
	UserHeaderName = "X-Shotlog-User"
)

type contextKey string

const userKey contextKey = "user"

// ContextWithUser returns a copy of ctx carrying the alias.
func ContextWithUser(ctx context.Context, alias string) context.Context {
	return context.WithValue(ctx, userKey, alias)
}

// UserFromContext returns the alias stored by UserMiddleware.
func UserFromContext(ctx context.Context) (string, bool) {
	alias, ok := ctx.Value(userKey).(string)
	return alias, ok && alias != ""
}

// UserMiddleware resolves the alias from the header or the cookie. Invalid
// aliases are ignored; the request continues anonymously.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserHeaderName)
		if raw == "" {
			if c, err := r.Cookie(UserCookieName); err == nil {
				raw = c.Value
			}
		}
		if raw != "" {
			if alias, err := models.NormalizeAlias(raw); err == nil {
				r = r.WithContext(ContextWithUser(r.Context(), alias))
				SetLogUser(r, alias)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser answers 401 unless UserMiddleware found an alias.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Error(w, "Login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
