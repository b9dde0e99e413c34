package handlers

import (
	"context"
	"net/http"

	"github.com/jmorrell/taskdeck/database"
	"github.com/jmorrell/taskdeck/services"
)

type contextKey string

const userContextKey contextKey = "user"

// SessionMiddleware resolves the session cookie to a user and guards
// routes that require an authenticated session.
type SessionMiddleware struct {
	authService *services.AuthService
	cookieName  string
}

func NewSessionMiddleware(authService *services.AuthService, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{
		authService: authService,
		cookieName:  cookieName,
	}
}

// RequireAuth rejects requests without a live session and stashes the
// safe user projection in the request context for downstream handlers.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not logged in")
			return
		}

		user, err := m.authService.CurrentUser(r.Context(), cookie.Value)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not logged in")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user placed by RequireAuth.
func UserFromContext(ctx context.Context) (database.SafeUser, bool) {
	user, ok := ctx.Value(userContextKey).(database.SafeUser)
	return user, ok
}
