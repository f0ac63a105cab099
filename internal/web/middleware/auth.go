package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mcoot/trivia-pot/internal/services/auth"
)

type contextKey string

const (
	adminContextKey contextKey = "admin"

	// SessionCookieName is the cookie holding the admin session token
	SessionCookieName = "session"
)

// GetAdmin retrieves the admin session from the request context
// Returns nil if no admin is logged in
func GetAdmin(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(adminContextKey).(*auth.Session)
	return session
}

// RequireAdmin returns middleware that requires an admin session
// Redirects to the login page if not authenticated
func RequireAdmin(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSession(r, authService)
			if session == nil {
				SetFlash(w, "error", "Please log in to access this page.")
				// Store original URL to redirect back after login
				redirectURL := "/admin/login?next=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, redirectURL, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAdmin returns middleware that attempts authentication but doesn't require it
// Sets the session in context if authenticated, nil otherwise
func OptionalAdmin(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSession(r, authService)
			ctx := context.WithValue(r.Context(), adminContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSession(r *http.Request, authService *auth.Service) *auth.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil
	}

	session, err := authService.ValidateSession(cookie.Value)
	if err != nil {
		return nil
	}

	return session
}
