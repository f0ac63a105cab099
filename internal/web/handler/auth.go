package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/services/auth"
	"github.com/mcoot/trivia-pot/internal/web/middleware"
	"github.com/mcoot/trivia-pot/internal/web/templates"
)

// AuthHandler handles admin login and logout
type AuthHandler struct {
	pages
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		pages:       pages{logger: logger},
		authService: authService,
	}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetAdmin(r.Context()) != nil {
		// Already logged in
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, templates.Login(templates.LoginData{
		PageData: pageData(r, "Admin login"),
		Next:     r.URL.Query().Get("next"),
	}))
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, http.StatusBadRequest, "Invalid form data", "", "")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	session, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.As(err, &verr):
			h.renderLoginError(w, r, http.StatusUnauthorized, "Invalid username or password.", username, next)
		case errors.Is(err, model.ErrStoreUnavailable):
			h.renderLoginError(w, r, http.StatusServiceUnavailable, retryLaterMessage, username, next)
		default:
			h.renderError(w, r, err)
		}
		return
	}

	h.setSessionCookie(w, session)
	middleware.SetFlash(w, "success", "Logged in successfully.")

	// Redirect to original destination or the dashboard
	if next != "" && strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		http.Redirect(w, r, next, http.StatusSeeOther)
	} else {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	}
}

// Logout ends the admin session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.authService.Logout(cookie.Value)
	}

	// Clear session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.SetFlash(w, "success", "Logged out successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(session.ExpiresAt.Sub(session.CreatedAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, status int, errorMsg, username, next string) {
	h.render(w, r, status, templates.Login(templates.LoginData{
		PageData: pageData(r, "Admin login"),
		Username: username,
		Next:     next,
		Error:    errorMsg,
	}))
}
