package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/service"
	"github.com/msomdec/marquee/internal/view"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// HandleRegisterPage renders the registration form.
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	view.RegisterPage(page(w, r), view.AccountForm{}).Render(r.Context(), w)
}

// HandleRegister creates a reader account and logs it in straight away.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderStatus(w, r, http.StatusBadRequest, view.RegisterPage(page(w, r), view.AccountForm{Error: "Invalid form data."}))
		return
	}

	form := view.AccountForm{Name: r.FormValue("name"), Email: r.FormValue("email")}
	user, err := h.auth.Register(r.Context(), form.Email, r.FormValue("password"), form.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			setFlash(w, msgDuplicateEmail)
			http.Redirect(w, r, "/register", http.StatusSeeOther)
		case errors.Is(err, domain.ErrInvalidInput):
			form.Error = inputMessage(err)
			renderStatus(w, r, http.StatusUnprocessableEntity, view.RegisterPage(page(w, r), form))
		default:
			renderError(w, r, err)
		}
		return
	}

	token, err := h.auth.StartSession(r.Context(), user)
	if err != nil {
		renderError(w, r, err)
		return
	}
	slog.Info("user registered", "user_id", user.ID)
	setAuthCookie(w, token, h.auth.SessionTTL(), h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLoginPage renders the login form.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	view.LoginPage(page(w, r), view.AccountForm{}).Render(r.Context(), w)
}

// HandleLogin checks credentials and sets the auth_token cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderStatus(w, r, http.StatusBadRequest, view.LoginPage(page(w, r), view.AccountForm{Error: "Invalid form data."}))
		return
	}

	token, _, err := h.auth.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSuchEmail):
			setFlash(w, msgNoSuchEmail)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		case errors.Is(err, domain.ErrBadPassword):
			setFlash(w, msgBadPassword)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			renderError(w, r, err)
		}
		return
	}

	setAuthCookie(w, token, h.auth.SessionTTL(), h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout ends the session and clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("logout", "error", err)
		}
	}
	clearAuthCookie(w, h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
