package handler

import (
	"encoding/base64"
	"net/http"
)

const flashCookieName = "flash"

// Messages shown after a redirect.
const (
	msgDuplicateEmail = "This email address is already registered."
	msgNoSuchEmail    = "Email address doesn't exist!"
	msgBadPassword    = "Wrong password!"
	msgLoginToComment = "You need to login to comment."
	msgLoginRequired  = "Please log in to continue."
	msgAdminRequired  = "You need to be an admin to access this page."
)

// setFlash stores a one-shot message for the next page render.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// popFlash returns the pending message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	msg, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(msg)
}
