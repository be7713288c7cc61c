package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/view"
)

// page collects the surroundings every view needs. Reading it consumes the
// pending flash message.
func page(w http.ResponseWriter, r *http.Request) view.Page {
	return view.Page{
		Actor: ActorFromContext(r.Context()),
		Flash: popFlash(w, r),
		Year:  time.Now().Year(),
	}
}

// inputMessage strips the sentinel prefix from a validation error so the
// form shows only the human part.
func inputMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrInvalidInput.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrInvalidInput.Error())+2:]
	}
	return msg
}

// renderError answers an HTML request whose operation failed. Callers handle
// the errors that re-render a form before falling through to this.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		setFlash(w, msgLoginRequired)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, domain.ErrNotAdmin):
		setFlash(w, msgAdminRequired)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, domain.ErrNotFound):
		renderErrorPage(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
	case errors.Is(err, domain.ErrDuplicateTitle):
		renderErrorPage(w, r, http.StatusConflict, "That movie is already in your list.")
	case errors.Is(err, domain.ErrProviderUnavailable):
		slog.Warn("metadata provider failed", "error", err)
		renderErrorPage(w, r, http.StatusBadGateway, "The movie database is unavailable. Please try again later.")
	case errors.Is(err, domain.ErrInvalidInput):
		renderErrorPage(w, r, http.StatusUnprocessableEntity, inputMessage(err))
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		renderErrorPage(w, r, http.StatusInternalServerError, "Something went wrong.")
	}
}

func renderErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	p := page(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	view.ErrorPage(p, status, message).Render(r.Context(), w)
}

// renderStatus writes a full page with a non-200 status, as form re-renders do.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	c.Render(r.Context(), w)
}

// statusFor maps a domain error to the JSON API status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateTitle), errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
