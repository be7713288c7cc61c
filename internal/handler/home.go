package handler

import (
	"net/http"

	"github.com/msomdec/marquee/internal/view"
)

// HandleAbout renders the about page.
func HandleAbout(w http.ResponseWriter, r *http.Request) {
	view.AboutPage(page(w, r)).Render(r.Context(), w)
}

// HandleContact renders the contact page.
func HandleContact(w http.ResponseWriter, r *http.Request) {
	view.ContactPage(page(w, r)).Render(r.Context(), w)
}

// HandleNotFound renders the 404 page for unknown routes.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	renderErrorPage(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
}
