package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/service"
	"github.com/msomdec/marquee/internal/view"
)

// CatalogHandler serves the movie ranking and its search, select and
// finalize steps.
type CatalogHandler struct {
	catalog *service.CatalogService
	posters *service.PosterService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, posters *service.PosterService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, posters: posters}
}

// HandleList renders the ranking.
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.List(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	view.MoviesPage(page(w, r), entries).Render(r.Context(), w)
}

// HandleAddPage renders the search form.
func (h *CatalogHandler) HandleAddPage(w http.ResponseWriter, r *http.Request) {
	view.AddPage(page(w, r), "", nil, "").Render(r.Context(), w)
}

// HandleSearch runs the search step for a posted title and renders the
// candidates to pick from.
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderStatus(w, r, http.StatusBadRequest, view.AddPage(page(w, r), "", nil, "Invalid form data."))
		return
	}
	query := r.FormValue("title")

	candidates, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			renderStatus(w, r, http.StatusUnprocessableEntity, view.AddPage(page(w, r), query, nil, inputMessage(err)))
			return
		}
		renderError(w, r, err)
		return
	}
	msg := ""
	if len(candidates) == 0 {
		msg = "No movies matched that title."
	}
	view.AddPage(page(w, r), query, candidates, msg).Render(r.Context(), w)
}

type searchSignals struct {
	Query string `json:"query"`
}

// HandleLiveSearch patches the candidate list as the user types.
func (h *CatalogHandler) HandleLiveSearch(w http.ResponseWriter, r *http.Request) {
	var signals searchSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var (
		candidates []domain.Candidate
		msg        string
	)
	if strings.TrimSpace(signals.Query) != "" {
		var err error
		candidates, err = h.catalog.Search(r.Context(), signals.Query)
		switch {
		case err != nil:
			slog.Warn("live search", "query", signals.Query, "error", err)
			msg = "The movie database is unavailable. Please try again later."
		case len(candidates) == 0:
			msg = "No movies matched that title."
		}
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(
		view.CandidateList(candidates, msg),
		datastar.WithSelectorID("candidates"),
		datastar.WithModeInner(),
	)
}

// HandleMaterialize stores the chosen candidate as a provisional entry and
// moves on to the finalize form.
func (h *CatalogHandler) HandleMaterialize(w http.ResponseWriter, r *http.Request) {
	externalID, err := strconv.ParseInt(chi.URLParam(r, "externalId"), 10, 64)
	if err != nil {
		renderError(w, r, domain.ErrNotFound)
		return
	}

	entry, err := h.catalog.Materialize(r.Context(), externalID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	slog.Info("catalog entry added", "entry_id", entry.ID, "external_id", externalID)
	http.Redirect(w, r, fmt.Sprintf("/update/id=%d", entry.ID), http.StatusSeeOther)
}

// HandleRatingPage renders the finalize form.
func (h *CatalogHandler) HandleRatingPage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	entry, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	view.UpdatePage(page(w, r), entry, view.RatingFormFor(entry)).Render(r.Context(), w)
}

// HandleFinalize attaches rating, rank and review to an entry.
func (h *CatalogHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	entry, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderStatus(w, r, http.StatusBadRequest, view.UpdatePage(page(w, r), entry, view.RatingForm{Error: "Invalid form data."}))
		return
	}

	form := view.RatingForm{
		Rating: strings.TrimSpace(r.FormValue("rating")),
		Rank:   strings.TrimSpace(r.FormValue("ranking")),
		Review: r.FormValue("review"),
	}
	rating, err := parseRating(form)
	if err == nil {
		_, err = h.catalog.Finalize(r.Context(), id, rating)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			form.Error = inputMessage(err)
			renderStatus(w, r, http.StatusUnprocessableEntity, view.UpdatePage(page(w, r), entry, form))
			return
		}
		renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/movies", http.StatusSeeOther)
}

func parseRating(form view.RatingForm) (domain.Rating, error) {
	rating, err := strconv.ParseFloat(form.Rating, 64)
	if err != nil {
		return domain.Rating{}, fmt.Errorf("%w: rating must be a number", domain.ErrInvalidInput)
	}
	rank, err := strconv.Atoi(form.Rank)
	if err != nil {
		return domain.Rating{}, fmt.Errorf("%w: ranking must be a whole number", domain.ErrInvalidInput)
	}
	return domain.Rating{Rating: rating, Rank: rank, Review: form.Review}, nil
}

// HandleDelete removes an entry and its mirrored poster.
func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	if err := h.posters.Forget(r.Context(), id); err != nil {
		slog.Warn("forget poster", "entry_id", id, "error", err)
	}
	http.Redirect(w, r, "/movies", http.StatusSeeOther)
}

// HandlePoster serves an entry's poster from the local mirror.
func (h *CatalogHandler) HandlePoster(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	blob, err := h.posters.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, domain.ErrProviderUnavailable):
			slog.Warn("fetch poster", "entry_id", id, "error", err)
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		default:
			slog.Error("get poster", "entry_id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(blob.Data)
}
