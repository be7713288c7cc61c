package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/msomdec/marquee/internal/service"
)

// APIHandler serves a read-only JSON view of posts and the catalog.
type APIHandler struct {
	posts   *service.PostService
	catalog *service.CatalogService
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(posts *service.PostService, catalog *service.CatalogService) *APIHandler {
	return &APIHandler{posts: posts, catalog: catalog}
}

// Routes mounts the API under its own router so CORS applies only there.
func (h *APIHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Get("/posts", h.HandleListPosts)
	r.Get("/posts/{id}", h.HandleGetPost)
	r.Get("/posts/{id}/comments", h.HandleListComments)
	r.Get("/movies", h.HandleListMovies)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

func (h *APIHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostDTOs(posts))
}

func (h *APIHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostDTO(post))
}

func (h *APIHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if _, err := h.posts.Get(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	comments, err := h.posts.ListComments(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentDTOs(comments))
}

func (h *APIHandler) HandleListMovies(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovieDTOs(entries))
}

// writeDomainError maps err to a status and a message that does not leak
// internals for server-side failures.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("api request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, http.StatusText(status))
}
