package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/service"
	"github.com/msomdec/marquee/internal/view"
)

// PostHandler serves the blog pages.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// idParam reads a positive integer route parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// HandleIndex lists all posts.
func (h *PostHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	view.IndexPage(page(w, r), posts).Render(r.Context(), w)
}

// HandleShow renders a post with its comments.
func (h *PostHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	h.renderPost(w, r, id, http.StatusOK, "")
}

func (h *PostHandler) renderPost(w http.ResponseWriter, r *http.Request, id int64, status int, commentErr string) {
	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	comments, err := h.posts.ListComments(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderStatus(w, r, status, view.PostPage(page(w, r), post, comments, commentErr))
}

// HandleComment adds the actor's comment. Anonymous visitors are sent to
// the login page and nothing is stored.
func (h *PostHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderPost(w, r, id, http.StatusBadRequest, "Invalid form data.")
		return
	}

	_, err = h.posts.AddComment(r.Context(), ActorFromContext(r.Context()), id, r.FormValue("comment_text"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthenticated):
			setFlash(w, msgLoginToComment)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		case errors.Is(err, domain.ErrInvalidInput):
			h.renderPost(w, r, id, http.StatusUnprocessableEntity, inputMessage(err))
		default:
			renderError(w, r, err)
		}
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/post/%d#comments", id), http.StatusSeeOther)
}

// HandleNewPage renders an empty post form.
func (h *PostHandler) HandleNewPage(w http.ResponseWriter, r *http.Request) {
	view.PostFormPage(page(w, r), view.PostForm{}).Render(r.Context(), w)
}

// HandleCreate publishes a new post.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseForm(w, r, 0)
	if !ok {
		return
	}
	_, err := h.posts.Create(r.Context(), ActorFromContext(r.Context()), toPostInput(form))
	if err != nil {
		h.formError(w, r, form, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleEditPage renders the post form filled with the current values.
func (h *PostHandler) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	view.PostFormPage(page(w, r), view.PostForm{
		ID:       post.ID,
		Title:    post.Title,
		Subtitle: post.Subtitle,
		ImageURL: post.ImageURL,
		Body:     post.Body,
	}).Render(r.Context(), w)
}

// HandleUpdate overwrites a post's editable fields.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	form, ok := h.parseForm(w, r, id)
	if !ok {
		return
	}
	if _, err := h.posts.Update(r.Context(), ActorFromContext(r.Context()), id, toPostInput(form)); err != nil {
		h.formError(w, r, form, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/post/%d", id), http.StatusSeeOther)
}

// HandleDelete removes a post and its comments.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := h.posts.Delete(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PostHandler) parseForm(w http.ResponseWriter, r *http.Request, id int64) (view.PostForm, bool) {
	form := view.PostForm{ID: id}
	if err := r.ParseForm(); err != nil {
		form.Error = "Invalid form data."
		renderStatus(w, r, http.StatusBadRequest, view.PostFormPage(page(w, r), form))
		return form, false
	}
	form.Title = r.FormValue("title")
	form.Subtitle = r.FormValue("subtitle")
	form.ImageURL = r.FormValue("img_url")
	form.Body = r.FormValue("body")
	return form, true
}

func (h *PostHandler) formError(w http.ResponseWriter, r *http.Request, form view.PostForm, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateTitle):
		form.Error = "A post with that title already exists."
		renderStatus(w, r, http.StatusConflict, view.PostFormPage(page(w, r), form))
	case errors.Is(err, domain.ErrInvalidInput):
		form.Error = inputMessage(err)
		renderStatus(w, r, http.StatusUnprocessableEntity, view.PostFormPage(page(w, r), form))
	default:
		renderError(w, r, err)
	}
}

func toPostInput(form view.PostForm) service.PostInput {
	return service.PostInput{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Body:     form.Body,
		ImageURL: form.ImageURL,
	}
}
