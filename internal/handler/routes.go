package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/msomdec/marquee/internal/service"
)

// Services is what the routes need from the rest of the application.
type Services struct {
	Auth    *service.AuthService
	Posts   *service.PostService
	Catalog *service.CatalogService
	Posters *service.PosterService

	// Ping backs /healthz; nil skips the database check.
	Ping         func(ctx context.Context) error
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given router.
func RegisterRoutes(r chi.Router, s Services) {
	authHandler := NewAuthHandler(s.Auth, s.CookieSecure)
	postHandler := NewPostHandler(s.Posts)
	catalogHandler := NewCatalogHandler(s.Catalog, s.Posters)
	apiHandler := NewAPIHandler(s.Posts, s.Catalog)
	healthHandler := NewHealthHandler(s.Ping)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	r.Get("/healthz", healthHandler.HandleHealthz)
	r.Mount("/api", apiHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(LoadActor(s.Auth, s.CookieSecure))
		r.NotFound(HandleNotFound)

		r.Get("/", postHandler.HandleIndex)
		r.Get("/about", HandleAbout)
		r.Get("/contact", HandleContact)
		r.Get("/post/{id}", postHandler.HandleShow)
		r.Post("/post/{id}", postHandler.HandleComment)

		r.Group(func(r chi.Router) {
			r.Use(RequireAnonymous)
			r.Get("/register", authHandler.HandleRegisterPage)
			r.Post("/register", authHandler.HandleRegister)
			r.Get("/login", authHandler.HandleLoginPage)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.With(RequireAuth).Get("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/new-post", postHandler.HandleNewPage)
			r.Post("/new-post", postHandler.HandleCreate)
			r.Get("/edit-post/{id}", postHandler.HandleEditPage)
			r.Post("/edit-post/{id}", postHandler.HandleUpdate)
			r.Get("/delete/{id}", postHandler.HandleDelete)
		})

		// The catalog is open to every visitor.
		r.Get("/movies", catalogHandler.HandleList)
		r.Get("/add", catalogHandler.HandleAddPage)
		r.Post("/add", catalogHandler.HandleSearch)
		r.Get("/add/search", catalogHandler.HandleLiveSearch)
		r.Get("/new/id={externalId}", catalogHandler.HandleMaterialize)
		r.Get("/update/id={id}", catalogHandler.HandleRatingPage)
		r.Post("/update/id={id}", catalogHandler.HandleFinalize)
		r.Get("/movie/{id}/delete", catalogHandler.HandleDelete)
		r.Get("/movie/{id}/poster", catalogHandler.HandlePoster)
	})
}
