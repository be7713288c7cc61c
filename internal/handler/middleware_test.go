package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/handler"
	"github.com/msomdec/marquee/internal/repository/sqlite"
	"github.com/msomdec/marquee/internal/service"
	"github.com/msomdec/marquee/internal/tmdb"
)

const testSecret = "test-secret-key-that-is-at-least-32-bytes-long"

type testEnv struct {
	db       *sqlite.DB
	auth     *service.AuthService
	srv      *httptest.Server
	searches atomic.Int32
	images   atomic.Int32
}

type fakeFetcher struct {
	env *testEnv
}

func (f fakeFetcher) DownloadImage(_ context.Context, _ string) (*domain.Blob, error) {
	f.env.images.Add(1)
	return &domain.Blob{ContentType: "image/jpeg", Data: []byte("poster-bytes")}, nil
}

// newFakeTMDB serves a two-movie catalogue in the shape of the TMDB v3 API.
func newFakeTMDB(t *testing.T, env *testEnv) *httptest.Server {
	t.Helper()
	movies := map[string]tmdb.Result{
		"/movie/603": {ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", Overview: "Red pill.", PosterPath: "/matrix.jpg"},
		"/movie/604": {ID: 604, Title: "The Matrix Reloaded", ReleaseDate: "2003-05-15", Overview: "More pills."},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/movie", func(w http.ResponseWriter, r *http.Request) {
		env.searches.Add(1)
		resp := tmdb.Response{Page: 1}
		if r.URL.Query().Get("query") == "matrix" {
			resp.Results = []tmdb.Result{movies["/movie/603"], movies["/movie/604"]}
		}
		resp.TotalResults = len(resp.Results)
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /movie/{id}", func(w http.ResponseWriter, r *http.Request) {
		m, ok := movies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(m)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	env.db = db

	provider, err := tmdb.New("test-key", newFakeTMDB(t, env).URL, "en-US")
	if err != nil {
		t.Fatalf("tmdb client: %v", err)
	}

	env.auth = service.NewAuthService(db.Users(), db.Sessions(), testSecret, 4, time.Hour)
	catalog := service.NewCatalogService(db.Catalog(), provider, 2*time.Second)
	posters := service.NewPosterService(db.Catalog(), db.FileStore(), fakeFetcher{env: env}, 2*time.Second)

	r := chi.NewRouter()
	handler.RegisterRoutes(r, handler.Services{
		Auth:    env.auth,
		Posts:   service.NewPostService(db.Posts(), db.Comments()),
		Catalog: catalog,
		Posters: posters,
		Ping:    db.Ping,
	})
	env.srv = httptest.NewServer(r)
	t.Cleanup(env.srv.Close)
	return env
}

// client returns a cookie-keeping client that does not follow redirects.
func (env *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// register signs up through the form; the returned client is logged in.
func (env *testEnv) register(t *testing.T, email, name string) *http.Client {
	t.Helper()
	client := env.client(t)
	resp, err := client.PostForm(env.srv.URL+"/register", url.Values{
		"email":    {email},
		"name":     {name},
		"password": {"password123"},
	})
	if err != nil {
		t.Fatalf("POST /register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("register: expected 303, got %d", resp.StatusCode)
	}
	return client
}

func (env *testEnv) registerAdmin(t *testing.T, email string) *http.Client {
	t.Helper()
	client := env.register(t, email, "Admin")
	if _, err := env.auth.PromoteToAdmin(context.Background(), email); err != nil {
		t.Fatalf("promote: %v", err)
	}
	return client
}

func cookieValue(jar http.CookieJar, rawURL, name string) string {
	u, _ := url.Parse(rawURL)
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestLoadActor_ValidToken(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.auth.Register(context.Background(), "mw@example.com", "password123", "MW")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := env.auth.StartSession(context.Background(), user)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	var got *domain.User
	h := handler.LoadActor(env.auth, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = handler.ActorFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != user.ID {
		t.Fatalf("expected actor %d in context, got %+v", user.ID, got)
	}
}

func TestLoadActor_InvalidTokenIsAnonymousAndCleared(t *testing.T) {
	env := newTestEnv(t)

	called := false
	h := handler.LoadActor(env.auth, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if handler.ActorFromContext(r.Context()) != nil {
			t.Error("expected anonymous actor")
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected request to continue")
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected auth_token to be cleared")
	}
}

// failingUsers lets a test take the user store down after sign-in.
type failingUsers struct {
	domain.UserRepository
	down atomic.Bool
}

func (f *failingUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if f.down.Load() {
		return nil, context.DeadlineExceeded
	}
	return f.UserRepository.GetByID(ctx, id)
}

func TestLoadActor_StoreFailureKeepsCookie(t *testing.T) {
	env := newTestEnv(t)
	users := &failingUsers{UserRepository: env.db.Users()}
	auth := service.NewAuthService(users, env.db.Sessions(), testSecret, 4, time.Hour)

	user, err := auth.Register(context.Background(), "flaky@example.com", "password123", "Flaky")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := auth.StartSession(context.Background(), user)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	users.down.Store(true)
	called := false
	h := handler.LoadActor(auth, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if handler.ActorFromContext(r.Context()) != nil {
			t.Error("expected anonymous actor while the store is down")
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected request to continue")
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			t.Errorf("expected auth_token to be left alone, got Set-Cookie %v", c)
		}
	}

	users.down.Store(false)
	got, err := auth.ResolveToken(context.Background(), token)
	if err != nil {
		t.Fatalf("expected session to survive the outage: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, got.ID)
	}
}

func TestRequireAdmin_DeniesReaderAndAnonymousAlike(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})
	h := handler.RequireAdmin(next)

	for _, actor := range []*domain.User{nil, {ID: 1, Role: domain.RoleReader}} {
		req := httptest.NewRequest(http.MethodGet, "/new-post", nil)
		if actor != nil {
			req = req.WithContext(handler.ContextWithActor(req.Context(), actor))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Errorf("actor %v: expected 303 to /login, got %d %s", actor, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	called := false
	h := handler.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/new-post", nil)
	req = req.WithContext(handler.ContextWithActor(req.Context(), &domain.User{ID: 1, Role: domain.RoleAdmin}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected admin to pass")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := handler.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(name) == "" {
			t.Errorf("expected %s header", name)
		}
	}
}
