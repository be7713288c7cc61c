package handler_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/msomdec/marquee/internal/handler"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// flashFrom returns the flash message set by a response.
func flashFrom(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "flash" && c.MaxAge > 0 {
			msg, _ := base64.RawURLEncoding.DecodeString(c.Value)
			return string(msg)
		}
	}
	return ""
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}

func newPostForm(title string) url.Values {
	return url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"img_url":  {"https://example.com/cover.jpg"},
		"body":     {"<p>Hello <strong>world</strong></p>"},
	}
}

func TestIntegration_RegisterLoginCommentLogout(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t, "admin@example.com")

	resp, err := admin.PostForm(env.srv.URL+"/new-post", newPostForm("First Post"))
	if err != nil {
		t.Fatalf("POST /new-post: %v", err)
	}
	expectRedirect(t, resp, "/")

	// Register logs the reader straight in.
	reader := env.client(t)
	resp, err = reader.PostForm(env.srv.URL+"/register", url.Values{
		"email":    {"Reader@Example.com"},
		"name":     {"Reader"},
		"password": {"password123"},
	})
	if err != nil {
		t.Fatalf("POST /register: %v", err)
	}
	expectRedirect(t, resp, "/")
	if cookieValue(reader.Jar, env.srv.URL, "auth_token") == "" {
		t.Fatal("expected auth_token cookie after register")
	}

	// Log out and back in with the mixed-case email.
	resp, err = reader.Get(env.srv.URL + "/logout")
	if err != nil {
		t.Fatalf("GET /logout: %v", err)
	}
	expectRedirect(t, resp, "/")
	if cookieValue(reader.Jar, env.srv.URL, "auth_token") != "" {
		t.Fatal("expected auth_token cookie to be cleared on logout")
	}

	resp, err = reader.PostForm(env.srv.URL+"/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"password123"},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	expectRedirect(t, resp, "/")

	resp, err = reader.PostForm(env.srv.URL+"/post/1", url.Values{"comment_text": {"<b>Nice</b> post"}})
	if err != nil {
		t.Fatalf("POST /post/1: %v", err)
	}
	expectRedirect(t, resp, "/post/1#comments")

	resp, err = reader.Get(env.srv.URL + "/post/1")
	if err != nil {
		t.Fatalf("GET /post/1: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "&lt;b&gt;Nice&lt;/b&gt; post") {
		t.Error("expected escaped comment text on the post page")
	}
	if !strings.Contains(body, "<strong>world</strong>") {
		t.Error("expected post body rendered as HTML")
	}

	// Logged-in users are sent away from the login page.
	resp, err = reader.Get(env.srv.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	expectRedirect(t, resp, "/")
}

func TestIntegration_AnonymousCommentDenied(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t, "admin@example.com")
	resp, err := admin.PostForm(env.srv.URL+"/new-post", newPostForm("Quiet Post"))
	if err != nil {
		t.Fatalf("POST /new-post: %v", err)
	}
	expectRedirect(t, resp, "/")

	anon := env.client(t)
	resp, err = anon.PostForm(env.srv.URL+"/post/1", url.Values{"comment_text": {"drive-by"}})
	if err != nil {
		t.Fatalf("POST /post/1: %v", err)
	}
	if msg := flashFrom(resp); msg != "You need to login to comment." {
		t.Errorf("unexpected flash %q", msg)
	}
	expectRedirect(t, resp, "/login")

	comments, err := env.db.Comments().ListByPost(context.Background(), 1)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Fatalf("expected no comments, got %d", len(comments))
	}

	// The flash is shown once on the login page.
	resp, err = anon.Get(env.srv.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, "You need to login to comment.") {
		t.Error("expected flash message on login page")
	}
	resp, err = anon.Get(env.srv.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	if body := readBody(t, resp); strings.Contains(body, "You need to login to comment.") {
		t.Error("expected flash message to be shown only once")
	}
}

func TestIntegration_LoginErrors(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "known@example.com", "Known")

	tests := []struct {
		name      string
		email     string
		password  string
		wantFlash string
	}{
		{"unknown email", "nobody@example.com", "password123", "Email address doesn't exist!"},
		{"wrong password", "known@example.com", "wrongpassword", "Wrong password!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.client(t).PostForm(env.srv.URL+"/login", url.Values{
				"email":    {tt.email},
				"password": {tt.password},
			})
			if err != nil {
				t.Fatalf("POST /login: %v", err)
			}
			if msg := flashFrom(resp); msg != tt.wantFlash {
				t.Errorf("expected flash %q, got %q", tt.wantFlash, msg)
			}
			expectRedirect(t, resp, "/login")
		})
	}
}

func TestIntegration_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dup@example.com", "First")

	resp, err := env.client(t).PostForm(env.srv.URL+"/register", url.Values{
		"email":    {"dup@example.com"},
		"name":     {"Second"},
		"password": {"password456"},
	})
	if err != nil {
		t.Fatalf("POST /register: %v", err)
	}
	if msg := flashFrom(resp); msg != "This email address is already registered." {
		t.Errorf("unexpected flash %q", msg)
	}
	expectRedirect(t, resp, "/register")

	user, err := env.db.Users().GetByEmail(context.Background(), "dup@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Name != "First" {
		t.Errorf("expected existing account untouched, got name %q", user.Name)
	}
}

func TestIntegration_PostAdminGate(t *testing.T) {
	env := newTestEnv(t)
	reader := env.register(t, "reader@example.com", "Reader")
	admin := env.registerAdmin(t, "admin@example.com")

	resp, err := reader.PostForm(env.srv.URL+"/new-post", newPostForm("Sneaky"))
	if err != nil {
		t.Fatalf("POST /new-post: %v", err)
	}
	if msg := flashFrom(resp); msg != "You need to be an admin to access this page." {
		t.Errorf("unexpected flash %q", msg)
	}
	expectRedirect(t, resp, "/login")

	resp, err = env.client(t).Get(env.srv.URL + "/delete/1")
	if err != nil {
		t.Fatalf("GET /delete/1: %v", err)
	}
	expectRedirect(t, resp, "/login")

	posts, err := env.db.Posts().List(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}

	resp, err = admin.PostForm(env.srv.URL+"/new-post", newPostForm("Real Post"))
	if err != nil {
		t.Fatalf("POST /new-post: %v", err)
	}
	expectRedirect(t, resp, "/")

	resp, err = admin.PostForm(env.srv.URL+"/new-post", newPostForm("Real Post"))
	if err != nil {
		t.Fatalf("POST /new-post duplicate: %v", err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusConflict || !strings.Contains(body, "already exists") {
		t.Fatalf("duplicate: expected 409 with message, got %d", resp.StatusCode)
	}

	bad := newPostForm("Bad Image")
	bad.Set("img_url", "javascript:alert(1)")
	resp, err = admin.PostForm(env.srv.URL+"/new-post", bad)
	if err != nil {
		t.Fatalf("POST /new-post invalid: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid: expected 422, got %d", resp.StatusCode)
	}

	edit := newPostForm("Real Post, Revised")
	resp, err = admin.PostForm(env.srv.URL+"/edit-post/1", edit)
	if err != nil {
		t.Fatalf("POST /edit-post/1: %v", err)
	}
	expectRedirect(t, resp, "/post/1")

	post, err := env.db.Posts().GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Title != "Real Post, Revised" || post.AuthorName != "Admin" {
		t.Errorf("unexpected post after edit: %+v", post)
	}

	resp, err = admin.Get(env.srv.URL + "/delete/1")
	if err != nil {
		t.Fatalf("GET /delete/1: %v", err)
	}
	expectRedirect(t, resp, "/")

	resp, err = admin.Get(env.srv.URL + "/post/1")
	if err != nil {
		t.Fatalf("GET /post/1: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestIntegration_CatalogFlow(t *testing.T) {
	env := newTestEnv(t)
	client := env.client(t)

	// Search.
	resp, err := client.PostForm(env.srv.URL+"/add", url.Values{"title": {"matrix"}})
	if err != nil {
		t.Fatalf("POST /add: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `href="/new/id=603"`) || !strings.Contains(body, `href="/new/id=604"`) {
		t.Fatal("expected candidate links in search results")
	}

	resp, err = client.PostForm(env.srv.URL+"/add", url.Values{"title": {"   "}})
	if err != nil {
		t.Fatalf("POST /add blank: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("blank search: expected 422, got %d", resp.StatusCode)
	}

	// Select.
	resp, err = client.Get(env.srv.URL + "/new/id=603")
	if err != nil {
		t.Fatalf("GET /new/id=603: %v", err)
	}
	expectRedirect(t, resp, "/update/id=1")

	entry, err := env.db.Catalog().GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.Year != 1999 || entry.Finalized() {
		t.Fatalf("expected provisional 1999 entry, got %+v", entry)
	}

	resp, err = client.Get(env.srv.URL + "/new/id=603")
	if err != nil {
		t.Fatalf("GET /new/id=603 again: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.StatusCode)
	}

	resp, err = client.Get(env.srv.URL + "/new/id=999")
	if err != nil {
		t.Fatalf("GET /new/id=999: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown movie: expected 404, got %d", resp.StatusCode)
	}

	// Finalize.
	resp, err = client.PostForm(env.srv.URL+"/update/id=1", url.Values{
		"rating": {"11"}, "ranking": {"1"}, "review": {"Too good"},
	})
	if err != nil {
		t.Fatalf("POST /update/id=1 invalid: %v", err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(body, "between 0 and 10") {
		t.Fatalf("invalid rating: expected 422 with message, got %d", resp.StatusCode)
	}

	resp, err = client.PostForm(env.srv.URL+"/update/id=1", url.Values{
		"rating": {"9.5"}, "ranking": {"1"}, "review": {"Still holds up."},
	})
	if err != nil {
		t.Fatalf("POST /update/id=1: %v", err)
	}
	expectRedirect(t, resp, "/movies")

	resp, err = client.Get(env.srv.URL + "/movies")
	if err != nil {
		t.Fatalf("GET /movies: %v", err)
	}
	body = readBody(t, resp)
	if !strings.Contains(body, "The Matrix") || !strings.Contains(body, "Still holds up.") {
		t.Fatal("expected finalized entry on the movies page")
	}

	// Poster is fetched once and then served from the store.
	for i := 0; i < 2; i++ {
		resp, err = client.Get(env.srv.URL + "/movie/1/poster")
		if err != nil {
			t.Fatalf("GET /movie/1/poster: %v", err)
		}
		if got := readBody(t, resp); got != "poster-bytes" || resp.Header.Get("Content-Type") != "image/jpeg" {
			t.Fatalf("unexpected poster response %q (%s)", got, resp.Header.Get("Content-Type"))
		}
	}
	if n := env.images.Load(); n != 1 {
		t.Fatalf("expected one poster download, got %d", n)
	}

	// Delete.
	resp, err = client.Get(env.srv.URL + "/movie/1/delete")
	if err != nil {
		t.Fatalf("GET /movie/1/delete: %v", err)
	}
	expectRedirect(t, resp, "/movies")

	resp, err = client.Get(env.srv.URL + "/update/id=1")
	if err != nil {
		t.Fatalf("GET /update/id=1: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestIntegration_LiveSearch(t *testing.T) {
	env := newTestEnv(t)

	q := url.Values{"datastar": {`{"query":"matrix"}`}}
	resp, err := http.Get(env.srv.URL + "/add/search?" + q.Encode())
	if err != nil {
		t.Fatalf("GET /add/search: %v", err)
	}
	body := readBody(t, resp)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", ct)
	}
	if !strings.Contains(body, "candidates") || !strings.Contains(body, "/new/id=603") {
		t.Fatalf("expected candidate fragment in stream, got %q", body)
	}

	// An empty query patches an empty list without asking the provider.
	before := env.searches.Load()
	q = url.Values{"datastar": {`{"query":""}`}}
	resp, err = http.Get(env.srv.URL + "/add/search?" + q.Encode())
	if err != nil {
		t.Fatalf("GET /add/search empty: %v", err)
	}
	readBody(t, resp)
	if env.searches.Load() != before {
		t.Error("expected no provider call for an empty query")
	}
}

func TestIntegration_API(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAdmin(t, "admin@example.com")
	resp, err := admin.PostForm(env.srv.URL+"/new-post", newPostForm("API Post"))
	if err != nil {
		t.Fatalf("POST /new-post: %v", err)
	}
	expectRedirect(t, resp, "/")

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/posts", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/posts: %v", err)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS header on API responses")
	}
	var posts []handler.PostDTO
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	resp.Body.Close()
	if len(posts) != 1 || posts[0].Title != "API Post" || posts[0].Author != "Admin" {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	resp, err = http.Get(env.srv.URL + "/api/posts/42/comments")
	if err != nil {
		t.Fatalf("GET /api/posts/42/comments: %v", err)
	}
	var apiErr map[string]string
	json.NewDecoder(resp.Body).Decode(&apiErr)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || apiErr["error"] == "" {
		t.Fatalf("expected 404 JSON error, got %d %v", resp.StatusCode, apiErr)
	}

	resp, err = http.Get(env.srv.URL + "/api/movies")
	if err != nil {
		t.Fatalf("GET /api/movies: %v", err)
	}
	var movies []handler.MovieDTO
	if err := json.NewDecoder(resp.Body).Decode(&movies); err != nil {
		t.Fatalf("decode movies: %v", err)
	}
	resp.Body.Close()
	if len(movies) != 0 {
		t.Fatalf("expected empty catalog, got %d", len(movies))
	}
}
