package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/view"
)

func TestPostPage_BodyRawCommentsEscaped(t *testing.T) {
	post := &domain.Post{
		ID:         3,
		AuthorName: "Ada",
		Title:      "Stalker",
		Subtitle:   "A zone",
		Body:       "<p>Long <em>takes</em>.</p>",
		ImageURL:   "https://example.com/a.jpg",
		Date:       time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
	comments := []domain.Comment{{ID: 1, AuthorName: "Bob", Text: "<script>alert(1)</script>"}}

	var buf bytes.Buffer
	if err := view.PostPage(view.Page{Year: 2024}, post, comments, "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "<p>Long <em>takes</em>.</p>") {
		t.Error("expected post body to be rendered as HTML")
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("expected comment text to be escaped")
	}
	if !strings.Contains(html, "March 05, 2024") {
		t.Error("expected long-form post date")
	}
	if !strings.Contains(html, `name="comment_text"`) {
		t.Error("expected comment form field")
	}
}

func TestLayout_NavDependsOnActor(t *testing.T) {
	tests := []struct {
		name    string
		actor   *domain.User
		want    []string
		notWant []string
	}{
		{"anonymous", nil, []string{`href="/login"`, `href="/register"`}, []string{`href="/logout"`, `href="/new-post"`}},
		{"reader", &domain.User{Name: "Rita", Role: domain.RoleReader}, []string{`href="/logout"`, "Rita"}, []string{`href="/new-post"`}},
		{"admin", &domain.User{Name: "Ann", Role: domain.RoleAdmin}, []string{`href="/logout"`, `href="/new-post"`}, []string{`href="/register"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := view.IndexPage(view.Page{Actor: tt.actor, Year: 2030}, nil).Render(context.Background(), &buf); err != nil {
				t.Fatalf("render: %v", err)
			}
			html := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(html, s) {
					t.Errorf("expected %q in page", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(html, s) {
					t.Errorf("did not expect %q in page", s)
				}
			}
			if !strings.Contains(html, "2030") {
				t.Error("expected footer year")
			}
		})
	}
}

func TestCandidateList_LinksAndThumbnails(t *testing.T) {
	candidates := []domain.Candidate{
		{ExternalID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", PosterPath: "/m.jpg"},
		{ExternalID: 604, Title: "No Poster"},
	}
	var buf bytes.Buffer
	if err := view.CandidateList(candidates, "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, `href="/new/id=603"`) || !strings.Contains(html, `href="/new/id=604"`) {
		t.Error("expected links to the materialize route")
	}
	if !strings.Contains(html, "https://image.tmdb.org/t/p/w94_and_h141_bestv2/m.jpg") {
		t.Error("expected thumbnail URL")
	}
	if strings.Count(html, "<img") != 1 {
		t.Error("expected a thumbnail only for the candidate with a poster")
	}
}

func TestMoviesPage_UnratedEntryShowsPlaceholders(t *testing.T) {
	entries := []domain.CatalogEntry{{ID: 9, Title: "Heat", Year: 1995}}
	var buf bytes.Buffer
	if err := view.MoviesPage(view.Page{}, entries).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, domain.UnsetReview) {
		t.Error("expected unset review placeholder")
	}
	if strings.Contains(html, "/movie/9/poster") {
		t.Error("did not expect a poster for an entry without an image")
	}
	if !strings.Contains(html, `href="/update/id=9"`) {
		t.Error("expected update link")
	}
}

func TestAddPage_EscapesQueryInAttributes(t *testing.T) {
	query := `"><script>alert(1)</script>`
	var buf bytes.Buffer
	if err := view.AddPage(view.Page{}, query, nil, "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("expected query to be escaped")
	}
	if !strings.Contains(html, `value="&#34;&gt;&lt;script&gt;`) {
		t.Errorf("expected escaped value attribute, got %s", html)
	}
	if !strings.Contains(html, `data-signals="{&#34;query&#34;:`) {
		t.Error("expected escaped signal seed")
	}
	if !strings.Contains(html, view.DatastarScript) {
		t.Error("expected the live search client script")
	}
}

func TestPostFormPage_ActionDependsOnID(t *testing.T) {
	tests := []struct {
		name   string
		form   view.PostForm
		action string
		title  string
	}{
		{"new", view.PostForm{}, `action="/new-post"`, "New Post"},
		{"edit", view.PostForm{ID: 12, Title: `Tom & "Jerry"`, Body: "</textarea><b>x</b>"}, `action="/edit-post/12"`, "Edit Post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := view.PostFormPage(view.Page{}, tt.form).Render(context.Background(), &buf); err != nil {
				t.Fatalf("render: %v", err)
			}
			html := buf.String()
			if !strings.Contains(html, tt.action) {
				t.Errorf("expected %s", tt.action)
			}
			if !strings.Contains(html, "<h1>"+tt.title+"</h1>") {
				t.Errorf("expected heading %q", tt.title)
			}
			if strings.Contains(html, "</textarea><b>") {
				t.Error("expected body to be escaped inside the textarea")
			}
			if tt.form.Title != "" && !strings.Contains(html, `value="Tom &amp; &#34;Jerry&#34;"`) {
				t.Error("expected escaped title value")
			}
		})
	}
}

func TestErrorPage_EscapesMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := view.ErrorPage(view.Page{Flash: "<i>hi</i>"}, 404, "<b>gone</b>").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "<h1>404</h1>") {
		t.Error("expected status heading")
	}
	if strings.Contains(html, "<b>gone</b>") || strings.Contains(html, "<i>hi</i>") {
		t.Error("expected message and flash to be escaped")
	}
}
