// Package view holds the site's templ components. The *_templ.go files are
// generated from the .templ sources.
package view

//go:generate templ generate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/msomdec/marquee/internal/domain"
)

// DatastarScript is the client bundle used by the live search.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// DateLayout is how post dates are shown.
const DateLayout = "January 02, 2006"

// Page carries what every page needs around its content.
type Page struct {
	Actor *domain.User // nil when anonymous
	Flash string
	Year  int
}

// PostForm is the state of the new/edit post form. ID is zero for a new post.
type PostForm struct {
	ID       int64
	Title    string
	Subtitle string
	ImageURL string
	Body     string
	Error    string
}

func (f PostForm) heading() string {
	if f.ID != 0 {
		return "Edit Post"
	}
	return "New Post"
}

func (f PostForm) action() templ.SafeURL {
	if f.ID != 0 {
		return templ.URL(fmt.Sprintf("/edit-post/%d", f.ID))
	}
	return templ.URL("/new-post")
}

// AccountForm holds what the login and register forms echo back.
type AccountForm struct {
	Name  string
	Email string
	Error string
}

// RatingForm is the state of the finalize form.
type RatingForm struct {
	Rating string
	Rank   string
	Review string
	Error  string
}

// RatingFormFor prefills the form from an entry that may already be rated.
func RatingFormFor(e *domain.CatalogEntry) RatingForm {
	if !e.Finalized() {
		return RatingForm{}
	}
	return RatingForm{
		Rating: formatRating(e.RatingValue()),
		Rank:   strconv.Itoa(e.RankValue()),
		Review: e.ReviewText(),
	}
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// querySignals seeds the Datastar signal store for the search box.
func querySignals(query string) string {
	b, _ := json.Marshal(map[string]string{"query": query})
	return string(b)
}
