// Package tmdb is the small TMDB API client behind the movie catalog.
//
// It searches movies by title, fetches a movie's details by TMDB id and
// downloads poster images. The credential is either a v3 API key, sent as
// the api_key query parameter, or a v4 read token written as "Bearer ...",
// sent in the Authorization header. Options let tests point the client at
// an httptest server.
package tmdb
