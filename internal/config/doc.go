// Package config loads and validates marquee configuration.
//
// Values come from three layers: built-in defaults, an optional TOML file
// and environment variables, with later layers winning. The server and
// marqueectl share the loader; only the server insists on a signing secret
// and a TMDB credential.
package config
