package service

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle trims, collapses inner whitespace and converts to NFC so
// that visually identical titles collide on the unique index.
func NormalizeTitle(title string) string {
	return norm.NFC.String(strings.Join(strings.Fields(title), " "))
}
