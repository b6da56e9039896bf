package facedb

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalName trims surrounding whitespace and applies Unicode NFC, so two
// visually identical names with different encodings cannot both be enrolled.
// Uniqueness stays case sensitive on the canonical form.
func CanonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// FoldName produces a diacritic-free lowercase key ("Jiří" -> "jiri") used
// for near-miss suggestions, never for the uniqueness check itself.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, name)
	return strings.ToLower(folded)
}

// Similar returns enrolled names whose folded form matches the folded form
// of the given name. Used to warn about likely typos on enrollment.
func (s *Store) Similar(name string) []string {
	key := FoldName(CanonicalName(name))

	var matches []string
	for _, r := range s.records {
		if FoldName(r.Name) == key && r.Name != name {
			matches = append(matches, r.Name)
		}
	}
	return matches
}
