// Package textnorm folds free text into a comparable form: diacritics removed,
// case folded, punctuation collapsed to single spaces.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s without diacritics, case folded, with every run of
// non-alphanumeric characters replaced by one space.
//
//	Fold("Türkiye: Hatay Province") == "turkiye hatay province"
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain keeps state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Words splits the folded form of s into words.
func Words(s string) []string {
	return strings.Fields(Fold(s))
}

// ContainsPhrase reports whether the folded text contains the folded phrase on
// word boundaries. Both arguments are folded before comparison.
func ContainsPhrase(text, phrase string) bool {
	t := Fold(text)
	p := Fold(phrase)
	if t == "" || p == "" {
		return false
	}
	return containsFolded(t, p)
}

// ContainsFolded is ContainsPhrase for inputs that are already folded.
func ContainsFolded(foldedText, foldedPhrase string) bool {
	if foldedText == "" || foldedPhrase == "" {
		return false
	}
	return containsFolded(foldedText, foldedPhrase)
}

func containsFolded(t, p string) bool {
	return strings.Contains(" "+t+" ", " "+p+" ")
}

// Title renders a folded identifier such as "disaster_relief" as "Disaster Relief".
func Title(id string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(id, "_", " "))
}
