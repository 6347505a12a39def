package domain

import "strings"

// SearchableString wraps a string value for rule scripts. Matching is
// case-insensitive, and search terms written with the ASCII transliterations
// "ae"/"oe"/"ue" also match text using the corresponding umlaut spelling,
// because statement files and remote-banking imports use different umlaut
// strategies.
type SearchableString struct {
	value string
	lower string
}

var umlautReplacer = strings.NewReplacer("ae", "ä", "oe", "ö", "ue", "ü")

// NewSearchableString wraps the given value.
func NewSearchableString(value string) SearchableString {
	return SearchableString{
		value: value,
		lower: strings.ToLower(value),
	}
}

// Contains reports whether the value contains any of the given terms.
func (s SearchableString) Contains(terms ...string) bool {
	if s.lower == "" {
		return false
	}
	for _, term := range terms {
		term = strings.ToLower(term)
		if strings.Contains(s.lower, term) {
			return true
		}
		if umlautTerm := umlautReplacer.Replace(term); umlautTerm != term &&
			strings.Contains(s.lower, umlautTerm) {
			return true
		}
	}
	return false
}

func (s SearchableString) String() string {
	return s.value
}
