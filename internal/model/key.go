package model

import (
	"strings"
	"unicode"
)

// NormalizeKey canonicalizes category text for matching: surrounding
// whitespace trimmed, lowercased, all internal whitespace removed.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// LineKey identifies a budget line in the normalized key space.
type LineKey struct {
	Category    string `json:"category_key"`
	SubCategory string `json:"subcategory_key"`
}

// NewLineKey normalizes display strings into a LineKey.
func NewLineKey(category, subCategory string) LineKey {
	return LineKey{
		Category:    NormalizeKey(category),
		SubCategory: NormalizeKey(subCategory),
	}
}

func (k LineKey) String() string {
	return k.Category + "/" + k.SubCategory
}
