package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler turns an entity-type key such as "Archaeological_Site" or
// "shipWreck" into a title ("Archaeological Site", "Ship Wreck"). Words
// written in capitals stay as they are, so "DNA_sample" keeps "DNA".
func DefaultLabeler(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		for _, part := range splitCamel(w) {
			out = append(out, capitalize(part))
		}
	}
	return strings.Join(out, " ")
}

// splitCamel breaks "shipWreck2" into "ship", "Wreck", "2". Runs of capitals
// are one word.
func splitCamel(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		if (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur)) ||
			(unicode.IsDigit(prev) && unicode.IsLetter(cur)) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

func capitalize(word string) string {
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// propertyLabel is the field label of a property: its wiki label, or the
// property id when the wiki has none.
func propertyLabel(id, label string) string {
	if strings.TrimSpace(label) == "" {
		return id
	}
	return label
}
