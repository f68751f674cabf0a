package core

import "strings"

// CategoryKey is the normalized grouping identity of a category. Two raw
// category strings that differ only in case or surrounding whitespace map
// to the same key. The key is for lookups and equality only; it is not a
// display value.
type CategoryKey string

// UncategorizedKey is the reserved key for entries with no category.
const UncategorizedKey CategoryKey = "uncategorized"

// NormalizeKey canonicalizes a raw category into its lookup key.
func NormalizeKey(raw string) CategoryKey {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return UncategorizedKey
	}
	return CategoryKey(s)
}

// DisplayForm title-cases each word of a raw category for presentation.
// It is lossy (internal casing and spacing are not preserved) and must
// never be used for grouping or equality; that is what NormalizeKey is for.
func DisplayForm(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return "Uncategorized"
	}
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}
