package evaluation

import (
	"fmt"
	"sort"
	"strings"
)

// languageIDs is the judge's closed language table.
var languageIDs = map[string]int{
	"c":          50,
	"cpp":        54,
	"java":       62,
	"javascript": 102,
	"python":     109,
}

// LanguageID resolves a language name to its judge id.
func LanguageID(language string) (int, error) {
	id, ok := languageIDs[NormalizeLanguage(language)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return id, nil
}

// NormalizeLanguage lowercases and trims a language name.
func NormalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// SupportedLanguages lists the language names in alphabetical order.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageIDs))
	for name := range languageIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
