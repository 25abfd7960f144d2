package result

import "strings"

// enabledLanguages is the closed set the DBpedia backend serves, in display order.
var enabledLanguages = []string{"es", "en", "fr"}

// EnabledLanguages returns the languages the DBpedia backend serves.
func EnabledLanguages() []string {
	out := make([]string, len(enabledLanguages))
	copy(out, enabledLanguages)
	return out
}

// Enabled reports whether lang may be sent to the DBpedia backend.
func Enabled(lang string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(lang))
	for _, enabled := range enabledLanguages {
		if trimmed == enabled {
			return true
		}
	}
	return false
}
