// Package i18n defines the supported UI languages and tag matching helpers.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is the language used when nothing else matches.
const DefaultLanguage = "es"

var supportedTags = []language.Tag{
	language.Spanish,
	language.English,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
}

var matcher = language.NewMatcher(supportedTags)

// SupportedTags returns the UI languages in display order.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supportedTags))
	copy(out, supportedTags)
	return out
}

// SupportedLanguages returns the UI language codes in display order.
func SupportedLanguages() []string {
	out := make([]string, 0, len(supportedTags))
	for _, tag := range supportedTags {
		out = append(out, Code(tag))
	}
	return out
}

// DefaultTag returns the default UI language tag.
func DefaultTag() language.Tag {
	return language.Spanish
}

// Code returns the two-letter base code used as catalog and backend identifier.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// ParseTag parses value and reports whether it maps to a supported language.
func ParseTag(value string) (language.Tag, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return language.Und, false
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High {
		return language.Und, false
	}
	return supportedTags[index], true
}

// MatchTags picks the best supported language for the preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	return supportedTags[index]
}

// IsSupported reports whether code is one of the UI languages.
func IsSupported(code string) bool {
	_, ok := ParseTag(code)
	return ok
}
