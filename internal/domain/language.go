package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a two-letter ISO 639-1 code from the supported set.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	French  Language = "fr"
	German  Language = "de"
)

// Baseline is the implicit default language. Messages are never translated into it.
const Baseline = English

var supported = map[Language]struct{}{
	English: {},
	Spanish: {},
	French:  {},
	German:  {},
}

// SupportedLanguages lists every language a participant may prefer.
func SupportedLanguages() []Language {
	return []Language{English, Spanish, French, German}
}

// ParseLanguage maps a client supplied code onto the supported set.
// Region and script subtags are dropped ("fr-CA" is French); empty,
// malformed or unsupported codes fall back to Baseline.
func ParseLanguage(code string) Language {
	code = strings.TrimSpace(code)
	if code == "" {
		return Baseline
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Baseline
	}
	base, _ := tag.Base()
	lang := Language(base.String())
	if _, ok := supported[lang]; !ok {
		return Baseline
	}
	return lang
}

func (l Language) IsBaseline() bool { return l == Baseline }
