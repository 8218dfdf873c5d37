// Package translate holds the translation providers: an offline phrasebook
// used as the fallback chain, a LibreTranslate HTTP client and a caching
// decorator.
package translate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/dkeye/Babel/internal/domain"
)

// Phrasebook maps a lower-case source phrase to its renderings.
type Phrasebook map[string]map[domain.Language]string

// DemoPhrasebook is the built-in offline vocabulary.
func DemoPhrasebook() Phrasebook {
	return Phrasebook{
		"hello":        {domain.Spanish: "hola", domain.French: "bonjour", domain.German: "hallo"},
		"how are you":  {domain.Spanish: "¿cómo estás?", domain.French: "comment allez-vous?", domain.German: "wie geht es dir?"},
		"good morning": {domain.Spanish: "buenos días", domain.French: "bonjour", domain.German: "guten morgen"},
		"thank you":    {domain.Spanish: "gracias", domain.French: "merci", domain.German: "danke"},
		"goodbye":      {domain.Spanish: "adiós", domain.French: "au revoir", domain.German: "auf wiedersehen"},
		"yes":          {domain.Spanish: "sí", domain.French: "oui", domain.German: "ja"},
		"no":           {domain.Spanish: "no", domain.French: "non", domain.German: "nein"},
		"please":       {domain.Spanish: "por favor", domain.French: "s'il vous plaît", domain.German: "bitte"},
	}
}

// Dictionary is the offline provider. Lookup order: whole text, multi-word
// phrases embedded in the text, then single words; anything unknown is kept
// verbatim. It never returns an error.
type Dictionary struct {
	phrases Phrasebook

	mu      sync.Mutex
	machine *goahocorasick.Machine // multi-word phrases only, nil if none
}

func NewDictionary(book Phrasebook) (*Dictionary, error) {
	d := &Dictionary{phrases: make(Phrasebook, len(book))}
	var patterns [][]rune
	for phrase, renderings := range book {
		key := strings.ToLower(strings.TrimSpace(phrase))
		if key == "" {
			continue
		}
		d.phrases[key] = renderings
		if strings.ContainsRune(key, ' ') {
			patterns = append(patterns, []rune(key))
		}
	}
	if len(patterns) > 0 {
		sort.Slice(patterns, func(i, j int) bool { return string(patterns[i]) < string(patterns[j]) })
		m := new(goahocorasick.Machine)
		if err := m.Build(patterns); err != nil {
			return nil, err
		}
		d.machine = m
	}
	return d, nil
}

// NewDemoDictionary builds the dictionary over DemoPhrasebook.
func NewDemoDictionary() *Dictionary {
	d, err := NewDictionary(DemoPhrasebook())
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dictionary) Translate(_ context.Context, text string, target domain.Language) (string, error) {
	if target.IsBaseline() {
		return text, nil
	}
	trimmed := strings.TrimSpace(text)
	if out, ok := d.lookup(trimmed, target); ok {
		return matchCase(trimmed, out), nil
	}

	runes := []rune(text)
	var b strings.Builder
	cursor := 0
	for _, s := range d.phraseSpans(runes, target) {
		b.WriteString(d.wordForWord(string(runes[cursor:s.start]), target))
		b.WriteString(matchCase(string(runes[s.start:s.end]), s.text))
		cursor = s.end
	}
	b.WriteString(d.wordForWord(string(runes[cursor:]), target))
	return b.String(), nil
}

func (d *Dictionary) lookup(phrase string, target domain.Language) (string, bool) {
	renderings, ok := d.phrases[strings.ToLower(phrase)]
	if !ok {
		return "", false
	}
	out, ok := renderings[target]
	return out, ok
}

type span struct {
	start, end int
	text       string
}

// phraseSpans finds non-overlapping whole-word phrase occurrences, leftmost
// first and longest on ties.
func (d *Dictionary) phraseSpans(runes []rune, target domain.Language) []span {
	if d.machine == nil || len(runes) == 0 {
		return nil
	}
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	d.mu.Lock()
	terms := d.machine.MultiPatternSearch(lower, false)
	d.mu.Unlock()

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Pos != terms[j].Pos {
			return terms[i].Pos < terms[j].Pos
		}
		return len(terms[i].Word) > len(terms[j].Word)
	})

	var out []span
	taken := 0
	for _, t := range terms {
		start, end := t.Pos, t.Pos+len(t.Word)
		if start < taken || !wordBoundary(lower, start, end) {
			continue
		}
		tr, ok := d.lookup(string(t.Word), target)
		if !ok {
			continue
		}
		out = append(out, span{start: start, end: end, text: tr})
		taken = end
	}
	return out
}

func wordBoundary(runes []rune, start, end int) bool {
	if start < 0 || end > len(runes) {
		return false
	}
	if start > 0 && isWordRune(runes[start-1]) {
		return false
	}
	if end < len(runes) && isWordRune(runes[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// wordForWord replaces known words and keeps whitespace and surrounding
// punctuation as they were.
func (d *Dictionary) wordForWord(segment string, target domain.Language) string {
	if segment == "" {
		return segment
	}
	var b strings.Builder
	var word []rune
	flush := func() {
		if len(word) > 0 {
			b.WriteString(d.translateToken(string(word), target))
			word = word[:0]
		}
	}
	for _, r := range segment {
		if unicode.IsSpace(r) {
			flush()
			b.WriteRune(r)
			continue
		}
		word = append(word, r)
	}
	flush()
	return b.String()
}

func (d *Dictionary) translateToken(token string, target domain.Language) string {
	core := strings.TrimFunc(token, func(r rune) bool { return !isWordRune(r) })
	if core == "" {
		return token
	}
	out, ok := d.lookup(core, target)
	if !ok {
		return token
	}
	i := strings.Index(token, core)
	return token[:i] + matchCase(core, out) + token[i+len(core):]
}

// matchCase capitalizes out when src starts with an upper-case letter.
func matchCase(src, out string) string {
	first := []rune(src)
	if len(first) == 0 || !unicode.IsUpper(first[0]) {
		return out
	}
	rs := []rune(out)
	for i, r := range rs {
		if unicode.IsLetter(r) {
			rs[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(rs)
}
