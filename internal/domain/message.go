package domain

import (
	"errors"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

const MaxMessageLen = 500

// OriginAuto marks origin text whose language is not detected.
const OriginAuto = "auto"

var (
	ErrEmptyMessage   = errors.New("message empty")
	ErrMessageTooLong = errors.New("message too long")
)

// Message is immutable once it has been appended to history.
type Message struct {
	ID               string              `json:"id"`
	Seq              uint64              `json:"seq"`
	Username         string              `json:"username"`
	SenderID         ConnID              `json:"userId"`
	OriginalText     string              `json:"originalText"`
	OriginalLanguage string              `json:"originalLanguage"`
	Timestamp        time.Time           `json:"timestamp"`
	Translations     map[Language]string `json:"translations"`
}

// NormalizeText trims the text and enforces the length bound.
// Oversized text is rejected, never truncated.
func NormalizeText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(t) > MaxMessageLen {
		return "", ErrMessageTooLong
	}
	return t, nil
}

// NewMessage stamps a fresh ULID. ulid.Make is monotonic within a process,
// so two messages created in the same millisecond still get distinct,
// ordered ids. Seq is assigned when the message enters history.
func NewMessage(sender Connection, text string, translations map[Language]string, at time.Time) Message {
	if translations == nil {
		translations = map[Language]string{}
	}
	return Message{
		ID:               ulid.Make().String(),
		Username:         sender.Username,
		SenderID:         sender.ID,
		OriginalText:     text,
		OriginalLanguage: OriginAuto,
		Timestamp:        at,
		Translations:     translations,
	}
}

// Clone returns a copy that shares nothing mutable with m.
func (m Message) Clone() Message {
	m.Translations = maps.Clone(m.Translations)
	return m
}

// TextFor returns the rendering for lang, or the origin text when there is none.
func (m Message) TextFor(lang Language) string {
	if t, ok := m.Translations[lang]; ok {
		return t
	}
	return m.OriginalText
}
