package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	req := require.New(t)

	got, err := NormalizeText("  hello  ")
	req.NoError(err)
	req.Equal("hello", got)

	_, err = NormalizeText(" \t\n")
	req.ErrorIs(err, ErrEmptyMessage)

	_, err = NormalizeText(strings.Repeat("ü", MaxMessageLen))
	req.NoError(err)

	_, err = NormalizeText(strings.Repeat("a", MaxMessageLen+1))
	req.ErrorIs(err, ErrMessageTooLong)
}

func TestNewMessage_IDsAreUniqueAndOrdered(t *testing.T) {
	req := require.New(t)
	sender := Connection{ID: "c1", Username: "Alice"}
	at := time.Now()

	prev := ""
	for range 1000 {
		m := NewMessage(sender, "hi", nil, at)
		req.Greater(m.ID, prev)
		prev = m.ID
	}
}

func TestMessage_CloneAndTextFor(t *testing.T) {
	req := require.New(t)
	m := NewMessage(Connection{ID: "c1", Username: "Alice"}, "hello",
		map[Language]string{Spanish: "hola"}, time.Now())

	cp := m.Clone()
	cp.Translations[French] = "bonjour"
	req.NotContains(m.Translations, French)

	req.Equal("hola", m.TextFor(Spanish))
	req.Equal("hello", m.TextFor(German))
	req.Equal(OriginAuto, m.OriginalLanguage)
	req.Equal(ConnID("c1"), m.SenderID)
}
