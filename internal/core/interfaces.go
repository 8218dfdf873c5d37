package core

import (
	"context"

	"github.com/dkeye/Babel/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_core.go -package=mocks
//go:generate mockgen -source=signal_iface.go -destination=../mocks/mock_signal.go -package=mocks

// Translator renders text in the target language. The deadline is carried by ctx.
type Translator interface {
	Translate(ctx context.Context, text string, target domain.Language) (string, error)
}

// SummaryLine is one entry of the window handed to a Summarizer.
type SummaryLine struct {
	Username string
	Text     string
}

// Summarizer turns a message window into a digest. It must not keep the window.
type Summarizer interface {
	Summarize(ctx context.Context, window []SummaryLine) (string, error)
}

// Publisher receives every committed message, in history order.
// Publish is called with the commit lock held and must not block.
type Publisher interface {
	Publish(msg domain.Message)
}
