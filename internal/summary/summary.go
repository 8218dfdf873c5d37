package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Babel/internal/core"
	"github.com/rs/zerolog/log"
)

const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"

	DefaultTimeout = 10 * time.Second
)

type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// WithFallback bounds primary by timeout and answers with fallback when
// primary fails.
type WithFallback struct {
	primary  core.Summarizer
	fallback core.Summarizer
	timeout  time.Duration
}

func NewWithFallback(primary, fallback core.Summarizer, timeout time.Duration) *WithFallback {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WithFallback{primary: primary, fallback: fallback, timeout: timeout}
}

func (s *WithFallback) Summarize(ctx context.Context, window []core.SummaryLine) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.primary.Summarize(cctx, window)
	if err == nil {
		return out, nil
	}
	log.Warn().Err(err).Str("module", "summary").Int("window", len(window)).Msg("summary provider failed, using local digest")
	return s.fallback.Summarize(ctx, window)
}

func New(opts Options) (core.Summarizer, error) {
	switch opts.Provider {
	case "", ProviderLocal:
		return Local{}, nil
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("summary provider %q requires an api key", opts.Provider)
		}
		return NewWithFallback(NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model), Local{}, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", opts.Provider)
	}
}
