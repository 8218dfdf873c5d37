package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultTranslateTimeout = 3 * time.Second
	DefaultTranslateWorkers = 4
	DefaultSummaryWindow    = 10
)

var errEmptyTranslation = errors.New("empty translation")

type RelayConfig struct {
	TranslateTimeout time.Duration
	// Workers bounds concurrent provider calls within one Send.
	Workers int
}

// SummaryResult is the digest handed back to the requester.
type SummaryResult struct {
	Summary      string    `json:"summary"`
	MessageCount uint64    `json:"messageCount"`
	Timestamp    time.Time `json:"timestamp"`
}

// Relay turns a validated send into a fully translated, stored and
// published Message. Sends from different connections never wait on each
// other's translations; only the final append+publish is serialized.
type Relay struct {
	reg        *Registry
	translator core.Translator
	fallback   core.Translator
	summarizer core.Summarizer
	cfg        RelayConfig

	commitMu  sync.Mutex
	publisher core.Publisher
}

// NewRelay wires the relay. fallback must be an offline translator; a nil
// fallback degrades to the untranslated origin text.
func NewRelay(reg *Registry, translator, fallback core.Translator, summarizer core.Summarizer, cfg RelayConfig) *Relay {
	if cfg.TranslateTimeout <= 0 {
		cfg.TranslateTimeout = DefaultTranslateTimeout
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultTranslateWorkers
	}
	return &Relay{
		reg:        reg,
		translator: translator,
		fallback:   fallback,
		summarizer: summarizer,
		cfg:        cfg,
	}
}

// PublishTo sets the broadcast sink. Call before serving traffic.
func (r *Relay) PublishTo(p core.Publisher) {
	r.commitMu.Lock()
	r.publisher = p
	r.commitMu.Unlock()
}

// Send validates text, translates it once per distinct language in use and
// commits the result. Cancellation of ctx is ignored once the text is
// accepted: the message is delivered even if its sender disconnects.
func (r *Relay) Send(ctx context.Context, id domain.ConnID, text string) (domain.Message, error) {
	body, err := domain.NormalizeText(text)
	if err != nil {
		return domain.Message{}, err
	}
	sender, ok := r.reg.Lookup(id)
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s", ErrUnknownSender, id)
	}

	langs := r.reg.Languages()
	translations := r.translateAll(context.WithoutCancel(ctx), body, langs)
	msg := domain.NewMessage(sender, body, translations, time.Now())
	return r.commit(msg), nil
}

func (r *Relay) translateAll(ctx context.Context, text string, langs []domain.Language) map[domain.Language]string {
	out := make(map[domain.Language]string, len(langs))
	if len(langs) == 0 {
		return out
	}

	type rendered struct {
		lang domain.Language
		text string
	}
	p := pool.NewWithResults[rendered]().WithMaxGoroutines(r.cfg.Workers)
	for _, lang := range langs {
		p.Go(func() rendered {
			return rendered{lang: lang, text: r.translateOne(ctx, text, lang)}
		})
	}
	for _, res := range p.Wait() {
		out[res.lang] = res.text
	}
	return out
}

// translateOne never fails: provider errors, panics and deadline expiry all
// fall through to the offline chain.
func (r *Relay) translateOne(parent context.Context, text string, lang domain.Language) string {
	ctx, cancel := context.WithTimeout(parent, r.cfg.TranslateTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		var pc panics.Catcher
		pc.Try(func() { res.text, res.err = r.translator.Translate(ctx, text, lang) })
		if rec := pc.Recovered(); rec != nil {
			res.err = rec.AsError()
		}
		if res.err == nil && res.text == "" {
			res.err = errEmptyTranslation
		}
		done <- res
	}()

	var err error
	select {
	case res := <-done:
		if res.err == nil {
			return res.text
		}
		err = res.err
	case <-ctx.Done():
		err = ctx.Err()
	}

	log.Warn().Err(err).Str("module", "app.relay").Str("lang", string(lang)).Msg("translation failed, using offline fallback")
	return r.offline(text, lang)
}

func (r *Relay) offline(text string, lang domain.Language) string {
	if r.fallback == nil {
		return text
	}
	out, err := r.fallback.Translate(context.Background(), text, lang)
	if err != nil || out == "" {
		return text
	}
	return out
}

// commit appends and publishes under one lock so every observer sees
// broadcasts in history order.
func (r *Relay) commit(m domain.Message) domain.Message {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()
	m = r.reg.appendMessage(m)
	if r.publisher != nil {
		r.publisher.Publish(m.Clone())
	}
	log.Debug().Str("module", "app.relay").Str("id", m.ID).Uint64("seq", m.Seq).Int("langs", len(m.Translations)).Msg("message committed")
	return m
}

// Exclusive runs fn with no commit in progress. Messages committed after
// fn returns are published after anything fn enqueued.
func (r *Relay) Exclusive(fn func()) {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()
	fn()
}

// RecentHistory returns at most limit most recent messages in send order.
func (r *Relay) RecentHistory(limit int) []domain.Message {
	return r.reg.Recent(limit)
}

// RequestSummary digests the last limit messages. The window is copied under
// a read lock and the summarizer runs without holding anything.
func (r *Relay) RequestSummary(ctx context.Context, limit int) (SummaryResult, error) {
	if limit <= 0 {
		limit = DefaultSummaryWindow
	}
	window, total := r.reg.RecentWithTotal(limit)
	lines := lo.Map(window, func(m domain.Message, _ int) core.SummaryLine {
		return core.SummaryLine{Username: m.Username, Text: m.OriginalText}
	})
	digest, err := r.summarizer.Summarize(ctx, lines)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("summarize: %w", err)
	}
	return SummaryResult{Summary: digest, MessageCount: total, Timestamp: time.Now()}, nil
}
