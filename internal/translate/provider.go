package translate

import (
	"fmt"
	"time"

	"github.com/dkeye/Babel/internal/core"
	"github.com/rs/zerolog/log"
)

const (
	ProviderOffline = "offline"
	ProviderLibre   = "libre"
)

type Options struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	CacheSize int64
}

// Set is what the relay needs: a primary provider and the offline fallback.
type Set struct {
	Primary  core.Translator
	Fallback core.Translator
	closers  []func()
}

func (s Set) Close() {
	for _, c := range s.closers {
		c()
	}
}

func New(opts Options) (Set, error) {
	dict := NewDemoDictionary()
	set := Set{Primary: dict, Fallback: dict}

	switch opts.Provider {
	case "", ProviderOffline:
	case ProviderLibre:
		if opts.BaseURL == "" {
			return Set{}, fmt.Errorf("translate provider %q requires a base url", opts.Provider)
		}
		var primary core.Translator = NewLibre(opts.BaseURL, opts.APIKey, opts.Timeout)
		if opts.CacheSize > 0 {
			cached, err := NewCached(primary, opts.CacheSize)
			if err != nil {
				return Set{}, fmt.Errorf("translation cache: %w", err)
			}
			set.closers = append(set.closers, cached.Close)
			primary = cached
		}
		set.Primary = primary
	default:
		return Set{}, fmt.Errorf("unknown translate provider %q", opts.Provider)
	}

	log.Info().Str("module", "translate").Str("provider", opts.Provider).Int64("cache", opts.CacheSize).Msg("translation provider ready")
	return set, nil
}
