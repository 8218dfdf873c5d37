package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Babel/internal/adapters/http"
	wssignal "github.com/dkeye/Babel/internal/adapters/signal"
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/config"
	"github.com/dkeye/Babel/internal/summary"
	"github.com/dkeye/Babel/internal/translate"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg.Log)

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogger(cfg config.LogConfig) {
	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func run(ctx context.Context, cfg *config.Config) error {
	translators, err := translate.New(translate.Options{
		Provider:  cfg.Translate.Provider,
		BaseURL:   cfg.Translate.BaseURL,
		APIKey:    cfg.Translate.APIKey,
		Timeout:   cfg.Translate.Timeout,
		CacheSize: cfg.Translate.CacheSize,
	})
	if err != nil {
		return err
	}
	defer translators.Close()

	summarizer, err := summary.New(summary.Options{
		Provider: cfg.Summary.Provider,
		Model:    cfg.Summary.Model,
		APIKey:   cfg.Summary.APIKey,
		BaseURL:  cfg.Summary.BaseURL,
		Timeout:  cfg.Summary.Timeout,
	})
	if err != nil {
		return err
	}

	policy, err := app.PolicyByName(cfg.Policy.Backpressure)
	if err != nil {
		return err
	}

	reg := app.NewRegistry(cfg.History.Capacity)
	relay := app.NewRelay(reg, translators.Primary, translators.Fallback, summarizer, app.RelayConfig{
		TranslateTimeout: cfg.Translate.Timeout,
		Workers:          cfg.Translate.Workers,
	})
	orch := &app.Orchestrator{
		Registry:      reg,
		Relay:         relay,
		Policy:        policy,
		CatchUp:       cfg.History.CatchUp,
		SummaryWindow: cfg.History.SummaryWindow,
	}
	ctl := wssignal.NewSignalWSController(orch, wssignal.Options{
		ReadLimit:     cfg.ReadLimit,
		PingPeriod:    cfg.PingPeriod,
		PongWait:      cfg.PongWait,
		WriteWait:     cfg.WriteWait,
		SendBuffer:    cfg.SendBuffer,
		AllowedOrigin: cfg.FrontendURL,
		RateLimit:     cfg.RateLimit.Messages,
		RateInterval:  cfg.RateLimit.Interval,
	})
	relay.PublishTo(ctl)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(ctx, cfg, orch, ctl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Babel server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
