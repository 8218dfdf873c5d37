package http

import (
	"context"
	"path/filepath"

	"github.com/dkeye/Babel/internal/adapters/signal"
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SetupRouter wires REST under /api, the WebSocket at /api/ws and the
// static client.
func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, ctl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())

	corsCfg := cors.DefaultConfig()
	if cfg.FrontendURL == "" || cfg.FrontendURL == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.FrontendURL}
	}
	corsCfg.AllowMethods = []string{"GET", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{headerRequestID}
	r.Use(cors.New(corsCfg))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(filepath.Join(cfg.StaticPath, "index.html"))
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("frontend", cfg.FrontendURL).Msg("router setup")

	h := &Handlers{Orch: orch, APILimit: cfg.History.APILimit}
	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/messages", h.Messages)
	api.GET("/users", h.Users)
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}
