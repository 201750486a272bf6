package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/ratelimit"
)

const sessionName = "RelaySession"

type Deps struct {
	Orch     *orch.Orchestrator
	Users    core.UserStore
	Identity core.Identity
	Signal   *signal.SignalWSController
	Limiter  ratelimit.Limiter
	WebRTC   webrtc.Configuration
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	h := &handlers{orch: d.Orch, users: d.Users}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": d.Orch.Registry.Len()})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.Use(Authenticate(d.Identity), RateLimit(d.Limiter))

	api.GET("/ice-servers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"iceServers": d.WebRTC.ICEServers})
	})

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("ip", c.ClientIP()).Msg("ws signal endpoint hit")
		d.Signal.HandleSignal(ctx, c)
	})

	authed := api.Group("", RequireUser())
	authed.POST("/session", openSession)
	authed.DELETE("/session", closeSession)

	authed.POST("/users", h.createUser)
	authed.GET("/users/:id", h.getUser)

	authed.POST("/cars", h.createCar)
	authed.GET("/cars", h.listCars)
	authed.GET("/cars/:id/seats", h.listSeats)
	authed.POST("/cars/:id/seats", h.createSeat)
	authed.POST("/seats/:id/claim", h.claimSeat)
	authed.POST("/seats/:id/release", h.releaseSeat)

	authed.POST("/calls", h.initiateCall)
	authed.GET("/calls", h.listCalls)
	authed.GET("/calls/:id", h.getCall)
	authed.PATCH("/calls/:id", h.updateCall)

	authed.GET("/messages", h.listMessages)

	return r
}
