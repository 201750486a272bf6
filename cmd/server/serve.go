package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/Relay/internal/adapters/http"
	"github.com/dkeye/Relay/internal/adapters/rtc"
	wssignal "github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/events"
	"github.com/dkeye/Relay/internal/identity"
	"github.com/dkeye/Relay/internal/ratelimit"
	"github.com/dkeye/Relay/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	verifier, err := identity.NewJWTVerifier(cfg.Auth.Config)
	if err != nil {
		return err
	}

	pub, err := events.New(cfg.AMQP)
	if err != nil {
		return err
	}
	if c, ok := pub.(io.Closer); ok {
		defer c.Close()
	}

	webrtcCfg, err := rtc.WebRTCConfig(cfg.ICEServers)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(cfg.RateLimit, cfg.Redis)
	o := orch.New(db, pub, app.SimplePolicy{})
	ws := wssignal.NewSignalWSController(o, verifier, limiter, wssignal.Options{
		ReadLimit:   cfg.ReadLimit,
		PingPeriod:  cfg.PingPeriod,
		SendBuffer:  cfg.SendBuffer,
		HistorySize: cfg.HistorySize,
		RequireAuth: cfg.Auth.RequireSignalAuth,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:     o,
		Users:    db,
		Identity: verifier,
		Signal:   ws,
		Limiter:  limiter,
		WebRTC:   webrtcCfg,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Relay server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
