package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zhouzirui/medassist/backend/internal/config"
	"github.com/zhouzirui/medassist/backend/internal/handler"
	"github.com/zhouzirui/medassist/backend/internal/service/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/consult"
	"github.com/zhouzirui/medassist/backend/internal/service/geocode"
	"github.com/zhouzirui/medassist/backend/internal/service/location"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	geoClient := geocode.NewClient(cfg.Geocode.Client(), nil)
	if cfg.Geocode.APIKey == "" {
		log.Println("GEOCODE_API_KEY not set, forward geocoding will be sent without a key")
	}

	resolver := location.NewResolver(geoClient, geoClient,
		location.WithFallbackCoordinates(cfg.Geocode.FallbackLat, cfg.Geocode.FallbackLon))

	chatService := chat.NewService()
	consultService := consult.NewService(chatService, resolver, consult.Config{
		ThinkingDelay: cfg.Triage.ThinkingDelay,
		MapsSearchURL: cfg.Triage.MapsSearchURL,
	})
	log.Printf("triage service ready, thinking delay %s", cfg.Triage.ThinkingDelay)

	router := handler.NewRouter(chatService, consultService, cfg.Server.AllowedOrigin)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MedAssist backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
