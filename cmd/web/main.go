package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/patientlink/web/internal/config"
	"github.com/patientlink/web/internal/dashboard"
	doctormachine "github.com/patientlink/web/internal/dashboard/doctor"
	patientmachine "github.com/patientlink/web/internal/dashboard/patient"
	"github.com/patientlink/web/internal/gateway"
	"github.com/patientlink/web/internal/handler"
	authHandler "github.com/patientlink/web/internal/handler/auth"
	dashboardHandler "github.com/patientlink/web/internal/handler/dashboard"
	doctorHandler "github.com/patientlink/web/internal/handler/doctor"
	homeHandler "github.com/patientlink/web/internal/handler/home"
	patientHandler "github.com/patientlink/web/internal/handler/patient"
	"github.com/patientlink/web/internal/middleware"
	"github.com/patientlink/web/internal/model"
	"github.com/patientlink/web/internal/router"
	"github.com/patientlink/web/internal/session"
	"github.com/patientlink/web/internal/sessionstore"
	"github.com/patientlink/web/internal/verify"
	"github.com/patientlink/web/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logr := logger.New(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})
	log.Logger = logr

	model.RegisterValidations()

	// Session store
	store, err := sessionstore.NewStore(cfg.Redis, cfg.Auth.SessionTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to session store")
	}
	defer store.Close()

	// Identity resolution
	resolver := session.NewResolver(cfg.Auth.Namespace, cfg.Cache.ResolverTTL())

	// Backend gateways
	client := gateway.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout(), logr)
	registry := gateway.NewRegistryClient(client)
	documents := gateway.NewDocumentClient(client)

	verifier := verify.NewService(registry, logr)
	profiles := gocache.New(cfg.Cache.ProfileTTL(), 2*cfg.Cache.ProfileTTL())

	machines := dashboard.NewMachines(
		cfg.Auth.SessionTTL(),
		func(token, doctorID string) *doctormachine.Machine {
			return doctormachine.NewMachine(registry, verifier, token, doctorID, logr)
		},
		func(token, subject string) *patientmachine.Machine {
			return patientmachine.NewMachine(registry, documents, profiles, token, subject, logr)
		},
	)

	authMiddleware := middleware.NewAuthMiddleware(store, resolver, cfg.Auth.CookieName)

	r := router.NewRouter(
		authMiddleware,
		handler.NewHandler(),
		router.Config{
			RateLimit: rate.Limit(cfg.RateLimit.RPS),
			RateBurst: cfg.RateLimit.Burst,
		},
		homeHandler.NewHandler(),
		authHandler.NewHandler(store, resolver, machines, cfg.Auth.CookieName),
		dashboardHandler.NewHandler(),
		doctorHandler.NewHandler(machines, documents),
		patientHandler.NewHandler(machines, documents),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
