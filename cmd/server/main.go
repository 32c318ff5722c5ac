package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/course_market/internal/config"
	"github.com/Skotchmaster/course_market/internal/db"
	"github.com/Skotchmaster/course_market/internal/hash"
	"github.com/Skotchmaster/course_market/internal/httpserver"
	"github.com/Skotchmaster/course_market/internal/logging"
	authmw "github.com/Skotchmaster/course_market/internal/middleware/auth"
	"github.com/Skotchmaster/course_market/internal/middleware/csrf"
	"github.com/Skotchmaster/course_market/internal/mykafka"
	"github.com/Skotchmaster/course_market/internal/oauth"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/routes"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/session"
	"github.com/Skotchmaster/course_market/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	handle := db.NewHandle(cfg.DatabaseURL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := handle.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	hasher, err := hash.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	issuer, err := tokens.NewIssuer(cfg.TokenSecret, cfg.TokenMaxAge)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	rules, err := routes.Parse(cfg.RoutesPublic, cfg.RoutesAuthenticated, cfg.RoutesRole)
	if err != nil {
		log.Fatalf("routes: %v", err)
	}
	table, err := routes.NewTable(rules...)
	if err != nil {
		log.Fatalf("routes: %v", err)
	}
	for _, r := range table.Rules() {
		logger.Debug("route rule", "pattern", r.Pattern, "access", r.Access.String(), "role", r.Role)
	}
	logger.Info("auth configured", "routes", len(table.Rules()), "token_max_age", issuer.MaxAge().String())

	svc := &service.AuthService{
		Repo:   &repo.GormRepo{DB: gdb},
		Hasher: hasher,
		Tokens: issuer,
		Topic:  cfg.KafkaTopic,
	}

	var prod *mykafka.Producer
	if cfg.EventsEnabled() {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		svc.Events = prod
	} else {
		logger.Info("account events disabled", "reason", "KAFKA_BROKERS empty")
	}

	carrier := session.NewCarrier(cfg.SessionCookie, cfg.Production())

	deps := &httpserver.Deps{
		AuthHandler:      &httpserver.AuthHTTP{Svc: svc, Session: carrier},
		AdminHandler:     &httpserver.AdminHTTP{Svc: svc},
		DashboardHandler: &httpserver.DashboardHTTP{Svc: svc},
		Gate: &authmw.Gate{
			Routes:    table,
			Tokens:    issuer,
			Session:   carrier,
			LoginPath: cfg.LoginPath,
			APIPrefix: cfg.APIPrefix,
		},
		DB:     handle,
		Logger: logger,
	}
	if cfg.FederatedEnabled() {
		deps.OAuthHandler = &httpserver.OAuthHTTP{
			Svc:      svc,
			Provider: oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
			State:    oauth.NewStateStore(cfg.TokenSecret, cfg.Production()),
			Session:  carrier,
		}
	}
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = cfg.Production()
		csrfCfg.SessionCookie = carrier.CookieName
		csrfCfg.SkipPaths = []string{"/api/auth/login", "/api/auth/register", "/health"}
		deps.CSRF = &csrfCfg
	}

	e := httpserver.New(deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := handle.Close(); err != nil {
		logger.Error("db close error", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}
