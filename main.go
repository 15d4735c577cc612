package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/handlers"
	"github.com/guestpost/guestpost/backend/go-services/internal/config"
	"github.com/guestpost/guestpost/backend/go-services/internal/database"
	"github.com/guestpost/guestpost/backend/go-services/internal/intake"
	"github.com/guestpost/guestpost/backend/go-services/internal/mail"
	"github.com/guestpost/guestpost/backend/go-services/internal/media"
	"github.com/guestpost/guestpost/backend/go-services/internal/moderation"
	"github.com/guestpost/guestpost/backend/go-services/internal/notify"
	"github.com/guestpost/guestpost/backend/go-services/internal/oidc"
	"github.com/guestpost/guestpost/backend/go-services/internal/ratelimit"
	"github.com/guestpost/guestpost/backend/go-services/internal/sessions"
	"github.com/guestpost/guestpost/backend/go-services/internal/settings"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/internal/users"
	"github.com/guestpost/guestpost/backend/go-services/pkg/logger"
	"github.com/guestpost/guestpost/backend/go-services/pkg/metrics"
	"github.com/guestpost/guestpost/backend/go-services/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Environment == "production" || os.Getenv("LOG_FORMAT") == "json" {
		logger.SetFormat("json")
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: store=%s mail=%s keycloak=%v redis=%v minio=%v",
		cfg.Store.Driver, cfg.Mail.Driver, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = stores.Close() }()

	// Redis is optional: counters and sessions fall back to memory
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			rdb = client
			defer func() { _ = rdb.Close() }()
		}
	}

	var counters ratelimit.CounterStore = ratelimit.NewMemoryStore()
	if rdb != nil {
		counters = ratelimit.NewRedisStore(rdb)
	}
	limiter := ratelimit.NewLimiter(counters, cfg.RateLimit.KeyPrefix, cfg.RateLimit.SubmissionWindow)

	var objects media.Store = media.NewMemoryStore()
	if cfg.MinIO.Endpoint != "" {
		ms, err := media.NewMinIOStore(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("MinIO unavailable, keeping featured images in memory: %v", err)
		} else {
			objects = ms
		}
	}
	images := media.NewImages(objects)

	transport, err := mail.New(ctx, cfg.Mail)
	if err != nil {
		logger.Fatalf("failed to build mail transport: %v", err)
	}

	settingsSvc := settings.NewService(stores.Settings, cfg.Site.Categories, cfg.Site.DefaultCategory)
	if err := settingsSvc.EnsureDefaults(ctx); err != nil {
		logger.Warnf("could not seed default settings: %v", err)
	}

	nonces := tokens.NewNonceIssuer(cfg.Secrets.Nonce, cfg.Secrets.NonceTTL)
	links := notify.NewLinkBuilder(cfg.Site.URL, cfg.Site.AdminURL, cfg.Secrets.ActionToken)
	notifier := notify.New(transport, links, cfg.Site.Name, cfg.Site.AdminEmail)
	intakeSvc := intake.NewService(stores.Submissions, limiter, nonces, images, notifier)
	machine := moderation.NewMachine(stores.Submissions, notifier)

	// refresh sessions: Redis, then Mongo, then memory
	var sessionRepo sessions.Repository = stores.Sessions
	switch {
	case rdb != nil:
		sessionRepo = sessions.NewRedisRepository(rdb, "guestpost:session:")
		logger.Infof("using Redis for session storage")
	case sessionRepo == nil:
		sessionRepo = sessions.NewMemoryRepository()
		logger.Warnf("using in-memory session storage")
	}
	sessionsSvc := sessions.NewService(sessionRepo, cfg.JWT.RefreshTokenTTL)
	usersSvc := users.NewService(stores.Users)
	blacklist := sessions.NewBlacklist(rdb, "")

	// ID token verifier for admin sign-in
	var idVerifier middleware.Verifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" && cfg.Keycloak.Realm != "" {
		ver, err := oidc.NewVerifier(ctx, oidc.IssuerURL(cfg.Keycloak.URL, cfg.Keycloak.Realm), cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			idVerifier = ver
		}
	}
	if idVerifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		idVerifier = oidc.NewInsecureVerifier()
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when the store answers and any configured Redis is reachable
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{}
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["store"] = stores.Ping(pctx) == nil
		if cfg.Redis.Host != "" {
			deps["redis"] = rdb != nil && rdb.Ping(pctx).Err() == nil
		}
		deps["oidc"] = cfg.Keycloak.URL == "" || idVerifier != nil
		ready := true
		for _, ok := range deps {
			ready = ready && ok
		}
		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	accessVerifier := tokens.NewAccessVerifier(cfg.JWT.Secret)
	requireAuth := middleware.AuthMiddleware(accessVerifier, blacklist)
	optionalAuth := middleware.OptionalAuth(accessVerifier, blacklist)

	handlers.NewSubmissionHandler(intakeSvc, settingsSvc, nonces, stores.Submissions, images, cfg.Site.Name).Register(r)
	handlers.NewModerationHandler(
		moderation.NewSessionStrategy(nonces),
		moderation.NewTokenStrategy(stores.Submissions, cfg.Secrets.ActionToken),
		machine, links, nonces, stores.Submissions,
	).Register(r, optionalAuth, requireAuth)
	handlers.NewSettingsHandler(settingsSvc).Register(r, requireAuth)

	if idVerifier != nil {
		exchanger := oidc.NewKeycloakClient(cfg.Keycloak.URL, cfg.Keycloak.Realm, cfg.Keycloak.ClientID, cfg.Keycloak.ClientSecret)
		handlers.NewAuthHandler(cfg, usersSvc, sessionsSvc, exchanger, idVerifier, blacklist).Register(r)
	} else {
		logger.Warnf("auth handlers not registered because no ID token verifier is configured")
	}
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting guest post service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		allowAll = allowAll || o == "*"
	}
	if allowAll {
		conf.AllowAllOrigins = true
		return cors.New(conf)
	}
	conf.AllowOrigins = origins
	conf.AllowCredentials = true
	return cors.New(conf)
}
