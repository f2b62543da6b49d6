package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soley-bot/acadex-sub007/internal/auth"
	"github.com/soley-bot/acadex-sub007/internal/config"
	"github.com/soley-bot/acadex-sub007/internal/controlplane"
	"github.com/soley-bot/acadex-sub007/internal/gate"
	"github.com/soley-bot/acadex-sub007/internal/listener"
	"github.com/soley-bot/acadex-sub007/internal/observability"
	"github.com/soley-bot/acadex-sub007/internal/ratelimit"
	"github.com/soley-bot/acadex-sub007/internal/upstream"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("ACADEX_GATE_CONFIG"), "Path to config file (yaml)")
	flag.Parse()

	if configPath == "" {
		configPath = "./deploy/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Infow("starting acadex gate",
		"http_addr", cfg.Server.HTTPAddr,
		"admin_addr", cfg.Server.AdminAddr,
		"environment", cfg.Environment,
	)

	metrics := observability.NewMetrics()

	store, err := buildStore(cfg)
	if err != nil {
		logger.Fatalw("failed to init rate limit store", "err", err)
	}
	sweepEvery := cfg.RateLimit.SweepEvery()
	if cfg.RateLimit.Store == "redis" {
		sweepEvery = 0 // redis expires windows natively
	}
	limiter := ratelimit.New(store, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window(), sweepEvery, logger)
	defer limiter.Stop()

	resolver, err := buildResolver(cfg)
	if err != nil {
		logger.Fatalw("failed to init auth resolver", "err", err)
	}

	upstreamMgr, err := upstream.NewManager(cfg.Upstreams)
	if err != nil {
		logger.Fatalw("failed to init upstream manager", "err", err)
	}
	proxy := upstream.NewProxy(upstreamMgr, cfg.AppUpstream, cfg.APIUpstream, cfg.Gate.APIPrefix, metrics, logger)

	headers := gate.NewHeaderPolicy(cfg.CORS, cfg.IsProduction())
	g := gate.New(cfg.Gate, limiter, resolver, headers, metrics, logger)
	handler := gate.AccessLog(logger, g.Middleware(proxy))

	dataSrv := listener.NewServer(cfg.Server.HTTPAddr, handler, logger)
	adminSrv := &http.Server{
		Addr:              cfg.Server.AdminAddr,
		Handler:           controlplane.NewRouter(metrics, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infow("admin server listening", "addr", cfg.Server.AdminAddr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("admin server error", "err", err)
		}
	}()

	go func() {
		if err := dataSrv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("data server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = dataSrv.Shutdown(ctx)
	_ = adminSrv.Shutdown(ctx)
}

func buildStore(cfg *config.Config) (ratelimit.Store, error) {
	if cfg.RateLimit.Store == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return ratelimit.NewRedisStore(client), nil
	}
	return ratelimit.NewMemoryStore(), nil
}

func buildResolver(cfg *config.Config) (*auth.CachedResolver, error) {
	pem := cfg.Auth.PublicKeyPEM
	if pem == "" && cfg.Auth.PublicKeyFile != "" {
		data, err := os.ReadFile(cfg.Auth.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		pem = string(data)
	}
	session, err := auth.NewSessionResolver(cfg.Auth.CookieName, cfg.Auth.IdentityURL, pem, cfg.Auth.Timeout())
	if err != nil {
		return nil, err
	}
	roles := auth.NewRoleFunc(cfg.Auth.AdminDomains, cfg.Auth.AdminEmails)
	cache := auth.NewCache(cfg.Auth.CacheTTL(), cfg.Auth.CacheMaxEntries)
	return auth.NewCachedResolver(session, roles, cache), nil
}
