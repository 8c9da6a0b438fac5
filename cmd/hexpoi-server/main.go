package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mapviz/hexpoi/internal/api"
	"github.com/mapviz/hexpoi/internal/cache"
	"github.com/mapviz/hexpoi/internal/cache/memstore"
	"github.com/mapviz/hexpoi/internal/cache/redisstore"
	"github.com/mapviz/hexpoi/internal/core/config"
	"github.com/mapviz/hexpoi/internal/core/httpclient"
	"github.com/mapviz/hexpoi/internal/core/observability"
	"github.com/mapviz/hexpoi/internal/core/server"
	"github.com/mapviz/hexpoi/internal/geocode"
	"github.com/mapviz/hexpoi/internal/invalidation/kafkaconsumer"
	"github.com/mapviz/hexpoi/internal/logger"
	"github.com/mapviz/hexpoi/internal/overpass"
	"github.com/mapviz/hexpoi/internal/poi"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "hexpoi",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting hexpoi",
		"addr", cfg.Addr,
		"version", Version,
		"nominatim", cfg.NominatimURL,
		"overpass", cfg.OverpassURL,
		"cache_backend", cfg.CacheBackend,
		"h3_res", cfg.H3Res)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store cache.Interface
	switch cfg.CacheBackend {
	case "redis":
		rc, err := redisstore.New(ctx, cfg.RedisAddr, cfg.CacheOpTimeout)
		if err != nil {
			appLog.Error("redis cache init failed", "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		store = rc
	case "none":
		store = cache.Nop{}
	default:
		store = memstore.New(cfg.MemCacheSize)
	}

	httpClient := httpclient.NewOutbound(cfg.UserAgent)

	resolver := geocode.NewNominatim(cfg.NominatimURL, httpClient, store, cfg.CacheTTL, appLog)
	source := overpass.NewClient(cfg.OverpassURL, httpClient, store, cfg.CacheTTL, appLog)
	pipeline := poi.NewPipeline(source, cfg.H3Res, cfg.MaxElements, appLog)

	handler := api.New(appLog, resolver, pipeline, poi.DefaultCategories, cfg.RenderZoom)

	if cfg.Invalidation.Enabled {
		ccfg := kafkaconsumer.DefaultConfig(
			splitCSV(cfg.Invalidation.Brokers),
			cfg.Invalidation.Topic,
			cfg.Invalidation.GroupID,
		)
		consumer := kafkaconsumer.New(ccfg, appLog, store)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, handler, store); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
