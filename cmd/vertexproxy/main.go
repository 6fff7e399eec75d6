// Package main is the entry point for the vertexproxy gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/howard-nolan/vertexproxy/internal/auth"
	"github.com/howard-nolan/vertexproxy/internal/config"
	"github.com/howard-nolan/vertexproxy/internal/dispatch"
	"github.com/howard-nolan/vertexproxy/internal/observability"
	"github.com/howard-nolan/vertexproxy/internal/region"
	"github.com/howard-nolan/vertexproxy/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the proxy's YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if err == config.ErrMissingProjectID {
			log.Fatalf("config: %v", err)
		}
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, err := buildDiscoveryCache(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build region discovery cache: %v", err)
	}
	planner := region.NewPlanner(cache)

	bridge := auth.NewDefaultBridge()

	client := &http.Client{Timeout: cfg.Server.RequestTimeout}
	dispatcher := dispatch.New(cfg, planner, bridge, client, nil)

	recorder, err := observability.New(cfg.Log.Path, cfg.Log.StatsPath, cfg.Log.MaxSizeBytes, cfg.Server.Port)
	if err != nil {
		log.Fatalf("failed to start observability recorder: %v", err)
	}

	srv := server.New(cfg, dispatcher, recorder)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("vertexproxy listening on :%d (project %s)", cfg.Server.Port, cfg.ProjectID)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// buildDiscoveryCache selects the region.Cache backend from
// DiscoveryCacheConfig.Backend ("", "file", or "redis"). An empty
// backend means no discovery cache: the Planner falls back to each
// model's catalog region list.
func buildDiscoveryCache(ctx context.Context, cfg *config.Config) (region.Cache, error) {
	switch cfg.DiscoveryCache.Backend {
	case "":
		return nil, nil
	case "file":
		return region.NewFileCache(ctx, cfg.DiscoveryCache.Path)
	case "redis":
		interval := cfg.DiscoveryCache.PollInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		return region.NewRedisCache(ctx, cfg.DiscoveryCache.RedisAddr, cfg.DiscoveryCache.RedisKey, interval), nil
	default:
		return nil, fmt.Errorf("unknown discovery_cache.backend %q", cfg.DiscoveryCache.Backend)
	}
}
