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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nubster/flaps/internal/api"
	"github.com/nubster/flaps/internal/cache"
	"github.com/nubster/flaps/internal/config"
	"github.com/nubster/flaps/internal/snapshot"
	"github.com/nubster/flaps/internal/store"
	"github.com/nubster/flaps/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	telemetry.Init()

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	if cfg.CacheEnabled() {
		flagCache := cache.New(cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if !flagCache.Healthy(ctx) {
			log.Printf("cache: redis at %s not responding, continuing without it", cfg.RedisAddr)
			_ = flagCache.Close()
		} else {
			st = store.NewCachedStore(st, flagCache, cfg.Environment)
			log.Printf("cache: redis at %s, ttl=%s", cfg.RedisAddr, cfg.CacheTTL)
		}
	}
	defer st.Close()

	registry := snapshot.NewRegistry()
	apiServer := api.NewServer(st, registry, cfg.Environment, cfg.AdminAPIKey)

	// initial snapshot
	if err := apiServer.RebuildSnapshot(ctx); err != nil {
		log.Fatalf("initial snapshot: %v", err)
	}
	snap := registry.Load()
	log.Printf("snapshot: %d flags, %d segments, etag=%s", len(snap.Flags), len(snap.Segments), snap.ETag)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("listening on %s (env=%s, store=%s)", cfg.HTTPAddr, cfg.Environment, cfg.StoreType)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Printf("metrics on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Println("stopped")
}
