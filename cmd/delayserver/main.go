package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"flightdelay/internal/analytics"
	"flightdelay/internal/cfg"
	"flightdelay/internal/metrics"
	"flightdelay/internal/ml"
	"flightdelay/internal/server"
	"flightdelay/internal/storage"
)

func main() {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	startMetricsServer(ctx, c)

	resolver := ml.NewResolver(ml.ResolverConfig{
		ArtifactPath:  c.ArtifactPath,
		RemoteURL:     c.RemoteArtifactURL,
		DisableRemote: c.DisableRemoteFetch,
		UseStub:       c.UseStubModel,
		FetchTimeout:  c.RESTTimeout,
	}, ml.NewArtifactStore(), mw)

	// Warm up model resolution so the first request does not pay for it. A
	// failure here is not fatal: resolution retries on each request and the
	// stand-in tier keeps the API answering.
	if _, err := resolver.Resolve(ctx); err != nil {
		log.Warn().Err(err).Msg("model warm-up failed, will retry per request")
	}

	predictor := ml.NewPredictor(resolver, mw)

	dispatcher := initializeDispatcher(c, store, mw)
	if dispatcher != nil {
		defer dispatcher.Close()
	}

	hub := server.NewHub()
	defer hub.Close()

	api := server.New(predictor, dispatcher, hub, c.APIPort)
	go func() {
		if err := api.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			m.ErrorsTotal.Inc()
			cancel()
		}
	}()

	waitForShutdown(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

// initializeStorage opens the local prediction store when DATA_PATH is set.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// initializeDispatcher assembles the analytics sinks prediction logging was
// configured with. Returns nil when logging is disabled or no sink is usable.
func initializeDispatcher(c cfg.Settings, store *storage.Store, mw *metrics.Wrapper) *analytics.Dispatcher {
	if !c.LoggingEnabled {
		return nil
	}

	var sinks []analytics.Sink
	if c.WarehouseURL != "" {
		sinks = append(sinks, analytics.NewWarehouseSink(c.WarehouseURL, c.RESTTimeout))
	}
	if store != nil {
		sinks = append(sinks, analytics.NewStoreSink(store))
	}
	if len(sinks) == 0 {
		log.Warn().Msg("prediction logging enabled but no sink available")
		return nil
	}

	return analytics.NewDispatcher(sinks, 0, mw)
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("OK")); err != nil {
				log.Error().Err(err).Msg("health write failed")
			}
		})
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a shutdown signal arrives or the context ends.
func waitForShutdown(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}
}
