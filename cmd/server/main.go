package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tlc-community/cu1-survey/internal/api"
	"github.com/tlc-community/cu1-survey/internal/config"
	"github.com/tlc-community/cu1-survey/internal/db"
	"github.com/tlc-community/cu1-survey/internal/logger"
	"github.com/tlc-community/cu1-survey/internal/middleware"
	"github.com/tlc-community/cu1-survey/internal/services"
)

func main() {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("opening database")
	}
	defer store.Close()

	filter := services.NewContentFilter()
	limiter := services.NewRateLimiter(store, cfg.SubmitLimit, cfg.SubmitWindow, cfg.RateFailOpen)
	pipeline := services.NewIngestionPipeline(limiter, services.NewValidator(), services.NewSanitizer(filter), store)
	stats := services.NewAggregationService(store)
	reports := services.NewReportService(store)
	exports := services.NewExportService(store)

	signer := middleware.NewSigner(cfg.JWTSecret)
	auth := services.NewAuthService(cfg.AdminPasswordHash, signer.Sign, filter)

	throttle := middleware.NewThrottle(cfg.HardLimitCount, cfg.HardLimitWindow, cfg.TrustProxy)

	mux := http.NewServeMux()
	router := api.NewRouter(pipeline, stats, reports, exports, auth, cfg.TrustProxy, cfg.MaxBodySize)
	router.Register(mux, throttle.Wrap)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	var handler http.Handler = signer.WithAuth(mux)
	handler = middleware.CORS(handler)
	handler = middleware.SecureHeaders(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.RequestLogging(cfg.TrustProxy, handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expired rate counters are also dropped lazily on read; this sweep just
	// keeps the table from accumulating rows for one-off visitors.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := store.SweepExpiredCounters(ctx); err != nil {
					log.Warn().Err(err).Msg("sweeping expired rate counters")
				} else if n > 0 {
					log.Debug().Int64("removed", n).Msg("swept expired rate counters")
				}
			}
		}
	}()

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
