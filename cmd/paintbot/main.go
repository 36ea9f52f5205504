package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/akoszegi/paintbot/internal/api"
	"github.com/akoszegi/paintbot/internal/bot"
	"github.com/akoszegi/paintbot/internal/cache"
	"github.com/akoszegi/paintbot/internal/config"
	"github.com/akoszegi/paintbot/internal/inference"
	"github.com/akoszegi/paintbot/internal/model"
	"github.com/akoszegi/paintbot/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	})))

	slog.Info("paintbot starting",
		"addr", cfg.Server.Address,
		"model", cfg.Inference.Model,
		"interval", cfg.Poll.Interval.String(),
		"redis", cfg.Redis.Enabled,
	)

	tg := telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.Token, cfg.Poll.Timeout)
	gen := inference.NewGateway(inference.NewClient(
		cfg.Inference.BaseURL,
		cfg.Inference.Token,
		cfg.Inference.Model,
		cfg.Inference.Timeout,
	))

	loop, err := bot.New(tg, gen, cfg.Poll.Interval, cfg.Poll.Backoff)
	if err != nil {
		log.Fatal(err)
	}

	var journal cache.DeliveryJournal
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		j := cache.NewRedisJournal(rdb, cfg.Redis.TTL)
		journal = j

		loop.WithHooks(func(ctx context.Context, rec model.DeliveryRecord) {
			if err := j.Record(ctx, rec); err != nil {
				slog.Warn("journal write failed", "error", err)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := api.NewHandler(loop, journal)
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(handler)),
	}

	go func() {
		slog.Info("admin server listening", "addr", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin server failed", "error", err)
		}
	}()

	loop.Start()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		loop.Stop()
	case <-loop.Done():
		if err := loop.Err(); err != nil {
			shutdown(srv)
			log.Fatal(err)
		}
	}

	shutdown(srv)
	slog.Info("paintbot stopped")
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("admin server shutdown failed", "error", err)
	}
}

func logLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}
