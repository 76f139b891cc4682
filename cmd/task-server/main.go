package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // алиас, чтобы не конфликтовать с internal/middleware
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/config"
	"taskboard/internal/middleware"
	"taskboard/internal/taskstore"
)

// Здесь только:
// - чтение конфигурации;
// - создание зависимостей;
// - настройка middleware;
// - запуск HTTP-сервера.
func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("storage init failed")
	}
	defer closeBackend()

	svc, err := taskstore.NewService(ctx, backend)
	if err != nil {
		log.WithError(err).Fatal("failed to load tasks")
	}

	handler := taskstore.NewHandler(svc, taskstore.Config{
		RequestTimeout: cfg.RequestTimeout,
		AdminUser:      cfg.AdminUser,
		AdminPassword:  cfg.AdminPassword,
		Logger:         log.StandardLogger(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           chiWithMiddleware(handler.Router(), cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(log.Fields{"addr": srv.Addr, "redis": cfg.RedisURL != ""}).Info("task server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server start error")
	}
}

// newBackend выбирает хранилище: Redis, если задан REDIS_URL, иначе JSON-файл.
func newBackend(ctx context.Context, cfg config.Server) (taskstore.Backend, func(), error) {
	if cfg.RedisURL == "" {
		log.WithField("file", cfg.DBFile).Info("using file storage")
		return taskstore.NewFileStore(cfg.DBFile), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	log.WithField("addr", opts.Addr).Info("using redis storage")
	return taskstore.NewRedisStore(client, taskstore.DefaultRedisKey), func() { _ = client.Close() }, nil
}

// chiWithMiddleware навешивает общесервисные middleware на уже собранный роутер.
func chiWithMiddleware(h http.Handler, cfg config.Server) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.LoggingMiddleware(log.StandardLogger()))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.Mount("/", h)
	return r
}
