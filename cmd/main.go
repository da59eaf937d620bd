package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mediagrab/internal/api"
	"mediagrab/internal/config"
	fileutil "mediagrab/internal/file"
	"mediagrab/internal/job"
	"mediagrab/internal/sweeper"
	"mediagrab/internal/ytdlp"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load("config.yml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := fileutil.EnsureDir(cfg.DownloadDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DownloadDir).Msg("ensure download dir")
	}

	media := ytdlp.New(cfg.YtdlpPath)
	if err := media.CheckBinary(); err != nil {
		log.Warn().Err(err).Msg("media resolver binary not found; downloads will fail until installed")
	}

	registry := job.NewRegistry()
	executor := job.NewExecutor(registry, media, job.Options{
		DownloadDir:       cfg.DownloadDir,
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
	})
	retention := sweeper.New(cfg.DownloadDir, cfg.RetentionAge)

	router := setupRouter()
	api.New(registry, executor, media, retention, cfg.ProgressInterval).RegisterRoutes(router)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	executor.SetBaseContext(baseCtx)
	go retention.Run(baseCtx, cfg.SweepInterval)

	const (
		readHeaderTimeout = 5 * time.Second
		shutdownTimeout   = 10 * time.Second
	)

	srv := newHTTPServer(cfg.Port, router, readHeaderTimeout)

	go func() {
		log.Info().Int("port", cfg.Port).Str("download_dir", cfg.DownloadDir).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal()

	gracefulShutdown(srv, baseCancel, executor, shutdownTimeout)
}

func setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(api.ZerologLogger())
	return r
}

func newHTTPServer(port int, handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, cancelBase context.CancelFunc, executor *job.Executor, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown warning")
	}

	cancelBase()
	done := executor.WaitAll(ctx)
	if !done {
		log.Warn().Msg("background workers did not finish before timeout")
	}
	log.Info().Msg("server exited cleanly")
}
