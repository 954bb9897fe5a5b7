package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"golang.org/x/sync/errgroup"

	"pointbid/internal/config"
	"pointbid/internal/database"
	"pointbid/internal/logger"
	"pointbid/internal/server"
	"pointbid/internal/session"
	"pointbid/internal/work"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := logger.OpenOutput(cfg.LogFile)
	defer out.Close()
	log := logger.NewZerologLogger(out, "pointbid", logger.ParseLevel(cfg.LogLevel))

	opts := []session.Option{session.WithLogger(log.With(logger.F("component", "session")))}
	var stats server.StatsSource
	if cfg.HistoryDB != "" {
		store, err := database.NewStore(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history %s: %w", cfg.HistoryDB, err)
		}
		defer store.Close()
		opts = append(opts, session.WithRecorder(store))
		stats = store
		log.Info("recording game history", logger.F("path", cfg.HistoryDB))
	}

	loop := work.NewLoop(cfg.LoopQueueSize, log.With(logger.F("component", "loop")))
	manager := session.NewManager(opts...)
	registry := server.NewRegistry(manager, log.With(logger.F("component", "registry")))
	h := server.NewHandler(loop, registry, stats, server.TransportConfig{
		WriteTimeout:  cfg.WriteTimeout,
		PingInterval:  cfg.PingInterval,
		ReadLimit:     cfg.ReadLimit,
		SendQueueSize: cfg.SendQueueSize,
	}, log.With(logger.F("component", "transport")))

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, h.HandleWS)
	mux.HandleFunc("/session", h.HandleSession)
	mux.HandleFunc("/stats", h.HandleStats)
	mux.HandleFunc("/healthz", h.HandleHealth)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(out, mux)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// stopped explicitly once connections are closed
		return loop.Run(context.Background())
	})
	g.Go(func() error {
		log.Info("server started", logger.F("addr", srv.Addr), logger.F("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := h.CloseAll(sctx); err != nil {
			log.Warn("close connections", logger.F("error", err.Error()))
		}
		err := srv.Shutdown(sctx)
		loop.Stop()
		if rerr := manager.WaitRecords(); rerr != nil {
			log.Warn("game history incomplete", logger.F("error", rerr.Error()))
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
