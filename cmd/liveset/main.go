package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/config"
	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/presence"
	"github.com/claude/liveset/internal/server"
	"github.com/claude/liveset/internal/statecache"
	"github.com/claude/liveset/internal/timer"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiveSet starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open snapshot cache
	cache, err := statecache.Open(cfg.Cache.Dir)
	if err != nil {
		log.Error("failed to open snapshot cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	// Wire the engine
	api := coachapi.NewClient(cfg.Coach.BaseURL, cfg.Coach.APIKey, cfg.Coach.Timeout())
	tc := timer.New(log)
	defer tc.Close()
	eng := engine.New(api, tc, cache, log)

	// First fetch; fall back to the cached snapshot if the backend is down.
	ctx := context.Background()
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Coach.Timeout())
	if err := eng.Load(loadCtx); err != nil {
		log.Warn("initial session fetch failed, trying cache", "error", err)
		if cached, cerr := cache.Load(); cerr == nil && cached != nil {
			eng.Restore(cached)
			log.Info("restored cached session", "session_id", cached.ID)
		}
	}
	cancel()

	// Presence bridge
	presenceCtx, stopPresence := context.WithCancel(ctx)
	defer stopPresence()
	bridge := presence.New(eng, tc.RestFinished(), &presence.LogSink{Log: log}, log)
	go bridge.Run(presenceCtx)

	// Create server
	srv := server.New(eng, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	stopPresence()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
