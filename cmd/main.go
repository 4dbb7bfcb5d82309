/*
Package main is the entry point for the roomchat server.

It is responsible for loading configuration, initializing the global logging system,
binding the chat listener, serving the ops HTTP surface, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) so sessions are told and flushed before exit.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"golang.org/x/time/rate"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/tcp"
	"roomchat/internal/configs"
	"roomchat/internal/handler"
	"roomchat/internal/pkg/limiter"
	"roomchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("http_port", cfg.HTTPPort).
		Str("default_room", cfg.DefaultRoom).
		Int("max_connections", cfg.MaxConnections).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	var connLimiter *limiter.IPRateLimiter
	if cfg.ConnectRate > 0 {
		connLimiter = limiter.NewIPRateLimiter(limiterCtx, rate.Limit(cfg.ConnectRate), cfg.ConnectBurst)
	}

	// Initialize Chat Manager
	manager := chat.NewManager(cfg)

	// Bind the chat listener; failing to bind is fatal.
	chatServer := tcp.NewServer(fmt.Sprintf(":%d", cfg.Port), manager, connLimiter, cfg)
	if err := chatServer.Listen(); err != nil {
		logx.Fatal(err, "Chat listener failed to start", "port", cfg.Port)
	}

	go func() {
		if err := chatServer.Serve(); err != nil {
			logx.Fatal(err, "Chat listener stopped unexpectedly")
		}
	}()

	var httpServer *http.Server
	if cfg.HTTPPort > 0 {
		deps := &handler.AppDeps{
			Manager:     manager,
			Config:      cfg,
			ConnLimiter: connLimiter,
		}

		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           handler.Router(deps),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		go func() {
			logx.Info("Ops HTTP server starting", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Fatal(err, "Ops HTTP server failed to start")
			}
		}()
	}

	logx.Info("Chat server ready", "addr", chatServer.Addr().String())

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownGrace,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				if httpServer == nil {
					return nil
				}
				return httpServer.Shutdown(ctx)
			},
			// The listener stops before sessions are told, so nobody connects mid-shutdown.
			"chat": func(ctx context.Context) error {
				if err := chatServer.Shutdown(ctx); err != nil {
					logx.Error(err, "Chat listener shutdown error")
				}
				return manager.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	stopLimiter()
	logx.Info("Server stopped.", "exit_code", exitCode)
	os.Exit(exitCode)
}
