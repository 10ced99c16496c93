package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	configloader "github.com/sunny-bot/sunny/external/config"
	"github.com/sunny-bot/sunny/external/discord"
	repositoryimpl "github.com/sunny-bot/sunny/external/repository"
	webhookimpl "github.com/sunny-bot/sunny/external/webhook"
	"github.com/sunny-bot/sunny/internal/config"
	discordpkg "github.com/sunny-bot/sunny/internal/discord"
	"github.com/sunny-bot/sunny/internal/session"
)

const (
	discordConnectTimeout = 20 * time.Second
	shutdownTimeout       = 30 * time.Second
	orphanCleanupTimeout  = 10 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "prefix", cfg.CommandPrefix, "history_enabled", cfg.HistoryEnabled())

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching discord bot")
	runBot(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func runBot(injector do.Injector) {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		os.Exit(1)
	}
	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve session manager", "error", err)
		os.Exit(1)
	}
	router, err := do.Invoke[*session.Router](injector)
	if err != nil {
		slog.Error("failed to resolve event router", "error", err)
		os.Exit(1)
	}

	cleanupCtx, cancelCleanup := context.WithTimeout(context.Background(), orphanCleanupTimeout)
	if err := manager.CloseOrphanSessions(cleanupCtx); err != nil {
		slog.Error("failed to close orphan sessions", "error", err)
	}
	cancelCleanup()

	dc.RegisterReadyHandler(func(ev discordpkg.ReadyEvent) {
		router.OnReady(context.Background(), ev)
	})
	dc.RegisterVoiceStateUpdateHandler(func(ev discordpkg.VoiceStateEvent) {
		router.OnVoiceStateUpdate(context.Background(), ev)
	})
	dc.RegisterMessageHandler(manager.HandleMessage)
	slog.Info("discord handlers registered", "events", []string{"ready", "voice_state_update", "message_create"})

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: discord connected")
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	n := manager.Shutdown(shutdownCtx)
	slog.Info("voice sessions stopped; history closed", "count", n)
}
