// Command kanade is the main entry point for the kanade read-aloud bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kanade-bot/kanade/internal/bot"
	"github.com/kanade-bot/kanade/internal/bot/commands"
	"github.com/kanade-bot/kanade/internal/config"
	"github.com/kanade-bot/kanade/internal/dispatch"
	"github.com/kanade-bot/kanade/internal/health"
	"github.com/kanade-bot/kanade/internal/observe"
	"github.com/kanade-bot/kanade/internal/session"
	"github.com/kanade-bot/kanade/internal/store"
	"github.com/kanade-bot/kanade/internal/timesignal"
	"github.com/kanade-bot/kanade/internal/voice"
	"github.com/kanade-bot/kanade/pkg/voicevox"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// warmUpDelay gives the VOICEVOX engine a moment to finish booting before
// the first synthesis request hits it.
const warmUpDelay = 3 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "kanade: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "kanade: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("kanade starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	metrics := observe.DefaultMetrics()

	// ── Storage ───────────────────────────────────────────────────────────────
	db, err := store.NewPostgres(ctx, cfg.Postgres.DSN)
	if err != nil {
		slog.Error("failed to connect to postgres", "err", err)
		return 1
	}
	defer db.Close()

	// ── Speech engine ─────────────────────────────────────────────────────────
	vvClient := voicevox.New(cfg.Voicevox.APIBase, voicevox.WithTimeout(cfg.Voicevox.Timeout))
	engine := voicevox.NewEngine(vvClient, cfg.Voicevox.SpeedScale)

	// ── Guild state ───────────────────────────────────────────────────────────
	sessions := session.NewStore()
	settings := session.NewSettings()
	announce := session.NewAnnounceStore()

	// ── Dispatch pipeline ─────────────────────────────────────────────────────
	// Session-bound collaborators (caller, presence, names, prefix router) are
	// wired after the bot exists; the gateway opens in Run, after all wiring.
	dispatcher := &dispatch.Dispatcher{
		Sessions: sessions,
		Settings: settings,
		Speech:   engine,
		Voices:   voice.NewResolver(engine, db),
		Dict:     db,
		Metrics:  metrics,
		Log:      logger,
	}

	// ── Discord bot ───────────────────────────────────────────────────────────
	b, err := bot.New(ctx, bot.Options{
		Token:      cfg.Discord.Token,
		Dispatcher: dispatcher,
		Sessions:   sessions,
		Settings:   settings,
		Metrics:    metrics,
		Log:        logger,
	})
	if err != nil {
		slog.Error("failed to create discord bot", "err", err)
		return 1
	}

	dispatcher.Caller = b.Caller()
	dispatcher.Presence = b.State()
	dispatcher.Names = b.State()

	actions := &commands.Actions{
		Sessions: sessions,
		Settings: settings,
		Announce: announce,
		Caller:   b.Caller(),
		Dict:     db,
		Prefs:    db,
		Speech:   engine,
		Presence: b.State(),
		Metrics:  metrics,
		Log:      logger,
	}
	commands.NewSlash(actions).Register(b.Router())
	dispatcher.Prefix = &commands.Prefix{
		Actions: actions,
		Replier: bot.NewChannelReplier(b.Session()),
		Log:     logger,
	}

	// ── HTTP: health + metrics ────────────────────────────────────────────────
	mux := http.NewServeMux()
	health.New(health.SpeechEngine(vvClient), health.Database(db)).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	httpSrv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "err", err)
		}
	}()

	// ── Engine warm-up ────────────────────────────────────────────────────────
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(warmUpDelay):
		}
		if err := engine.WarmUp(ctx); err != nil {
			slog.Warn("engine warm-up failed", "err", err)
		}
	}()

	// ── Hourly time signal ────────────────────────────────────────────────────
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Server.Timezone, "err", err)
		return 1
	}
	scheduler := &timesignal.Scheduler{
		Sessions: sessions,
		Announce: announce,
		Caller:   b.Caller(),
		Presence: b.State(),
		Notifier: bot.NewNotifier(b.Session()),
		Loc:      loc,
		Metrics:  metrics,
		Log:      logger,
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("time signal scheduler error", "err", err)
		}
	}()

	slog.Info("bot ready — press Ctrl+C to shut down")

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := b.Close(); err != nil {
		slog.Warn("discord bot close error", "err", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown error", "err", err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		slog.Warn("metrics shutdown error", "err", err)
	}

	slog.Info("goodbye")
	return 0
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
