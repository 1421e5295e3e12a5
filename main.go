// Command prodscout is the main entrypoint for the producer-credit chat bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Joins Twitch chat and serves the metered !album lookup command.
//   - Keeps the bot's chat OAuth token refreshed in the background.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics,
//     and /results/{id} for tables too large for chat delivery.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	twitchendpoint "golang.org/x/oauth2/twitch"

	"github.com/onnwee/prodscout/chat"
	"github.com/onnwee/prodscout/config"
	"github.com/onnwee/prodscout/db"
	"github.com/onnwee/prodscout/geniusapi"
	"github.com/onnwee/prodscout/ledger"
	"github.com/onnwee/prodscout/oauth"
	"github.com/onnwee/prodscout/pipeline"
	"github.com/onnwee/prodscout/results"
	"github.com/onnwee/prodscout/server"
	"github.com/onnwee/prodscout/telemetry"
	"github.com/onnwee/prodscout/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config: missing credentials are startup-fatal, not runtime surprises.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("prodscout", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// DB
	database, err := db.Connect(cfg.DBDsn, cfg.DBRootCA)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx, database); err != nil {
		cancelMigrate()
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}
	cancelMigrate()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed the stored chat token row from env so the refresher has something to
	// work with; validation failure is non-fatal (the IRC connect will tell us).
	seedCtx, cancelSeed := context.WithTimeout(ctx, 8*time.Second)
	tok := strings.TrimPrefix(cfg.TwitchOAuthToken, "oauth:")
	if vr, err := twitchapi.ValidateToken(seedCtx, nil, "", tok); err != nil {
		slog.Warn("twitch token validate failed", slog.Any("err", err))
	} else {
		exp := twitchapi.ComputeExpiry(vr.ExpiresIn)
		if err := db.UpsertOAuthToken(ctx, database, "twitch", tok, os.Getenv("TWITCH_REFRESH_TOKEN"), exp, strings.Join(vr.Scopes, " ")); err != nil {
			slog.Warn("twitch token persist failed", slog.Any("err", err))
		}
	}
	cancelSeed()

	// Centralized OAuth token refresher for the chat token. Needs client
	// credentials plus a stored refresh token; absent either, the loop idles.
	if cfg.TwitchClientID != "" && cfg.TwitchClientSecret != "" {
		oauth.StartRefresher(ctx, database, "twitch", 5*time.Minute, 15*time.Minute, func(rctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
			oc := &oauth2.Config{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret, Endpoint: twitchendpoint.Endpoint}
			newTok, err := oc.TokenSource(rctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
			if err != nil {
				return "", "", time.Time{}, "", err
			}
			return newTok.AccessToken, newTok.RefreshToken, newTok.Expiry, "", nil
		})
	} else {
		slog.Info("token refresher disabled (missing twitch client id/secret)")
	}

	// Wire the core: ledger over Postgres, pipeline over the Genius client.
	lg := ledger.New(ledger.NewPGStore(database))
	genius := geniusapi.NewClient(cfg.GeniusToken)
	pipe := pipeline.New(genius, cfg.PaceMin, cfg.PaceMax)
	res := results.NewStore(cfg.DataDir)

	bot := chat.NewBot(cfg, lg, pipe, res)
	go func() {
		if err := bot.Run(ctx); err != nil {
			slog.Error("chat bot exited with error", slog.Any("err", err))
			stop()
		}
	}()

	// HTTP server (health/status/metrics/results)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, database, res, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
