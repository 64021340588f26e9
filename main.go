// Command backend is the main entrypoint for the lowtierbot chat bot and API.
// It:
//   - Loads configuration and initializes structured logging.
//   - Opens the database (embedded SQLite by default, Postgres via DSN) and
//     runs idempotent migrations.
//   - Starts the word ledger flusher, the Twitch chat bot, and the OAuth
//     token refresher.
//   - Exposes an HTTP server with /healthz, /readyz, /status, /metrics, the
//     OAuth flow, and admin word-count maintenance endpoints.
//
// Shutdown is graceful on SIGINT/SIGTERM; buffered counts are flushed before
// exit.
package main

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/d-chen/lowtierbot/backend/chat"
	"github.com/d-chen/lowtierbot/backend/config"
	"github.com/d-chen/lowtierbot/backend/db"
	"github.com/d-chen/lowtierbot/backend/nowplaying"
	"github.com/d-chen/lowtierbot/backend/oauth"
	"github.com/d-chen/lowtierbot/backend/seen"
	"github.com/d-chen/lowtierbot/backend/server"
	"github.com/d-chen/lowtierbot/backend/telemetry"
	"github.com/d-chen/lowtierbot/backend/twitchapi"
	"github.com/d-chen/lowtierbot/backend/wordcount"
)

func main() {
	// Load .env file if present (local dev convenience; production uses real env)
	_ = godotenv.Load(".env")

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

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := telemetry.InitTracing("lowtierbot", "2.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()
	if err := db.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	// Stop words are optional; without them only length and spam filters apply.
	stops, err := wordcount.LoadStopWords(cfg.StopWordsPath)
	if err != nil {
		slog.Warn("stop words unavailable, continuing without", slog.String("path", cfg.StopWordsPath), slog.Any("err", err))
		stops = wordcount.StopWordSet{}
	} else {
		slog.Info("stop words loaded", slog.Int("count", len(stops)))
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger := wordcount.NewLedger(database)
	ledger.StartFlusher(ctx, cfg.FlushInterval)

	helix := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret},
		ClientID:       cfg.TwitchClientID,
	}
	np := nowplaying.New(cfg.NowPlayingFB2K, cfg.NowPlayingYouTube)
	bot := chat.NewBot(cfg, database, ledger, stops, seen.NewRecorder(database), np, helix)

	if err := cfg.ValidateChatReady(); err != nil {
		slog.Warn("chat disabled", slog.Any("err", err))
	} else {
		go func() {
			if err := bot.Run(ctx); err != nil {
				slog.Error("chat bot exited", slog.Any("err", err))
			}
		}()
	}

	// Keep the stored user token fresh so chat and stream markers keep working.
	oauth.StartRefresher(ctx, database, "twitch", 5*time.Minute, 15*time.Minute, func(rctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
		if cfg.TwitchClientID == "" {
			return "", "", time.Time{}, "", context.Canceled
		}
		oc := &oauth2.Config{
			ClientID:     cfg.TwitchClientID,
			ClientSecret: cfg.TwitchClientSecret,
			Endpoint:     endpoints.Twitch,
			RedirectURL:  cfg.TwitchRedirectURI,
		}
		newTok, err := oc.TokenSource(rctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		if err != nil {
			return "", "", time.Time{}, "", err
		}
		return newTok.AccessToken, newTok.RefreshToken, newTok.Expiry, "", nil
	})

	// pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, database, cfg, ledger, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	// Final flush before the process exits; the flusher also flushes on
	// cancellation, this covers the case where its goroutine loses the race.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ledger.Flush(flushCtx); err != nil {
		slog.Error("final flush failed", slog.Any("err", err))
	}
	cancel()
}
