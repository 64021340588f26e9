// Package chat connects the bot to Twitch IRC, feeds plain messages into the
// word-count pipeline and routes ! commands.
package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/d-chen/lowtierbot/backend/config"
	"github.com/d-chen/lowtierbot/backend/db"
	"github.com/d-chen/lowtierbot/backend/nowplaying"
	"github.com/d-chen/lowtierbot/backend/seen"
	"github.com/d-chen/lowtierbot/backend/twitchapi"
	"github.com/d-chen/lowtierbot/backend/wordcount"
)

// BookmarkCreator drops a marker on the live stream so moments can be found
// again in the VOD.
type BookmarkCreator interface {
	CreateBookmark(ctx context.Context, description string) (string, error)
}

// Bot is the Twitch chat frontend. Everything it replies with goes through
// Say so tests can capture output without a live IRC connection.
type Bot struct {
	cfg      *config.Config
	db       *sql.DB
	ledger   *wordcount.Ledger
	pipeline *wordcount.Pipeline
	engine   *wordcount.Engine
	seen     *seen.Recorder
	np       *nowplaying.Source
	helix    *twitchapi.HelixClient
	bookmark BookmarkCreator
	flood    *floodGate

	client *twitch.Client
	say    func(channel, message string)
}

func NewBot(cfg *config.Config, database *sql.DB, ledger *wordcount.Ledger, stops wordcount.StopWordSet, seenRec *seen.Recorder, np *nowplaying.Source, helix *twitchapi.HelixClient) *Bot {
	b := &Bot{
		cfg:    cfg,
		db:     database,
		ledger: ledger,
		seen:   seenRec,
		np:     np,
		helix:  helix,
		flood:  newFloodGate(cfg.IsAdmin),
	}
	b.pipeline = wordcount.NewPipeline(ledger, wordcount.NewTokenizer(stops), cfg.IsIgnored)
	b.engine = wordcount.NewEngine(ledger, stops, wordcount.NewCooldown(cfg.QueryCooldown), b)
	b.bookmark = &helixBookmarker{helix: helix, db: database, channel: cfg.TwitchChannel}
	return b
}

// Say sends a line to the channel.
func (b *Bot) Say(channel, message string) {
	if b.say != nil {
		b.say(channel, message)
		return
	}
	if c := b.client; c != nil {
		c.Say(channel, message)
	}
}

// Run connects to Twitch IRC and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.cfg.ValidateChatReady(); err != nil {
		return err
	}
	token, err := b.chatToken(ctx)
	if err != nil {
		return err
	}
	b.restoreMusicSource(ctx)
	client := twitch.NewClient(b.cfg.TwitchBotUsername, token)
	b.client = client

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		b.handle(ctx, msg)
	})

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := client.Disconnect(); err != nil {
			slog.Warn("twitch chat disconnect", slog.Any("err", err))
		}
		close(done)
	}()

	client.Join(b.cfg.TwitchChannel)
	slog.Info("joining twitch chat", slog.String("channel", b.cfg.TwitchChannel))
	if err := client.Connect(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	<-done
	return nil
}

// chatToken prefers the statically configured token and falls back to the
// persisted user token from the OAuth flow.
func (b *Bot) chatToken(ctx context.Context) (string, error) {
	if t := b.cfg.TwitchOAuthToken; t != "" {
		return ensureOAuthPrefix(t), nil
	}
	access, _, _, _, err := db.GetOAuthToken(ctx, b.db, "twitch")
	if err != nil {
		return "", fmt.Errorf("no chat token configured and none stored: %w", err)
	}
	return ensureOAuthPrefix(access), nil
}

// restoreMusicSource reapplies the music source selected before the last
// restart. Missing or stale values just leave the default in place.
func (b *Bot) restoreMusicSource(ctx context.Context) {
	src, err := db.GetKV(ctx, b.db, musicSourceKey)
	if err != nil || src == "" {
		return
	}
	if err := b.np.SetSource(src); err != nil {
		slog.Warn("ignoring stored music source", slog.String("source", src), slog.Any("err", err))
	}
}

func ensureOAuthPrefix(token string) string {
	if strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

func (b *Bot) handle(ctx context.Context, msg twitch.PrivateMessage) {
	user := strings.ToLower(msg.User.Name)
	text := strings.TrimSpace(msg.Message)
	if user == "" || text == "" {
		return
	}
	if b.cfg.IsIgnored(user) {
		return
	}
	if err := b.seen.Record(ctx, user, text); err != nil {
		slog.Warn("failed to record sighting", slog.String("user", user), slog.Any("err", err))
	}
	if !strings.HasPrefix(text, "!") {
		b.pipeline.Handle(wordcount.Message{User: user, Channel: msg.Channel, Text: text})
		return
	}
	b.route(ctx, user, msg.Channel, text)
}
