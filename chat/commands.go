package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/d-chen/lowtierbot/backend/db"
)

const commandList = "Commands: !words user [USERNAME] / word [WORD] / everyone, !seen [USERNAME], !viewers, !bookmark [TITLE], !sapmusic, !wctime, !ectime, !jptime"

// musicSourceKey is the kv row holding the !sapmusic source across restarts.
const musicSourceKey = "nowplaying_source"

func (b *Bot) route(ctx context.Context, user, channel, text string) {
	fields := strings.Fields(text)
	switch strings.ToLower(fields[0]) {
	case "!words":
		b.engine.Handle(ctx, user, channel, fields[1:])
	case "!seen":
		b.cmdSeen(ctx, user, channel, fields[1:])
	case "!viewers":
		b.cmdViewers(ctx, user, channel)
	case "!bookmark":
		b.cmdBookmark(ctx, user, channel, fields[1:])
	case "!sapmusic":
		b.cmdMusic(ctx, user, channel, fields[1:])
	case "!wctime":
		b.cmdTime(user, channel, "America/Vancouver", "Vancouver")
	case "!ectime":
		b.cmdTime(user, channel, "America/New_York", "New York")
	case "!jptime":
		b.cmdTime(user, channel, "Asia/Tokyo", "Tokyo")
	case "!ltb":
		b.cmdHelp(user, channel)
	}
}

func (b *Bot) cmdSeen(ctx context.Context, user, channel string, args []string) {
	if !b.flood.allow(user) {
		return
	}
	if len(args) != 1 {
		b.Say(channel, user+" -> Usage: !seen [USERNAME]")
		return
	}
	target := strings.ToLower(args[0])
	if target == strings.ToLower(b.cfg.TwitchBotUsername) || b.cfg.IsBot(target) {
		b.Say(channel, user+" -> No messing with other bots.")
		return
	}
	line, ok, err := b.seen.Lookup(ctx, target)
	if err != nil {
		slog.Error("seen lookup failed", slog.String("target", target), slog.Any("err", err))
		return
	}
	if !ok {
		b.Say(channel, user+" -> I have not seen that user yet.")
		return
	}
	b.Say(channel, user+" -> "+line)
}

func (b *Bot) cmdViewers(ctx context.Context, user, channel string) {
	if !b.flood.allow(user) {
		return
	}
	streams, err := b.helix.GetStreams(ctx, b.cfg.TwitchChannel)
	if err != nil {
		slog.Error("stream lookup failed", slog.Any("err", err))
		return
	}
	if len(streams) == 0 {
		b.Say(channel, "This stream is currently offline.")
		return
	}
	b.Say(channel, fmt.Sprintf("There are currently %d viewers watching.", streams[0].ViewerCount))
}

func (b *Bot) cmdBookmark(ctx context.Context, user, channel string, args []string) {
	if !b.cfg.IsAdmin(user) {
		return
	}
	if !b.flood.allow(user) {
		return
	}
	description := strings.Join(args, " ")
	if description == "" {
		description = "bookmark"
	}
	reply, err := b.bookmark.CreateBookmark(ctx, description)
	if err != nil {
		slog.Error("bookmark failed", slog.Any("err", err))
		b.Say(channel, user+" -> Could not create a stream marker.")
		return
	}
	b.Say(channel, user+" -> "+reply)
}

func (b *Bot) cmdMusic(ctx context.Context, user, channel string, args []string) {
	if len(args) >= 1 && b.cfg.IsAdmin(user) {
		src := strings.ToLower(args[0])
		if err := b.np.SetSource(src); err != nil {
			b.Say(channel, user+" -> Unknown source. Use fb2k or youtube.")
			return
		}
		// Remember the selection so a restart does not flip back to fb2k.
		if err := db.SetKV(ctx, b.db, musicSourceKey, src); err != nil {
			slog.Warn("failed to persist music source", slog.Any("err", err))
		}
	}
	if !b.flood.allow(user) {
		return
	}
	title, err := b.np.Current()
	if err != nil {
		slog.Warn("now playing unavailable", slog.Any("err", err))
		b.Say(channel, "Nothing seems to be playing right now.")
		return
	}
	b.Say(channel, fmt.Sprintf("[%s] %s", b.np.Label(), title))
}

func (b *Bot) cmdTime(user, channel, zone, city string) {
	if !b.flood.allow(user) {
		return
	}
	if line := localTimeReply(zone, city); line != "" {
		b.Say(channel, user+" -> "+line)
	}
}

func (b *Bot) cmdHelp(user, channel string) {
	if !b.flood.allow(user) {
		return
	}
	b.Say(channel, commandList)
}
