// Package chat runs the Twitch IRC bot that fronts the album producer-credit
// lookup. It parses commands, derives the caller's role set from badges, and
// mediates between the credit ledger and the lookup pipeline: charge first, run
// the pipeline off the dispatch goroutine, refund exactly once if the run fails.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/prodscout/config"
	"github.com/onnwee/prodscout/ledger"
	"github.com/onnwee/prodscout/pipeline"
	"github.com/onnwee/prodscout/render"
	"github.com/onnwee/prodscout/results"
	"github.com/onnwee/prodscout/telemetry"
)

// Payloads above this many characters are delivered as a stored file link
// instead of chat-visible text.
const fileThreshold = 2000

// Bot wires the chat client to the ledger and pipeline.
type Bot struct {
	cfg     *config.Config
	client  *twitch.Client
	ledger  *ledger.Ledger
	pipe    *pipeline.Pipeline
	results *results.Store

	ctx context.Context
}

func NewBot(cfg *config.Config, lg *ledger.Ledger, pipe *pipeline.Pipeline, res *results.Store) *Bot {
	return &Bot{
		cfg:     cfg,
		client:  twitch.NewClient(cfg.TwitchBotUsername, normalizeOAuth(cfg.TwitchOAuthToken)),
		ledger:  lg,
		pipe:    pipe,
		results: res,
	}
}

// Run connects to chat and blocks until the context is cancelled or the
// connection fails.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.client.OnPrivateMessage(b.handleMessage)

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := b.client.Disconnect(); err != nil {
			slog.Warn("twitch disconnect", slog.Any("err", err), slog.String("component", "chat"))
		}
		close(done)
	}()

	b.client.Join(b.cfg.TwitchChannel)
	slog.Info("joining channel", slog.String("channel", b.cfg.TwitchChannel), slog.String("component", "chat"))
	if err := b.client.Connect(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	<-done
	return nil
}

func (b *Bot) handleMessage(msg twitch.PrivateMessage) {
	text := strings.TrimSpace(msg.Message)
	switch {
	case strings.HasPrefix(text, "!album "):
		query := strings.TrimSpace(strings.TrimPrefix(text, "!album "))
		if query == "" {
			b.say("Usage: !album <album name>")
			return
		}
		// Off the dispatch path: the run blocks on paced lookups for minutes.
		go b.handleAlbum(msg, query)
	case text == "!credits":
		go b.handleCredits(msg)
	}
}

func (b *Bot) handleAlbum(msg twitch.PrivateMessage, query string) {
	ctx := b.ctx
	user := msg.User.ID
	roles := RolesFromBadges(msg.User.Badges, b.cfg.PremiumBadges, b.cfg.LiteBadges)

	remaining, err := b.ledger.Charge(ctx, user, roles)
	if err != nil {
		b.denyMessage(msg.User.Name, err)
		return
	}
	telemetry.ChargesGranted.Inc()
	telemetry.ActiveLookupsGauge.Inc()
	defer telemetry.ActiveLookupsGauge.Dec()

	b.say(fmt.Sprintf("@%s searching for '%s'... (%d credits left, this takes a while to avoid upstream blocks)", msg.User.Name, query, remaining))

	res, err := b.pipe.Run(ctx, query)
	if err != nil {
		// Exactly one refund per failed charged run, regardless of how far it got.
		b.ledger.Refund(ctx, user)
		telemetry.Refunds.Inc()
		b.failureMessage(msg.User.Name, query, err)
		return
	}

	table := render.Table(res.Rows)
	full := fmt.Sprintf("%s - %s\n%s", res.Album, res.Artist, table)
	if len(full) > fileThreshold {
		id, err := b.results.Save(full)
		if err != nil {
			slog.Error("store result", slog.Any("err", err), slog.String("component", "chat"))
			b.say(fmt.Sprintf("@%s found %d credits for %s but couldn't store the table, sorry.", msg.User.Name, len(res.Rows), res.Album))
			return
		}
		b.say(fmt.Sprintf("@%s the list for %s - %s is too long for chat: %s/results/%s", msg.User.Name, res.Album, res.Artist, b.cfg.PublicBaseURL, id))
		return
	}
	b.sayLines(full)
}

func (b *Bot) handleCredits(msg twitch.PrivateMessage) {
	roles := RolesFromBadges(msg.User.Badges, b.cfg.PremiumBadges, b.cfg.LiteBadges)
	balance, err := b.ledger.Balance(b.ctx, msg.User.ID, roles)
	if err != nil {
		b.denyMessage(msg.User.Name, err)
		return
	}
	b.say(fmt.Sprintf("@%s you have %d credits left this month.", msg.User.Name, balance))
}

func (b *Bot) denyMessage(name string, err error) {
	switch {
	case errors.Is(err, ledger.ErrNoEntitlement):
		telemetry.DenyReason("no_entitlement")
		b.say(fmt.Sprintf("@%s you need a Lite or Premium role to use this command.", name))
	case errors.Is(err, ledger.ErrExhausted):
		telemetry.DenyReason("exhausted")
		b.say(fmt.Sprintf("@%s your credits are used up for this month.", name))
	default:
		// Store unavailable: deny without charge, nothing to refund.
		telemetry.DenyReason("store_unavailable")
		slog.Error("charge failed", slog.Any("err", err), slog.String("component", "chat"))
		b.say(fmt.Sprintf("@%s something went wrong on our side, try again shortly.", name))
	}
}

func (b *Bot) failureMessage(name, query string, err error) {
	switch pipeline.Classify(err) {
	case pipeline.FailureNotFound:
		b.say(fmt.Sprintf("@%s album '%s' not found. Credit refunded.", name, query))
	case pipeline.FailureRateLimited:
		slog.Warn("lookup rate limited", slog.Any("err", err), slog.String("component", "chat"))
		b.say(fmt.Sprintf("@%s the lookup service is blocking us right now, try again in an hour. Credit refunded.", name))
	default:
		slog.Error("lookup failed", slog.Any("err", err), slog.String("component", "chat"))
		b.say(fmt.Sprintf("@%s something technical went wrong. Credit refunded.", name))
	}
}

func (b *Bot) say(text string) {
	b.client.Say(b.cfg.TwitchChannel, text)
}

// sayLines delivers a multi-line payload as consecutive messages; IRC has no
// in-message newline. Only small tables (under fileThreshold) take this path.
func (b *Bot) sayLines(text string) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.client.Say(b.cfg.TwitchChannel, line)
	}
}

// normalizeOAuth ensures the "oauth:" prefix the IRC server expects.
func normalizeOAuth(tok string) string {
	if tok == "" || strings.HasPrefix(tok, "oauth:") {
		return tok
	}
	return "oauth:" + tok
}
