// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

// WebhookParams is the payload of one webhook post.
type WebhookParams struct {
	Username  string
	AvatarURL string
	Content   string
}

// Transport posts messages through guild webhooks.
type Transport interface {
	ExecuteWebhook(ctx context.Context, webhookID, token string, params *WebhookParams) error
}

// Directory is the roster lookup used by the relay. On top of mention
// resolution it knows guild names for failure notices.
type Directory interface {
	mentionfmt.Directory
	GuildName(guildID string) (string, bool)
}

// Result reports which destination guilds got a message.
type Result struct {
	Delivered []string
	Failed    []string
}

// Relayer fans a message out to every linked guild except its source.
type Relayer struct {
	transport Transport
	dir       Directory
	flags     mentionfmt.Flags
	log       zerolog.Logger
}

func NewRelayer(transport Transport, dir Directory, flags mentionfmt.Flags, log zerolog.Logger) *Relayer {
	return &Relayer{
		transport: transport,
		dir:       dir,
		flags:     flags,
		log:       log.With().Str("component", "relay").Logger(),
	}
}

// Relay delivers msg to every link in reg other than sourceGuildID, one
// destination at a time. A failed destination is reported to the other
// links and does not stop delivery to the rest.
func (r *Relayer) Relay(ctx context.Context, reg *Registry, sourceGuildID string, msg *Message) Result {
	var res Result
	identity := WebhookIdentity(&msg.Author)
	for _, link := range reg.Links() {
		if link.GuildID == sourceGuildID {
			continue
		}
		params := &WebhookParams{
			Username:  identity.Username,
			AvatarURL: identity.AvatarURL,
			Content:   msg.Render(link.GuildID, r.dir, r.flags),
		}
		if err := r.execute(ctx, link, params); err != nil {
			deliveriesTotal.WithLabelValues(resultError).Inc()
			res.Failed = append(res.Failed, link.GuildID)
			r.log.Warn().Err(err).
				Str("link", link.Name).
				Str("guild_id", link.GuildID).
				Str("source_guild_id", sourceGuildID).
				Msg("Failed to deliver message")
			r.notifyFailure(ctx, reg, link)
			continue
		}
		deliveriesTotal.WithLabelValues(resultOK).Inc()
		res.Delivered = append(res.Delivered, link.GuildID)
	}
	return res
}

// notifyFailure tells every link except the failed one that its webhook is
// not working. Notice errors are logged and dropped; they never trigger
// further notices.
func (r *Relayer) notifyFailure(ctx context.Context, reg *Registry, failed GuildLink) {
	self := reg.Self()
	params := &WebhookParams{
		Username:  self.Username,
		AvatarURL: self.AvatarURL,
		Content:   r.failureNotice(failed.GuildID),
	}
	for _, link := range reg.Links() {
		if link.GuildID == failed.GuildID {
			continue
		}
		if err := r.execute(ctx, link, params); err != nil {
			diagnosticsTotal.WithLabelValues(resultError).Inc()
			r.log.Debug().Err(err).
				Str("link", link.Name).
				Str("failed_link", failed.Name).
				Msg("Failed to send failure notice")
			continue
		}
		diagnosticsTotal.WithLabelValues(resultOK).Inc()
	}
}

func (r *Relayer) failureNotice(guildID string) string {
	if name, ok := r.dir.GuildName(guildID); ok {
		return fmt.Sprintf("WebHook unavailable in %s.", name)
	}
	return fmt.Sprintf("Guild unavailable: %s.", guildID)
}

// Announce posts content through every link under the bot's own identity and
// returns the number of successful posts.
func (r *Relayer) Announce(ctx context.Context, reg *Registry, content string) int {
	self := reg.Self()
	params := &WebhookParams{Username: self.Username, AvatarURL: self.AvatarURL, Content: content}
	var sent int
	for _, link := range reg.Links() {
		if err := r.execute(ctx, link, params); err != nil {
			r.log.Warn().Err(err).Str("link", link.Name).Msg("Failed to post announcement")
			continue
		}
		sent++
	}
	return sent
}

func (r *Relayer) execute(ctx context.Context, link GuildLink, params *WebhookParams) error {
	start := time.Now()
	err := r.transport.ExecuteWebhook(ctx, link.WebhookID, link.WebhookToken, params)
	deliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to execute webhook for %s: %w", link.Name, err)
	}
	return nil
}
