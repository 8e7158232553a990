// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

// ReadyNotice is posted through every link once the bridge is connected.
const ReadyNotice = "Bot Ready - Cross Server system operational!"

const gatewayIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent

// Bridge connects the relay to a Discord gateway session. It also acts as
// the webhook transport and replier for the relay.
type Bridge struct {
	cfg     *Config
	session *discordgo.Session
	dir     *StateDirectory
	relayer *Relayer
	handler *Handler
	linked  map[string]struct{}

	admin  *http.Server
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

var (
	_ Transport = (*Bridge)(nil)
	_ Replier   = (*Bridge)(nil)
)

// NewBridge creates a bot session for cfg. The session is not opened until
// Start is called.
func NewBridge(cfg *Config, log zerolog.Logger) (*Bridge, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.Identify.Intents = gatewayIntents
	session.State.MaxMessageCount = cfg.MessageCache
	session.State.TrackPresences = false
	session.State.TrackVoice = false
	return newBridge(cfg, session, log), nil
}

func newBridge(cfg *Config, session *discordgo.Session, log zerolog.Logger) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		cfg:     cfg,
		session: session,
		dir:     NewStateDirectory(session.State),
		linked:  make(map[string]struct{}, len(cfg.Guilds)),
		ctx:     ctx,
		cancel:  cancel,
		log:     log.With().Str("component", "bridge").Logger(),
	}
	for _, link := range cfg.Guilds {
		b.linked[link.GuildID] = struct{}{}
	}
	b.relayer = NewRelayer(b, b.dir, cfg.EnhancedMention.Flags(), log)
	b.handler = NewHandler(cfg, b.relayer, b, log)

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onMessageUpdate)
	return b
}

// Handler returns the message handler, which also exposes the registry once
// the session is ready.
func (b *Bridge) Handler() *Handler {
	return b.handler
}

// Start opens the gateway connection and the admin API if one is configured.
func (b *Bridge) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway session: %w", err)
	}
	if b.cfg.AdminAPIAddr != "" {
		b.admin = NewAdminServer(b.cfg.AdminAPIAddr, b.handler, b.log)
		go func() {
			b.log.Info().Str("addr", b.cfg.AdminAPIAddr).Msg("Starting admin API")
			if err := b.admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				b.log.Error().Err(err).Msg("Admin API error")
			}
		}()
	}
	return nil
}

// Stop cancels in-flight deliveries and closes the gateway connection.
func (b *Bridge) Stop() error {
	b.cancel()
	if b.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.admin.Shutdown(ctx); err != nil {
			b.log.Warn().Err(err).Msg("Failed to shut down admin API")
		}
	}
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close gateway session: %w", err)
	}
	return nil
}

func (b *Bridge) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if b.handler.Registry() != nil {
		b.log.Debug().Msg("Gateway session resumed, keeping existing registry")
		return
	}
	joined := make(map[string]bool, len(r.Guilds))
	for _, g := range r.Guilds {
		joined[g.ID] = true
	}
	var self Identity
	if r.User != nil {
		self = Identity{Username: r.User.Username, AvatarURL: r.User.AvatarURL("")}
	}
	reg, _, err := BuildRegistry(b.cfg, func(guildID string) bool { return joined[guildID] }, self, b.log)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to build guild link registry")
		return
	}
	if !b.handler.SetRegistry(reg) {
		return
	}
	b.log.Info().Str("user", self.Username).Int("links", reg.Len()).Msg("Bridge ready")
	if b.cfg.AnnounceReady {
		b.relayer.Announce(b.ctx, reg, ReadyNotice)
	}
}

func (b *Bridge) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || !b.cfg.RequestMembers {
		return
	}
	if _, ok := b.linked[g.ID]; !ok {
		return
	}
	if err := s.RequestGuildMembers(g.ID, "", 0, "", false); err != nil {
		b.log.Warn().Err(err).Str("guild_id", g.ID).Msg("Failed to request guild members")
		return
	}
	b.log.Debug().Str("guild_id", g.ID).Str("guild_name", g.Name).Msg("Requested guild members")
}

func (b *Bridge) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil {
		return
	}
	b.handler.HandlePosted(b.ctx, inboundFromMessage(m.Message))
}

func (b *Bridge) onMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil {
		return
	}
	var prev *Inbound
	if m.BeforeUpdate != nil {
		prev = inboundFromMessage(m.BeforeUpdate)
	}
	b.handler.HandleEdited(b.ctx, inboundFromMessage(m.Message), prev)
}

// ExecuteWebhook posts params through the webhook and waits for the message
// to be created.
func (b *Bridge) ExecuteWebhook(ctx context.Context, webhookID, token string, params *WebhookParams) error {
	_, err := b.session.WebhookExecute(webhookID, token, true, &discordgo.WebhookParams{
		Content:         params.Content,
		Username:        params.Username,
		AvatarURL:       params.AvatarURL,
		AllowedMentions: b.allowedMentions(),
	}, discordgo.WithContext(ctx))
	return err
}

func (b *Bridge) allowedMentions() *discordgo.MessageAllowedMentions {
	parse := []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers, discordgo.AllowedMentionTypeRoles}
	if b.cfg.AllowEveryone {
		parse = append(parse, discordgo.AllowedMentionTypeEveryone)
	}
	return &discordgo.MessageAllowedMentions{Parse: parse}
}

// Reply posts content into channelID as the bot.
func (b *Bridge) Reply(ctx context.Context, channelID, content string) error {
	_, err := b.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func inboundFromMessage(m *discordgo.Message) *Inbound {
	in := &Inbound{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		WebhookID: m.WebhookID,
		Content:   m.Content,
	}
	if m.Author != nil {
		in.Author = &Author{
			ID:            m.Author.ID,
			Username:      m.Author.Username,
			Discriminator: m.Author.Discriminator,
			AvatarURL:     m.Author.AvatarURL(""),
			Bot:           m.Author.Bot,
		}
	}
	for _, a := range m.Attachments {
		if a != nil && a.URL != "" {
			in.Attachments = append(in.Attachments, a.URL)
		}
	}
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		in.Mentions = append(in.Mentions, &mentionfmt.User{
			ID:            u.ID,
			Username:      u.Username,
			Discriminator: u.Discriminator,
			GlobalName:    u.GlobalName,
		})
	}
	return in
}
