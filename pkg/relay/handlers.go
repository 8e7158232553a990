// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

// Replier posts plain bot messages into a channel.
type Replier interface {
	Reply(ctx context.Context, channelID, content string) error
}

// Outcome is what a handler did with an event.
type Outcome string

const (
	OutcomeIgnored Outcome = "ignored"
	OutcomeTooLong Outcome = "too_long"
	OutcomeRelayed Outcome = "relayed"
)

const (
	eventPosted = "posted"
	eventEdited = "edited"
)

// Handler turns inbound messages into relayed ones. It does nothing until a
// registry is set.
type Handler struct {
	relayer    *Relayer
	replier    Replier
	maxLength  int
	editMarker string

	registry atomic.Pointer[Registry]
	log      zerolog.Logger
}

func NewHandler(cfg *Config, relayer *Relayer, replier Replier, log zerolog.Logger) *Handler {
	return &Handler{
		relayer:    relayer,
		replier:    replier,
		maxLength:  cfg.MaxMessageLength,
		editMarker: cfg.EditMarker,
		log:        log.With().Str("component", "handler").Logger(),
	}
}

// SetRegistry publishes the registry. Only the first call has an effect; it
// reports whether reg was installed.
func (h *Handler) SetRegistry(reg *Registry) bool {
	return h.registry.CompareAndSwap(nil, reg)
}

// Registry returns the published registry, or nil before ready.
func (h *Handler) Registry() *Registry {
	return h.registry.Load()
}

// HandlePosted relays a newly posted message.
func (h *Handler) HandlePosted(ctx context.Context, msg *Inbound) Outcome {
	reg, reason := h.accept(msg)
	if reg == nil {
		return h.ignore(eventPosted, msg, reason)
	}
	return h.relay(ctx, eventPosted, reg, msg, msg.Content)
}

// HandleEdited relays an edited message as a new message with the edit
// marker appended. Edits whose previous version is unknown are dropped.
func (h *Handler) HandleEdited(ctx context.Context, msg, prev *Inbound) Outcome {
	reg, reason := h.accept(msg)
	if reg == nil {
		return h.ignore(eventEdited, msg, reason)
	}
	if prev == nil {
		return h.ignore(eventEdited, msg, "previous version unavailable")
	}
	if prev.Content == msg.Content {
		return h.ignore(eventEdited, msg, "content unchanged")
	}
	content := h.editMarker
	if msg.Content != "" {
		content = msg.Content + " " + h.editMarker
	}
	return h.relay(ctx, eventEdited, reg, msg, content)
}

// accept runs the guards shared by both events and returns the registry, or
// nil and the reason the message is ignored.
func (h *Handler) accept(msg *Inbound) (*Registry, string) {
	switch {
	case msg == nil:
		return nil, "no message"
	case msg.Author == nil:
		return nil, "no author"
	case msg.Author.Bot:
		return nil, "author is a bot"
	case msg.WebhookID != "":
		return nil, "posted by a webhook"
	case msg.GuildID == "":
		return nil, "not in a guild"
	case msg.Content == "" && len(msg.Attachments) == 0:
		return nil, "empty message"
	}
	reg := h.registry.Load()
	if reg == nil {
		return nil, "registry not ready"
	}
	if !reg.IsSourceChannel(msg.GuildID, msg.ChannelID) {
		return nil, "not a linked channel"
	}
	return reg, ""
}

func (h *Handler) relay(ctx context.Context, event string, reg *Registry, msg *Inbound, content string) Outcome {
	log := h.log.With().
		Str("event", event).
		Str("message_id", msg.ID).
		Str("guild_id", msg.GuildID).
		Str("channel_id", msg.ChannelID).
		Logger()

	if length := contentLength(msg.Attachments, content); length > h.maxLength {
		log.Debug().Int("length", length).Int("max_length", h.maxLength).Msg("Message too long, not relaying")
		if err := h.replier.Reply(ctx, msg.ChannelID, msg.Author.Mention()+": Message too long!"); err != nil {
			log.Warn().Err(err).Msg("Failed to send too long notice")
		}
		eventsTotal.WithLabelValues(event, string(OutcomeTooLong)).Inc()
		return OutcomeTooLong
	}

	dir := withMentions(h.relayer.dir, msg.GuildID, msg.Mentions)
	out := &Message{
		Attachments: msg.Attachments,
		Content:     mentionfmt.Deconstruct(content, msg.GuildID, dir, h.relayer.flags),
		Author:      *msg.Author,
	}
	res := h.relayer.Relay(ctx, reg, msg.GuildID, out)
	log.Debug().
		Int("delivered", len(res.Delivered)).
		Int("failed", len(res.Failed)).
		Msg("Relayed message")
	eventsTotal.WithLabelValues(event, string(OutcomeRelayed)).Inc()
	return OutcomeRelayed
}

func (h *Handler) ignore(event string, msg *Inbound, reason string) Outcome {
	evt := h.log.Trace().Str("event", event).Str("reason", reason)
	if msg != nil {
		evt = evt.Str("message_id", msg.ID).Str("channel_id", msg.ChannelID)
	}
	evt.Msg("Ignoring message")
	eventsTotal.WithLabelValues(event, string(OutcomeIgnored)).Inc()
	return OutcomeIgnored
}
