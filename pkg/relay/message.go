// Copyright 2024-2026 Aiku AI

package relay

import (
	"strings"
	"unicode/utf8"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

// Author is the sender of a relayed message.
type Author struct {
	ID            string
	Username      string
	Discriminator string
	AvatarURL     string
	Bot           bool
}

// Tag returns username#discriminator, or just the username for accounts
// without a legacy discriminator.
func (a *Author) Tag() string {
	if a.Discriminator == "" || a.Discriminator == "0" {
		return a.Username
	}
	return a.Username + "#" + a.Discriminator
}

// Mention returns the live mention syntax for the author.
func (a *Author) Mention() string {
	return "<@" + a.ID + ">"
}

// Inbound is a chat message as received from the gateway, stripped down to
// what the handlers need.
type Inbound struct {
	ID        string
	GuildID   string
	ChannelID string
	// WebhookID is set when the message was posted by a webhook, including
	// our own relayed copies.
	WebhookID   string
	Author      *Author
	Content     string
	Attachments []string
	// Mentions lists the users the gateway resolved for this message.
	Mentions []*mentionfmt.User
}

// Message is the portable form of a message, ready to be rendered for each
// destination guild.
type Message struct {
	Attachments []string
	Content     mentionfmt.Sequence
	Author      Author
}

// Render produces the destination text: attachment URLs one per line,
// followed by the rendered content.
func (m *Message) Render(guildID string, dir mentionfmt.Directory, flags mentionfmt.Flags) string {
	return joinBody(m.Attachments, mentionfmt.Render(m.Content, guildID, dir, flags))
}

func joinBody(attachments []string, content string) string {
	prefix := strings.Join(attachments, "\n")
	if prefix == "" {
		return content
	}
	if content == "" {
		return prefix
	}
	return prefix + "\n" + content
}

// contentLength is the length checked against max_message_length, counted
// in runes.
func contentLength(attachments []string, content string) int {
	return utf8.RuneCountInString(joinBody(attachments, content))
}
