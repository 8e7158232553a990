// Copyright 2024-2026 Aiku AI

package relay

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exzerolog"
)

// GuildLink is one participating guild: the channel mirrored from it and the
// webhook used to post into it.
type GuildLink struct {
	Name         string
	GuildID      string
	ChannelID    string
	WebhookID    string
	WebhookToken string
}

// Identity is the display identity used for webhook posts.
type Identity struct {
	Username  string
	AvatarURL string
}

// Registry is the immutable set of active links. It is built once when the
// gateway session is ready and shared by reference afterwards.
type Registry struct {
	links   []GuildLink
	byGuild map[string]int
	self    Identity
}

// NewRegistry builds a registry from links. Links are ordered by name.
func NewRegistry(links []GuildLink, self Identity) (*Registry, error) {
	sorted := make([]GuildLink, len(links))
	copy(sorted, links)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	byGuild := make(map[string]int, len(sorted))
	for i, link := range sorted {
		if _, ok := byGuild[link.GuildID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateGuild, link.GuildID)
		}
		byGuild[link.GuildID] = i
	}
	return &Registry{links: sorted, byGuild: byGuild, self: self}, nil
}

// BuildRegistry turns the configured links into a registry, keeping only the
// guilds for which joined reports true. Excluded guild IDs are logged and
// returned.
func BuildRegistry(cfg *Config, joined func(guildID string) bool, self Identity, log zerolog.Logger) (*Registry, []string, error) {
	var links []GuildLink
	var excluded []string
	for _, name := range cfg.LinkNames() {
		lc := cfg.Guilds[name]
		if !joined(lc.GuildID) {
			excluded = append(excluded, lc.GuildID)
			continue
		}
		links = append(links, GuildLink{
			Name:         name,
			GuildID:      lc.GuildID,
			ChannelID:    lc.ChannelID,
			WebhookID:    lc.WebhookID,
			WebhookToken: lc.WebhookToken,
		})
	}
	if len(excluded) > 0 {
		log.Warn().
			Array("guild_ids", exzerolog.ArrayOfStrs(excluded)).
			Msg("Bot is not a member of some configured guilds, excluding them")
	}
	reg, err := NewRegistry(links, self)
	if err != nil {
		return nil, excluded, err
	}
	log.Info().Int("links", reg.Len()).Msg("Guild link registry ready")
	return reg, excluded, nil
}

// Link returns the link for guildID.
func (r *Registry) Link(guildID string) (GuildLink, bool) {
	i, ok := r.byGuild[guildID]
	if !ok {
		return GuildLink{}, false
	}
	return r.links[i], true
}

// Links returns a copy of all links in name order.
func (r *Registry) Links() []GuildLink {
	out := make([]GuildLink, len(r.links))
	copy(out, r.links)
	return out
}

// IsSourceChannel reports whether channelID is the mirrored channel of
// guildID.
func (r *Registry) IsSourceChannel(guildID, channelID string) bool {
	link, ok := r.Link(guildID)
	return ok && link.ChannelID == channelID
}

// Self is the bot's own identity, used for notices.
func (r *Registry) Self() Identity {
	return r.self
}

func (r *Registry) Len() int {
	return len(r.links)
}
