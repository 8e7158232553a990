// Copyright 2024-2026 Aiku AI

package relay

import (
	"github.com/bwmarrin/discordgo"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

// StateDirectory resolves mentions against the gateway session's state
// cache. The state is owned and updated by the session; lookups copy what
// they need under the state's read lock.
type StateDirectory struct {
	state *discordgo.State
}

var _ Directory = (*StateDirectory)(nil)

func NewStateDirectory(state *discordgo.State) *StateDirectory {
	return &StateDirectory{state: state}
}

func (d *StateDirectory) GuildName(guildID string) (string, bool) {
	g, err := d.state.Guild(guildID)
	if err != nil {
		return "", false
	}
	d.state.RLock()
	defer d.state.RUnlock()
	return g.Name, g.Name != ""
}

func (d *StateDirectory) MemberByID(guildID, userID string) *mentionfmt.User {
	m, err := d.state.Member(guildID, userID)
	if err != nil {
		return nil
	}
	d.state.RLock()
	defer d.state.RUnlock()
	return memberToUser(m)
}

func (d *StateDirectory) MemberByName(guildID, name string) *mentionfmt.User {
	g, err := d.state.Guild(guildID)
	if err != nil {
		return nil
	}
	d.state.RLock()
	users := make([]*mentionfmt.User, 0, len(g.Members))
	for _, m := range g.Members {
		if u := memberToUser(m); u != nil {
			users = append(users, u)
		}
	}
	d.state.RUnlock()

	u, _ := mentionfmt.FindByName(users, name, (*mentionfmt.User).Names)
	return u
}

func (d *StateDirectory) RoleByID(guildID, roleID string) *mentionfmt.Role {
	r, err := d.state.Role(guildID, roleID)
	if err != nil {
		return nil
	}
	d.state.RLock()
	defer d.state.RUnlock()
	return &mentionfmt.Role{ID: r.ID, Name: r.Name}
}

func (d *StateDirectory) RoleByName(guildID, name string) *mentionfmt.Role {
	g, err := d.state.Guild(guildID)
	if err != nil {
		return nil
	}
	d.state.RLock()
	roles := make([]*mentionfmt.Role, 0, len(g.Roles))
	for _, r := range g.Roles {
		roles = append(roles, &mentionfmt.Role{ID: r.ID, Name: r.Name})
	}
	d.state.RUnlock()

	r, _ := mentionfmt.FindByName(roles, name, func(r *mentionfmt.Role) []string { return []string{r.Name} })
	return r
}

func (d *StateDirectory) ChannelByID(guildID, channelID string) *mentionfmt.Channel {
	c, err := d.state.Channel(channelID)
	if err != nil {
		return nil
	}
	d.state.RLock()
	defer d.state.RUnlock()
	// The channel map is global; a channel from another guild must not match.
	if c.GuildID != guildID {
		return nil
	}
	return &mentionfmt.Channel{ID: c.ID, Name: c.Name}
}

func (d *StateDirectory) ChannelByName(guildID, name string) *mentionfmt.Channel {
	g, err := d.state.Guild(guildID)
	if err != nil {
		return nil
	}
	d.state.RLock()
	channels := make([]*mentionfmt.Channel, 0, len(g.Channels))
	for _, c := range g.Channels {
		if !isTextChannel(c.Type) {
			continue
		}
		channels = append(channels, &mentionfmt.Channel{ID: c.ID, Name: c.Name})
	}
	d.state.RUnlock()

	c, _ := mentionfmt.FindByName(channels, name, func(c *mentionfmt.Channel) []string { return []string{c.Name} })
	return c
}

// isTextChannel reports whether messages can be posted in channels of type t.
func isTextChannel(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews, discordgo.ChannelTypeGuildForum:
		return true
	default:
		return false
	}
}

func memberToUser(m *discordgo.Member) *mentionfmt.User {
	if m == nil || m.User == nil {
		return nil
	}
	return &mentionfmt.User{
		ID:            m.User.ID,
		Username:      m.User.Username,
		Discriminator: m.User.Discriminator,
		GlobalName:    m.User.GlobalName,
		Nick:          m.Nick,
	}
}

// mentionOverlay adds the users a message mentions to a directory, for one
// guild. The gateway includes these users with every message, so they
// resolve even before the member list of the guild has been received.
type mentionOverlay struct {
	mentionfmt.Directory
	guildID string
	users   []*mentionfmt.User
}

func withMentions(dir mentionfmt.Directory, guildID string, users []*mentionfmt.User) mentionfmt.Directory {
	if len(users) == 0 {
		return dir
	}
	return &mentionOverlay{Directory: dir, guildID: guildID, users: users}
}

func (o *mentionOverlay) MemberByID(guildID, userID string) *mentionfmt.User {
	if u := o.Directory.MemberByID(guildID, userID); u != nil {
		return u
	}
	if guildID != o.guildID {
		return nil
	}
	for _, u := range o.users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}
