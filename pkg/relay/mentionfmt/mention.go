// Copyright 2024-2026 Aiku AI

// Package mentionfmt converts guild-scoped Discord mentions into a portable
// form and renders that form back into text valid for another guild.
package mentionfmt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Kind identifies which entity a Mention points at.
type Kind int

const (
	KindUser Kind = iota + 1
	KindRole
	KindChannel
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindRole:
		return "role"
	case KindChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// User is a guild member as seen by a Directory.
type User struct {
	ID            string
	Username      string
	Discriminator string
	GlobalName    string
	Nick          string
}

// Tag returns username#discriminator, or the bare username for accounts
// migrated to unique usernames (discriminator "0").
func (u *User) Tag() string {
	return tag(u.Username, u.Discriminator)
}

// Names returns the names a user can be addressed by, in match priority
// order: tag, username, global display name, guild nickname.
func (u *User) Names() []string {
	return []string{u.Tag(), u.Username, u.GlobalName, u.Nick}
}

// Role is a guild role as seen by a Directory.
type Role struct {
	ID   string
	Name string
}

// Channel is a guild channel as seen by a Directory.
type Channel struct {
	ID   string
	Name string
}

// Directory looks up entities in one guild's live roster. Every method
// returns nil when nothing matches; a miss is not an error.
type Directory interface {
	MemberByID(guildID, userID string) *User
	MemberByName(guildID, name string) *User
	RoleByID(guildID, roleID string) *Role
	RoleByName(guildID, name string) *Role
	ChannelByID(guildID, channelID string) *Channel
	ChannelByName(guildID, name string) *Channel
}

// Flags selects which mention classes are carried as live mentions. A
// disabled class is degraded to plain text at the source.
type Flags struct {
	User    bool
	Role    bool
	Channel bool
}

// Mention is a snapshot of a resolved entity, taken in the source guild.
type Mention struct {
	Kind          Kind
	ID            string
	Name          string
	Discriminator string
}

// Plain returns the inert text form of the mention.
func (m *Mention) Plain() string {
	switch m.Kind {
	case KindUser:
		return "@" + tag(m.Name, m.Discriminator)
	case KindRole:
		return "@" + m.Name
	case KindChannel:
		return "#" + m.Name
	default:
		return m.Name
	}
}

// Segment is one element of a Sequence: literal text or a Mention. Glued
// segments follow their predecessor without a separating space.
type Segment struct {
	Text    string
	Mention *Mention
	Glued   bool
}

// Sequence is a message body in reading order.
type Sequence []Segment

// String renders the sequence with every mention in its plain form.
func (s Sequence) String() string {
	var sb strings.Builder
	for i, seg := range s {
		if i > 0 && !seg.Glued {
			sb.WriteByte(' ')
		}
		if seg.Mention != nil {
			sb.WriteString(seg.Mention.Plain())
		} else {
			sb.WriteString(seg.Text)
		}
	}
	return sb.String()
}

// Mentions returns the mention tokens of the sequence in order.
func (s Sequence) Mentions() []*Mention {
	var out []*Mention
	for _, seg := range s {
		if seg.Mention != nil {
			out = append(out, seg.Mention)
		}
	}
	return out
}

func userSyntax(id string) string    { return "<@" + id + ">" }
func roleSyntax(id string) string    { return "<@&" + id + ">" }
func channelSyntax(id string) string { return "<#" + id + ">" }

func tag(username, discriminator string) string {
	if discriminator == "" || discriminator == "0" {
		return username
	}
	return username + "#" + discriminator
}

// FoldName normalizes a name for case-insensitive comparison.
func FoldName(name string) string {
	return cases.Fold().String(norm.NFC.String(name))
}

// FindByName returns the first item one of whose keys equals name. Exact
// matches win over case-folded ones.
func FindByName[T any](items []T, name string, keys func(T) []string) (T, bool) {
	for _, item := range items {
		for _, key := range keys(item) {
			if key != "" && key == name {
				return item, true
			}
		}
	}
	folded := FoldName(name)
	for _, item := range items {
		for _, key := range keys(item) {
			if key != "" && FoldName(key) == folded {
				return item, true
			}
		}
	}
	var zero T
	return zero, false
}
