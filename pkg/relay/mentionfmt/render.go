// Copyright 2024-2026 Aiku AI

package mentionfmt

import (
	"regexp"
	"strings"
)

// bareMentionRe matches text a user typed as @name or #name without the
// client turning it into a real mention.
var bareMentionRe = regexp.MustCompile(`^([@#])(\S+)$`)

// Render produces the text of seq for guildID. Tokens become live mentions
// when the entity exists there and fall back to plain text otherwise.
func Render(seq Sequence, guildID string, dir Directory, flags Flags) string {
	var sb strings.Builder
	for i, seg := range seq {
		if i > 0 && !seg.Glued {
			sb.WriteByte(' ')
		}
		switch {
		case seg.Mention != nil:
			sb.WriteString(renderMention(seg.Mention, guildID, dir))
		case seg.Glued, i+1 < len(seq) && seq[i+1].Glued:
			// Only a whole unit can be a bare mention.
			sb.WriteString(seg.Text)
		default:
			sb.WriteString(renderLiteral(seg.Text, guildID, dir, flags))
		}
	}
	return sb.String()
}

func renderMention(m *Mention, guildID string, dir Directory) string {
	switch m.Kind {
	case KindUser:
		// User IDs are global, so the same account is found by ID.
		if u := dir.MemberByID(guildID, m.ID); u != nil {
			return userSyntax(u.ID)
		}
	case KindRole:
		if r := dir.RoleByName(guildID, m.Name); r != nil {
			return roleSyntax(r.ID)
		}
	case KindChannel:
		if c := dir.ChannelByName(guildID, m.Name); c != nil {
			return channelSyntax(c.ID)
		}
	}
	return m.Plain()
}

// renderLiteral upgrades a bare @name or #name to a live mention when the
// matching flag is set. Roles take precedence over users for '@'.
func renderLiteral(text, guildID string, dir Directory, flags Flags) string {
	match := bareMentionRe.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	name := match[2]

	switch match[1] {
	case "@":
		if flags.Role {
			if r := dir.RoleByName(guildID, name); r != nil {
				return roleSyntax(r.ID)
			}
		}
		if flags.User {
			u := dir.MemberByID(guildID, name)
			if u == nil {
				u = dir.MemberByName(guildID, name)
			}
			if u != nil {
				return userSyntax(u.ID)
			}
		}
	case "#":
		if flags.Channel {
			if c := dir.ChannelByName(guildID, name); c != nil {
				return channelSyntax(c.ID)
			}
		}
	}
	return text
}
