// Copyright 2024-2026 Aiku AI

package mentionfmt

import (
	"regexp"
	"strings"
)

// mentionRe matches the strict mention syntax: <@id>, <@!id>, <@&id>, <#id>.
var mentionRe = regexp.MustCompile(`<(@&|@!?|#)([0-9]+)>`)

// Deconstruct splits text on whitespace and replaces every mention that
// resolves in guildID with a portable token. Runs of whitespace collapse to
// a single space when the sequence is rendered again.
func Deconstruct(text, guildID string, dir Directory, flags Flags) Sequence {
	var seq Sequence
	for _, unit := range strings.Fields(text) {
		seq = appendUnit(seq, unit, guildID, dir, flags)
	}
	return seq
}

// appendUnit appends one whitespace-delimited unit. Text around a mention
// inside the same unit stays glued to it.
func appendUnit(seq Sequence, unit, guildID string, dir Directory, flags Flags) Sequence {
	matches := mentionRe.FindAllStringSubmatchIndex(unit, -1)
	if len(matches) == 0 {
		return append(seq, Segment{Text: unit})
	}

	glued := false
	last := 0
	for _, m := range matches {
		if m[0] > last {
			seq = append(seq, Segment{Text: unit[last:m[0]], Glued: glued})
			glued = true
		}
		seg := extract(unit[m[0]:m[1]], unit[m[2]:m[3]], unit[m[4]:m[5]], guildID, dir, flags)
		seg.Glued = glued
		seq = append(seq, seg)
		glued = true
		last = m[1]
	}
	if last < len(unit) {
		seq = append(seq, Segment{Text: unit[last:], Glued: true})
	}
	return seq
}

// extract resolves one strict mention. Unknown entities keep the raw text.
func extract(raw, sigil, id, guildID string, dir Directory, flags Flags) Segment {
	var (
		mention *Mention
		enabled bool
	)
	switch sigil {
	case "@", "@!":
		u := dir.MemberByID(guildID, id)
		if u == nil {
			return Segment{Text: raw}
		}
		mention = &Mention{Kind: KindUser, ID: u.ID, Name: u.Username, Discriminator: u.Discriminator}
		enabled = flags.User
	case "@&":
		r := dir.RoleByID(guildID, id)
		if r == nil {
			return Segment{Text: raw}
		}
		mention = &Mention{Kind: KindRole, ID: r.ID, Name: r.Name}
		enabled = flags.Role
	case "#":
		c := dir.ChannelByID(guildID, id)
		if c == nil {
			return Segment{Text: raw}
		}
		mention = &Mention{Kind: KindChannel, ID: c.ID, Name: c.Name}
		enabled = flags.Channel
	default:
		return Segment{Text: raw}
	}
	if !enabled {
		return Segment{Text: mention.Plain()}
	}
	return Segment{Mention: mention}
}
