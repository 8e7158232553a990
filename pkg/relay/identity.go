// Copyright 2024-2026 Aiku AI

package relay

import (
	"strings"
	"unicode/utf8"
)

const (
	// maxWebhookUsernameLength is the webhook username limit in runes.
	maxWebhookUsernameLength = 80
	unknownUsername          = "Unknown"
)

const accentedLetters = "éèàùäëüïöôâûÉÈÀÙÄËÜÏÖÔÂÛ"

func allowedInUsername(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= ' ' && r <= ',':
		// space through comma: ! " # $ % & ' ( ) * + ,
		return true
	case strings.ContainsRune("_?{}[].-", r):
		return true
	default:
		return strings.ContainsRune(accentedLetters, r)
	}
}

// WebhookIdentity builds the webhook display identity for author. Characters
// the webhook API would reject are dropped and the legacy discriminator is
// appended when the account still has one.
func WebhookIdentity(author *Author) Identity {
	if author == nil {
		return Identity{Username: unknownUsername}
	}
	name := strings.TrimSpace(strings.Map(func(r rune) rune {
		if allowedInUsername(r) {
			return r
		}
		return -1
	}, author.Username))
	if name == "" {
		name = unknownUsername
	}
	suffix := ""
	if author.Discriminator != "" && author.Discriminator != "0" {
		suffix = "#" + author.Discriminator
	}
	name = truncateRunes(name, maxWebhookUsernameLength-utf8.RuneCountInString(suffix))
	return Identity{Username: truncateRunes(name+suffix, maxWebhookUsernameLength), AvatarURL: author.AvatarURL}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
