// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

var allFlags = mentionfmt.Flags{User: true, Role: true, Channel: true}

var errWebhookGone = errors.New("unknown webhook")

// webhookCall is one recorded ExecuteWebhook call.
type webhookCall struct {
	WebhookID string
	Token     string
	Params    WebhookParams
}

// fakeTransport records webhook posts. Posts to webhook IDs in fail return
// the mapped error.
type fakeTransport struct {
	mu    sync.Mutex
	calls []webhookCall
	fail  map[string]error
}

func newFakeTransport(failing ...string) *fakeTransport {
	ft := &fakeTransport{fail: make(map[string]error)}
	for _, id := range failing {
		ft.fail[id] = errWebhookGone
	}
	return ft
}

func (ft *fakeTransport) ExecuteWebhook(_ context.Context, webhookID, token string, params *WebhookParams) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.calls = append(ft.calls, webhookCall{WebhookID: webhookID, Token: token, Params: *params})
	return ft.fail[webhookID]
}

func (ft *fakeTransport) Calls() []webhookCall {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	out := make([]webhookCall, len(ft.calls))
	copy(out, ft.calls)
	return out
}

func (ft *fakeTransport) CallsTo(webhookID string) []webhookCall {
	var out []webhookCall
	for _, c := range ft.Calls() {
		if c.WebhookID == webhookID {
			out = append(out, c)
		}
	}
	return out
}

type reply struct {
	ChannelID string
	Content   string
}

type fakeReplier struct {
	mu      sync.Mutex
	replies []reply
	err     error
}

func (fr *fakeReplier) Reply(_ context.Context, channelID, content string) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.replies = append(fr.replies, reply{ChannelID: channelID, Content: content})
	return fr.err
}

func (fr *fakeReplier) Replies() []reply {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	out := make([]reply, len(fr.replies))
	copy(out, fr.replies)
	return out
}

func testUser(id, username, discriminator string) *discordgo.User {
	return &discordgo.User{ID: id, Username: username, Discriminator: discriminator}
}

// newTestState returns a state with three guilds:
//
//	100 Alpha: Ann (123, nick annie) and bob (124); role Mods; channels relay, general
//	200 Beta:  bob; role Mods; channels relay, general
//	300 Gamma: nobody; channel relay
func newTestState(t testing.TB) *discordgo.State {
	t.Helper()
	st := discordgo.NewState()
	ann := testUser("123", "Ann", "0001")
	bob := testUser("124", "bob", "0")
	guilds := []*discordgo.Guild{
		{
			ID:    "100",
			Name:  "Alpha",
			Roles: []*discordgo.Role{{ID: "1001", Name: "Mods"}},
			Channels: []*discordgo.Channel{
				{ID: "110", GuildID: "100", Name: "relay", Type: discordgo.ChannelTypeGuildText},
				{ID: "111", GuildID: "100", Name: "general", Type: discordgo.ChannelTypeGuildText},
			},
			Members: []*discordgo.Member{
				{GuildID: "100", User: ann, Nick: "annie"},
				{GuildID: "100", User: bob},
			},
		},
		{
			ID:    "200",
			Name:  "Beta",
			Roles: []*discordgo.Role{{ID: "2001", Name: "Mods"}},
			Channels: []*discordgo.Channel{
				{ID: "210", GuildID: "200", Name: "relay", Type: discordgo.ChannelTypeGuildText},
				{ID: "211", GuildID: "200", Name: "general", Type: discordgo.ChannelTypeGuildText},
			},
			Members: []*discordgo.Member{
				{GuildID: "200", User: bob},
			},
		},
		{
			ID:   "300",
			Name: "Gamma",
			Channels: []*discordgo.Channel{
				{ID: "310", GuildID: "300", Name: "relay", Type: discordgo.ChannelTypeGuildText},
			},
			Members: []*discordgo.Member{},
		},
	}
	for _, g := range guilds {
		require.NoError(t, st.GuildAdd(g))
	}
	return st
}

func testLink(name, guildID string) GuildLink {
	return GuildLink{
		Name:         name,
		GuildID:      guildID,
		ChannelID:    guildID[:1] + "10",
		WebhookID:    "wh-" + guildID,
		WebhookToken: "tok-" + guildID,
	}
}

var botIdentity = Identity{Username: "relay-bot", AvatarURL: "https://cdn.example/bot.png"}

func newTestRegistry(t testing.TB, guildIDs ...string) *Registry {
	t.Helper()
	names := map[string]string{"100": "alpha", "200": "beta", "300": "gamma", "400": "delta", "500": "epsilon"}
	links := make([]GuildLink, 0, len(guildIDs))
	for _, id := range guildIDs {
		links = append(links, testLink(names[id], id))
	}
	reg, err := NewRegistry(links, botIdentity)
	require.NoError(t, err)
	return reg
}

func testConfig(guildIDs ...string) *Config {
	cfg := &Config{
		Token:            "bot-token",
		MaxMessageLength: 2000,
		EditMarker:       "*(edited)*",
		Guilds:           make(map[string]LinkConfig),
	}
	for _, id := range guildIDs {
		l := testLink("g"+id, id)
		cfg.Guilds[l.Name] = LinkConfig{GuildID: l.GuildID, ChannelID: l.ChannelID, WebhookID: l.WebhookID, WebhookToken: l.WebhookToken}
	}
	return cfg
}

type handlerFixture struct {
	handler   *Handler
	transport *fakeTransport
	replier   *fakeReplier
}

func newHandlerFixture(t testing.TB, cfg *Config, flags mentionfmt.Flags, failing ...string) *handlerFixture {
	t.Helper()
	ft := newFakeTransport(failing...)
	fr := &fakeReplier{}
	relayer := NewRelayer(ft, NewStateDirectory(newTestState(t)), flags, zerolog.Nop())
	return &handlerFixture{
		handler:   NewHandler(cfg, relayer, fr, zerolog.Nop()),
		transport: ft,
		replier:   fr,
	}
}

func annAuthor() *Author {
	return &Author{ID: "123", Username: "Ann", Discriminator: "0001", AvatarURL: "https://cdn.example/ann.png"}
}

func postedIn(guildID, content string) *Inbound {
	return &Inbound{
		ID:        "m1",
		GuildID:   guildID,
		ChannelID: guildID[:1] + "10",
		Author:    annAuthor(),
		Content:   content,
	}
}
