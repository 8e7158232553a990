// Copyright 2024-2026 Aiku AI

package relay

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	up "go.mau.fi/util/configupgrade"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/aiku/guild-relay/pkg/relay/mentionfmt"
)

//go:embed example-config.yaml
var ExampleConfig string

// TokenEnv overrides Config.Token when set.
const TokenEnv = "GUILD_RELAY_TOKEN"

const (
	defaultMaxMessageLength = 2000
	defaultEditMarker       = "*(edited)*"
	defaultMessageCache     = 25
)

var (
	ErrNoToken        = errors.New("no bot token configured")
	ErrNoLinks        = errors.New("no guilds configured")
	ErrIncompleteLink = errors.New("incomplete guild link")
	ErrDuplicateGuild = errors.New("guild linked more than once")
)

// Config holds the relay configuration.
type Config struct {
	Token string `yaml:"token"`

	MaxMessageLength int    `yaml:"max_message_length"`
	EditMarker       string `yaml:"edit_marker"`
	AnnounceReady    bool   `yaml:"announce_ready"`
	RequestMembers   bool   `yaml:"request_members"`
	AllowEveryone    bool   `yaml:"allow_everyone"`
	MessageCache     int    `yaml:"message_cache"`
	// AdminAPIAddr is the listen address for /api/links and /metrics.
	// Leave empty to disable the admin API.
	AdminAPIAddr string `yaml:"admin_api_addr"`

	EnhancedMention EnhancedMention       `yaml:"enhanced_mention"`
	Guilds          map[string]LinkConfig `yaml:"guilds"`

	Logging zeroconfig.Config `yaml:"logging"`
}

// EnhancedMention toggles live re-resolution per mention class.
type EnhancedMention struct {
	User    bool `yaml:"user"`
	Role    bool `yaml:"role"`
	Channel bool `yaml:"channel"`
}

// Flags converts the config block into codec flags.
func (em EnhancedMention) Flags() mentionfmt.Flags {
	return mentionfmt.Flags{User: em.User, Role: em.Role, Channel: em.Channel}
}

// LinkConfig is one entry of the guilds map.
type LinkConfig struct {
	GuildID      string `yaml:"guild_id"`
	ChannelID    string `yaml:"channel_id"`
	WebhookID    string `yaml:"webhook_id"`
	WebhookToken string `yaml:"webhook_token"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	raw := rawConfig{
		MaxMessageLength: defaultMaxMessageLength,
		EditMarker:       defaultEditMarker,
		AnnounceReady:    true,
		RequestMembers:   true,
		MessageCache:     defaultMessageCache,
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = Config(raw)
	return nil
}

// PostProcess validates the config and fills in values that were left at
// their zero value.
func (c *Config) PostProcess() error {
	if c.Token == "" {
		return ErrNoToken
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = defaultMaxMessageLength
	}
	if c.MessageCache < 0 {
		c.MessageCache = 0
	}
	if len(c.Guilds) == 0 {
		return ErrNoLinks
	}
	seen := make(map[string]string, len(c.Guilds))
	for _, name := range c.LinkNames() {
		link := c.Guilds[name]
		if link.GuildID == "" || link.ChannelID == "" || link.WebhookID == "" || link.WebhookToken == "" {
			return fmt.Errorf("%w: %s", ErrIncompleteLink, name)
		}
		if other, ok := seen[link.GuildID]; ok {
			return fmt.Errorf("%w: %s is used by both %s and %s", ErrDuplicateGuild, link.GuildID, other, name)
		}
		seen[link.GuildID] = name
	}
	return nil
}

// LinkNames returns the configured link names in sorted order.
func (c *Config) LinkNames() []string {
	names := make([]string, 0, len(c.Guilds))
	for name := range c.Guilds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "token")
	helper.Copy(up.Int, "max_message_length")
	helper.Copy(up.Str, "edit_marker")
	helper.Copy(up.Bool, "announce_ready")
	helper.Copy(up.Bool, "request_members")
	helper.Copy(up.Bool, "allow_everyone")
	helper.Copy(up.Int, "message_cache")
	helper.Copy(up.Str, "admin_api_addr")
	helper.Copy(up.Bool, "enhanced_mention", "user")
	helper.Copy(up.Bool, "enhanced_mention", "role")
	helper.Copy(up.Bool, "enhanced_mention", "channel")
	helper.Copy(up.Map, "guilds")
	helper.Copy(up.Map, "logging")
}

// Upgrader returns the config upgrader used by LoadConfig.
func Upgrader() up.BaseUpgrader {
	return &up.StructUpgrader{
		SimpleUpgrader: up.SimpleUpgrader(upgradeConfig),
		Blocks: [][]string{
			{"max_message_length"},
			{"enhanced_mention"},
			{"guilds"},
			{"logging"},
		},
		Base: ExampleConfig,
	}
}

// LoadConfig reads the config at path, merges it onto the example config so
// new keys get their defaults, optionally writes the result back, and
// validates it.
func LoadConfig(path string, save bool) (*Config, error) {
	data, _, err := up.Do(path, save, Upgrader())
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates raw YAML. TokenEnv takes precedence over
// the token in the file.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Token = token
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
