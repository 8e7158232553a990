// Copyright 2024-2026 Aiku AI

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiku/guild-relay/pkg/relay"
)

const testConfig = `
token: abc
guilds:
    main:
        guild_id: "100"
        channel_id: "110"
        webhook_id: "120"
        webhook_token: secret
    side:
        guild_id: "200"
        channel_id: "210"
        webhook_id: "220"
        webhook_token: secret
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	out, err := execute(t, "check-config", "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "main\tguild=100 channel=110")
	assert.Contains(t, out, "side\tguild=200 channel=210")
	assert.Contains(t, out, "Config OK, 2 links")
	assert.NotContains(t, out, "secret")
}

func TestCheckConfigInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: abc\n"), 0o600))

	_, err := execute(t, "check-config", "-c", path)
	assert.ErrorIs(t, err, relay.ErrNoLinks)
}

func TestRunRejectsArgs(t *testing.T) {
	t.Parallel()
	_, err := execute(t, "run", "extra")
	assert.Error(t, err)
}
