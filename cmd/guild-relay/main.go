// Copyright 2024-2026 Aiku AI

// Command guild-relay mirrors one channel per Discord guild into every other
// linked guild through webhooks, translating mentions between guilds.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aiku/guild-relay/pkg/relay"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func newRootCmd() *cobra.Command {
	var configPath string
	var noUpdate bool

	rootCmd := &cobra.Command{
		Use:           "guild-relay",
		Short:         "Relay messages between linked Discord guilds",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Tag, Commit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and start relaying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd.Context(), configPath, !noUpdate)
		},
	}
	runCmd.Flags().BoolVar(&noUpdate, "no-update", false, "don't write the upgraded config back to disk")

	checkCmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the config and list the configured links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := relay.LoadConfig(configPath, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range cfg.LinkNames() {
				link := cfg.Guilds[name]
				fmt.Fprintf(out, "%s\tguild=%s channel=%s\n", name, link.GuildID, link.ChannelID)
			}
			fmt.Fprintf(out, "Config OK, %d links\n", len(cfg.Guilds))
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, checkCmd)
	return rootCmd
}

func runRelay(ctx context.Context, configPath string, save bool) error {
	cfg, err := relay.LoadConfig(configPath, save)
	if err != nil {
		return err
	}
	log, err := cfg.Logging.Compile()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Info().
		Str("version", Tag).
		Str("commit", Commit).
		Strs("links", cfg.LinkNames()).
		Msg("Starting guild relay")

	bridge, err := relay.NewBridge(cfg, *log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := bridge.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info().Msg("Shutting down")
	return bridge.Stop()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Failed to load .env file:", err)
	}
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
