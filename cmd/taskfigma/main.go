// Package main implements the taskfigma server and its admin commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"taskfigma/internal/app"
	"taskfigma/internal/config"
	"taskfigma/internal/middleware"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "taskfigma",
		Short:        "Task tracker with change history and comments",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yaml or .toml), default "+config.DefaultPath)
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	normalizeFlags(root)
	return root
}

// normalizeFlags lets every flag also be spelled with underscores.
func normalizeFlags(cmd *cobra.Command) {
	normalize := func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	}
	cmd.PersistentFlags().SetNormalizeFunc(normalize)
	cmd.Flags().SetNormalizeFunc(normalize)
	for _, sub := range cmd.Commands() {
		normalizeFlags(sub)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and realign project task counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return app.Migrate(ctx, cfg)
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token that acts as the given user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not set")
			}
			tok, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to embed as user_id")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
