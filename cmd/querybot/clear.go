package main

import (
	"fmt"

	"github.com/querybot-ai/querybot/pkg/cache"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/history"
	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	var configPath string
	var user string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear a user's cached answers, seen flags, and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect backend: %w", err)
			}
			defer func() { _ = store.Close() }()

			c := cache.New(store, cfg.Namespace, cacheKind(cfg.Mode), cfg.Cache.AnswerTTL, cfg.Cache.SeenTTL)
			removed, err := c.Clear(ctx, user)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			h := history.New(store, cfg.History.TTL, cfg.History.Limit)
			if err := h.Clear(ctx, user); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}

			fmt.Printf("Cleared %d cache keys and the history log for user %q.\n", removed, user)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "querybot.yaml", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "default", "user whose state to clear")
	return cmd
}
