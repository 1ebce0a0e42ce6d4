package main

import (
	"fmt"
	"strings"

	"github.com/querybot-ai/querybot/pkg/budget"
	"github.com/querybot-ai/querybot/pkg/cache"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/history"
	"github.com/querybot-ai/querybot/pkg/llm"
	"github.com/querybot-ai/querybot/pkg/policy"
	"github.com/querybot-ai/querybot/pkg/tracker"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var configPath string
	var user string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question from the command line",
		Args:  cobra.MinimumNArgs(1),
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

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init tracker: %w", err)
			}
			defer func() { _ = tr.Close() }()

			var enforcer *budget.Enforcer
			if cfg.Budget.Enabled {
				enforcer = budget.New(cfg.Budget.Policies, tr)
			}

			client, err := llm.New(cfg.Provider)
			if err != nil {
				return fmt.Errorf("init provider: %w", err)
			}

			c := cache.New(store, cfg.Namespace, cacheKind(cfg.Mode), cfg.Cache.AnswerTTL, cfg.Cache.SeenTTL)
			h := history.New(store, cfg.History.TTL, cfg.History.Limit)
			p := policy.New(cfg.Mode, c, h, client, tr, enforcer)

			reply, err := p.Ask(ctx, user, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Printf("[%s] %s\n", reply.Mode, reply.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "querybot.yaml", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "default", "user to ask as")
	return cmd
}
