package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/querybot-ai/querybot/pkg/auth"
	"github.com/querybot-ai/querybot/pkg/budget"
	"github.com/querybot-ai/querybot/pkg/cache"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/history"
	"github.com/querybot-ai/querybot/pkg/llm"
	"github.com/querybot-ai/querybot/pkg/policy"
	"github.com/querybot-ai/querybot/pkg/server"
	"github.com/querybot-ai/querybot/pkg/tracker"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the querybot HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

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

			srv := server.New(cfg, p, auth.NewStatic(cfg.Users))

			log.Printf("starting querybot in %s mode with config: %s", cfg.Mode, configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "querybot.yaml", "path to config file")
	return cmd
}
