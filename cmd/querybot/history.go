package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var configPath string
	var user string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's recent questions and answers",
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

			h := history.New(store, cfg.History.TTL, cfg.History.Limit)
			records, err := h.Recent(ctx, user, limit)
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}

			if len(records) == 0 {
				fmt.Printf("No history for user %q.\n", user)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tQUESTION\tANSWER")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rec.FormattedTime, truncate(rec.Question, 48), truncate(rec.Answer, 64))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "querybot.yaml", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "default", "user whose history to show")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max records to show (0 = history cap)")
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
