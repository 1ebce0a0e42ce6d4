package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/querybot-ai/querybot/pkg/budget"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/tracker"
	"github.com/spf13/cobra"
)

func newUsageCmd() *cobra.Command {
	var configPath string
	var user string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token usage per user and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init tracker: %w", err)
			}
			defer func() { _ = tr.Close() }()

			ctx := cmd.Context()
			summaries, err := tr.Summary(ctx, user)
			if err != nil {
				return fmt.Errorf("fetch usage: %w", err)
			}

			if len(summaries) == 0 {
				fmt.Println("No usage recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tMODEL\tCALLS\tPROMPT\tCOMPLETION\tTOTAL")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
					s.User, s.Model, s.CallCount, s.TotalPrompt, s.TotalCompletion, s.TotalTokens)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if cfg.Budget.Enabled && user != "" {
				e := budget.New(cfg.Budget.Policies, tr)
				statuses, err := e.Status(ctx, user)
				if err != nil {
					return fmt.Errorf("budget status: %w", err)
				}
				for _, st := range statuses {
					fmt.Printf("\nBudget %q: %d/%d tokens used today (%d remaining)\n",
						st.Policy.User, st.Used, st.Policy.MaxTokens, st.Remaining)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "querybot.yaml", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "", "filter usage by user")
	return cmd
}
