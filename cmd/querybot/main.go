package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/querybot-ai/querybot/pkg/cache"
	"github.com/querybot-ai/querybot/pkg/config"
	kvredis "github.com/querybot-ai/querybot/pkg/kv/redis"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "querybot",
		Short:   "Cached question answering in front of hosted LLM APIs",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newHistoryCmd(),
		newClearCmd(),
		newUsageCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore connects to the key-value backend and verifies connectivity
// up front, so a dead backend fails the command instead of the first request.
func openStore(ctx context.Context, cfg *config.Config) (*kvredis.Store, error) {
	store := kvredis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// cacheKind maps the policy mode to the entry kind stored in the cache.
func cacheKind(mode string) string {
	if mode == config.ModeSimple {
		return cache.KindAnswer
	}
	return cache.KindSummary
}
