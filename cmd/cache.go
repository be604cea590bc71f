package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/store"
)

var cachePurgePattern string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the durable cache store",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached entries by glob pattern",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kv, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer kv.Close()

		removed, err := kv.DeleteByPattern(ctx, cachePurgePattern)
		if err != nil {
			return err
		}
		zap.L().Info("cache purge complete",
			zap.String("pattern", cachePurgePattern), zap.Int("removed", removed))
		return nil
	},
}

var cacheExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Remove entries whose TTL has lapsed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kv, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer kv.Close()

		removed, err := kv.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("expired entries removed", zap.Int("removed", removed))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report entry counts per cache namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kv, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer kv.Close()

		for _, ns := range []string{cache.NSSearch, cache.NSExtract, cache.NSDecision} {
			n, err := kv.Count(ctx, ns+"*")
			if err != nil {
				return err
			}
			zap.L().Info("cache namespace", zap.String("namespace", ns), zap.Int("entries", n))
		}
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().StringVar(&cachePurgePattern, "pattern", "*", "glob pattern (e.g. \"search:*\")")
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheExpireCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
