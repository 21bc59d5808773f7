package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tspart/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the tour cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached tours",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == backendNone {
				printInfo("Cache is disabled")
				return nil
			}

			store, err := newCache(cmd, cfg.Cache, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("cache backend %q cannot be cleared", cfg.Cache.Backend)
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached tours", count)
			printDetail("Location: %s", cacheLocation(store))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case backendNone:
				fmt.Println("none")
			case backendRedis:
				addr := cfg.Cache.RedisAddr
				if addr == "" {
					addr = "localhost:6379"
				}
				fmt.Println("redis://" + addr)
			default:
				dir := cfg.Cache.Dir
				if dir == "" {
					if dir, err = cacheDir(); err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
				}
				fmt.Println(dir)
			}
			return nil
		},
	}
}

// cacheLocation describes where store keeps its entries.
func cacheLocation(store cache.Cache) string {
	switch s := store.(type) {
	case *cache.FileCache:
		return s.Dir()
	case *cache.RedisCache:
		return "redis://" + s.Addr()
	default:
		return "none"
	}
}
