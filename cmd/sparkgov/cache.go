package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	cachesqlite "github.com/GxAditya/LinguaSpark-sub001/pkg/cache/sqlite"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent response cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show persistent cache entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			c, err := cachesqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			n, err := c.Count()
			if err != nil {
				return err
			}
			fmt.Printf("Entries: %d\n", n)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			c, err := cachesqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if expiredOnly {
				n, err := c.Sweep(time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d expired entries.\n", n)
				return nil
			}
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sparkgov.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
