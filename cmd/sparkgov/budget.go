package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/monitor"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show recorded spend against the daily budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Monitor.DailyBudget <= 0 {
				fmt.Println("No daily budget configured.")
				return nil
			}

			sink, err := monitor.NewSink(cfg.DBPath, cfg.Monitor.RetentionDays)
			if err != nil {
				return err
			}
			defer sink.Close()

			midnight := time.Now().UTC().Truncate(24 * time.Hour)
			spent, err := sink.SpentSince(midnight)
			if err != nil {
				return err
			}

			remaining := cfg.Monitor.DailyBudget - spent
			if remaining < 0 {
				remaining = 0
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DAILY BUDGET\tSPENT TODAY\tREMAINING")
			fmt.Fprintf(w, "$%.4f\t$%.4f\t$%.4f\n", cfg.Monitor.DailyBudget, spent, remaining)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sparkgov.yaml", "path to config file")
	return cmd
}
