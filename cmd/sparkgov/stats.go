package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/monitor"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded usage by user and endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			sink, err := monitor.NewSink(cfg.DBPath, cfg.Monitor.RetentionDays)
			if err != nil {
				return err
			}
			defer sink.Close()

			rows, err := sink.UsageSummary(userID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tENDPOINT\tREQUESTS\tCACHE HITS\tTOTAL COST")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t$%.4f\n",
					r.UserID, r.Endpoint, r.Requests, r.CacheHits, r.TotalCost)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sparkgov.yaml", "path to config file")
	cmd.Flags().StringVar(&userID, "user", "", "filter by user ID")
	return cmd
}
