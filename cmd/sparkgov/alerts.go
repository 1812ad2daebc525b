package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/config"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/monitor"
)

func newAlertsCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List fired alerts, newest first",
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

			alerts, err := sink.AlertHistory(limit)
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Println("No alerts recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FIRED\tTYPE\tSEVERITY\tOBSERVED\tTHRESHOLD\tMESSAGE")
			for _, a := range alerts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
					a.FiredAt.Format("2006-01-02T15:04:05"), a.Type, a.Severity, a.ObservedValue, a.Threshold, a.Message)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sparkgov.yaml", "path to config file")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum alerts to show")
	return cmd
}
