package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/lologarithm/climatesim/climate"
	"gitlab.com/lologarithm/climatesim/stats"
)

func (c *cli) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded ticks from the configured stats backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if c.limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", c.limit)
			}

			var events []climate.Snapshot
			switch cfg.Stats.Backend {
			case "sqlite":
				rec, err := stats.NewSQLiteRecorder(cfg.Stats.Path, cfg.Stats.Batch)
				if err != nil {
					return err
				}
				defer rec.Close()
				if events, err = rec.History(c.limit); err != nil {
					return err
				}
			case "gob":
				if events, err = stats.LoadStats(cfg.Stats.Dir); err != nil {
					return err
				}
				if c.limit > 0 && len(events) > c.limit {
					events = events[len(events)-c.limit:]
				}
			default:
				return errors.New("no stats backend configured")
			}

			out := cmd.OutOrStdout()
			for _, s := range events {
				fmt.Fprintf(out, "%s %s #%d  ATS: %d°C  Water Valve: %d%%  Fan intensity: %d%%  (%s)\n",
					s.Time.Format("2006-01-02 15:04:05"), s.Run, s.Tick, s.ATS, s.WaterValve, s.Fan, s.Mode)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&c.limit, "limit", 0, "only the last n ticks, 0 prints all")
	return cmd
}
