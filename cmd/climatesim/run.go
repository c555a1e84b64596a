package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"gitlab.com/lologarithm/climatesim/config"
	"gitlab.com/lologarithm/climatesim/loop"
)

func (c *cli) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the loop and print every tick to the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			c.applyLoopFlags(cmd, &cfg)

			a, err := setup(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			l := loop.New(loop.Options{Ticks: cfg.Ticks, Interval: cfg.Interval}, a.source, a.views...)
			err = l.Run(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "Program exit..")
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	c.loopFlags(cmd)
	return cmd
}

func (c *cli) loopFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&c.ticks, "ticks", 0, "number of ticks, 0 runs until interrupted (overrides config)")
	cmd.Flags().DurationVar(&c.interval, "interval", 0, "sleep between ticks (overrides config)")
}

// applyLoopFlags lets explicit flags win over the config file.
func (c *cli) applyLoopFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("ticks") {
		cfg.Ticks = c.ticks
	}
	if cmd.Flags().Changed("interval") {
		cfg.Interval = c.interval
	}
}
