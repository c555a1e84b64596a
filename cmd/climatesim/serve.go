package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"gitlab.com/lologarithm/climatesim/loop"
	"gitlab.com/lologarithm/climatesim/rnet"
	"gitlab.com/lologarithm/climatesim/server"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loop behind the http server until interrupted",
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

			if a.bcast != nil {
				conn, err := rnet.JoinGroup(cfg.Broadcast.Discovery)
				if err != nil {
					log.Printf("[Error] Not answering pings on %s: %s", cfg.Broadcast.Discovery, err)
				} else {
					defer conn.Close()
					go func() {
						if err := a.bcast.ServePings(ctx, conn); err != nil && ctx.Err() == nil {
							log.Printf("[Error] Ping listener stopped: %s", err)
						}
					}()
				}
			}

			srv := server.New(a.hub, server.Options{
				Users:    cfg.Users,
				History:  a.history,
				Metrics:  a.metrics.Handler(),
				Override: a.source.Set,
			})

			l := loop.New(loop.Options{Ticks: cfg.Ticks, Interval: cfg.Interval}, a.source, a.views...)
			log.Printf("Starting run %s", l.RunID())
			go func() {
				if err := l.Run(ctx); err != nil && ctx.Err() == nil {
					log.Printf("[Error] Loop stopped: %s", err)
				}
				// The last state stays up until interrupted.
				log.Printf("Run %s finished", l.RunID())
			}()

			return srv.ListenAndServe(ctx, cfg.Host)
		},
	}
	c.loopFlags(cmd)
	return cmd
}
