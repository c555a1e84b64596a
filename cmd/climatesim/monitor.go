package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/lologarithm/climatesim/rnet"
	"gitlab.com/lologarithm/climatesim/view"
)

func (c *cli) monitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print ticks broadcast by a running loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var conn *net.UDPConn
			if c.direct {
				local, err := net.ResolveUDPAddr("udp", ":0")
				if err != nil {
					return err
				}
				if conn, err = net.ListenUDP("udp", local); err != nil {
					return fmt.Errorf("failed to listen to udp socket: %w", err)
				}
				if err := rnet.Subscribe(ctx, conn, cfg.Broadcast.Discovery, c.name, time.Minute); err != nil {
					conn.Close()
					return err
				}
				log.Printf("Pinged %s, waiting for ticks on %s.", cfg.Broadcast.Discovery, conn.LocalAddr())
			} else {
				if conn, err = rnet.JoinGroup(cfg.Broadcast.Group); err != nil {
					return fmt.Errorf("failed to listen to broadcast address: %w", err)
				}
				log.Printf("Now listening to %s for ticks.", cfg.Broadcast.Group)
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			text := view.NewText(out)
			for s := range rnet.Listen(ctx, conn) {
				fmt.Fprintf(out, "[%s] tick %d, mode %s\n", s.Run, s.Tick, s.Mode)
				if err := text.Display(s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	host, _ := os.Hostname()
	cmd.Flags().BoolVar(&c.direct, "direct", false, "ping the discovery group and receive ticks directly")
	cmd.Flags().StringVar(&c.name, "name", host, "name sent with discovery pings")
	return cmd
}
