// Command climatesim runs the simulated climate control loop.
package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"gitlab.com/lologarithm/climatesim/config"
)

// cli holds the flag values of one command tree.
type cli struct {
	configPath string
	envPath    string

	ticks    int
	interval time.Duration

	direct bool
	name   string

	limit int
}

// newRootCmd builds the command tree with fresh flag state.
func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "climatesim",
		Short: "Simulated climate control: temperature drives valve flow, valve flow drives the fan.",
		Long: `climatesim feeds a temperature reading into a hysteresis controller each ` +
			`tick. The controller sets the water valve flow and the fan intensity ` +
			`follows the valve. Every tick is rendered on the configured views.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "yaml config file")
	root.PersistentFlags().StringVar(&c.envPath, "env", ".env", "dotenv file with secrets")
	root.AddCommand(c.runCmd(), c.serveCmd(), c.monitorCmd(), c.historyCmd())
	return root
}

// loadConfig reads --config and --env.
func (c *cli) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.LoadEnv(c.envPath)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("[Error] %s", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
