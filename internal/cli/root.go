// Package cli wires the dinesync commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dinesync/dinesync/internal/config"
)

var (
	flagURL  string
	flagHost string
	flagPort int
)

var rootCmd = &cobra.Command{
	Use:   "dinesync",
	Short: "Realtime client tools for the restaurant platform",
	Long: `dinesync connects to the restaurant platform's realtime channel and
keeps order and waiter-call state live. It also ships a development server
speaking the same wire contract for local work.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "explicit realtime endpoint (overrides host/port)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "realtime server host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "realtime server port")
}

// loadConfig layers CLI flags over the file/env config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagURL != "" {
		cfg.RealtimeURL = flagURL
	}
	if flagHost != "" {
		cfg.RealtimeHost = flagHost
	}
	if flagPort != 0 {
		cfg.RealtimePort = flagPort
	}
	return cfg, nil
}
