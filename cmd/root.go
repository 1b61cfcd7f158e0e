// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Connection flags, shared by every subcommand
	portName string
	baudRate int

	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Config and logging flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "heliograph",
	Short: "VE.Direct Telemetry Monitor",
	Long: `Heliograph - A CLI tool for monitoring and decoding VE.Direct telemetry
from Victron solar charge controllers and battery monitors.

Provides commands for live frame monitoring, link diagnostics, frame
recording and replay, synthetic device simulation, and a full-screen
telemetry dashboard.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200]
  WebSocket: --url ws://host/path [--username user]

Settings can also come from a YAML config file (--config, default
~/.heliograph.yaml). Explicit flags override file values.

For WebSocket authentication, the password is read from the HELIOGRAPH_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.4.0",
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if cfg != nil {
			applyConfig(cfg)
		}
		return setupLogging(logLevel)
	}

	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", vedirect.DefaultBaudRate, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Config and logging flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default ~/.heliograph.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Diagnostic log level (trace, debug, info, warn, error)")
}

// setupLogging routes diagnostics through zerolog on stderr. Frame output
// stays on stdout.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %v", level, err)
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	log.Logger = zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
