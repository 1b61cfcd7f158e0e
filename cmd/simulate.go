// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	simProfile  string
	simInterval time.Duration
	simCount    int
	simSeed     int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Emit synthetic VE.Direct frames for testing",
	Long: `Generate a plausible VE.Direct telemetry stream without hardware.

Profiles:
  mppt   - solar charge controller (panel voltage, charge state, yield)
  shunt  - battery monitor (voltage, current, state of charge)

Frames go to stdout by default, so the output can be piped or redirected.
With --port the frames are written to a serial device instead, which is
useful with a null-modem cable or a pty pair for end-to-end testing.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simProfile, "profile", "mppt", "device profile (mppt or shunt)")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", time.Second, "delay between frames")
	simulateCmd.Flags().IntVar(&simCount, "count", 0, "stop after this many frames (0 = unlimited)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed (0 = time-based)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	seed := simSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var profile *vedirect.SimProfile
	switch simProfile {
	case "mppt":
		profile = vedirect.NewMPPTProfile(seed)
	case "shunt":
		profile = vedirect.NewShuntProfile(seed)
	default:
		return fmt.Errorf("unknown profile %q (use mppt or shunt)", simProfile)
	}

	var w io.Writer
	if portName != "" {
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return err
		}
		defer conn.Close()
		w = conn

		fmt.Printf("Heliograph - Frame Simulator\n")
		fmt.Printf("Connection: Serial: %s @ %d baud\n", portName, baudRate)
		fmt.Printf("Profile: %s (PID %s)\n", simProfile, profile.ProductID())
		fmt.Printf("Press Ctrl+C to exit\n\n")
	} else {
		// Frames go to stdout; keep diagnostics off it
		w = os.Stdout
		log.Info().
			Str("profile", simProfile).
			Str("pid", profile.ProductID()).
			Int64("seed", seed).
			Msg("Simulating to stdout")
	}

	sent := 0
	for {
		frame := profile.NextFrame()
		if _, err := w.Write(vedirect.MustEncodeFrame(frame)); err != nil {
			return fmt.Errorf("failed to write frame: %v", err)
		}
		sent++
		if simCount > 0 && sent >= simCount {
			break
		}
		time.Sleep(simInterval)
	}

	log.Info().Int("frames", sent).Msg("Simulation complete")
	return nil
}
