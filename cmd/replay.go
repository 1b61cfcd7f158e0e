// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <archive>",
	Short: "Print frames from a CBOR archive in human-readable format",
	Long: `Read a CBOR archive written by the record command and print each
frame with its original capture timestamp, exactly as the watch command
would have shown it live.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", args[0], err)
	}
	defer f.Close()

	reader := vedirect.NewFrameReader(f)
	count := 0
	for {
		frame, err := reader.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read archive: %v", err)
		}
		fmt.Print(vedirect.FormatFrame(frame))
		count++
	}

	fmt.Printf("\nReplayed %d frames from %s\n", count, args[0])
	return nil
}
