// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	watchShowRaw bool
	watchLabels  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display decoded telemetry frames in human-readable format",
	Long: `Continuously decode and display VE.Direct frames as they arrive.

Each checksum-valid frame is printed with a timestamp, the device product
name when a PID field is present, and one line per field with scaled values
and enum names. Frames that fail the checksum are dropped silently; the
decoder resynchronizes on the next frame boundary.

Use --labels to restrict output to a comma-separated set of wire labels
(e.g. --labels V,I,PPV), and --show-raw to append a hex dump of each
frame's wire bytes.

Supports both serial and WebSocket connections.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchShowRaw, "show-raw", false, "Hex-dump the raw bytes of each frame")
	watchCmd.Flags().StringVar(&watchLabels, "labels", "", "Comma-separated list of labels to display (default all)")
}

// parseLabelFilter turns the --labels value into a lookup set (nil = no filter)
func parseLabelFilter(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	filter := make(map[string]bool)
	for _, label := range strings.Split(raw, ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			filter[label] = true
		}
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

func runWatch(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Heliograph - Live Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	filter := parseLabelFilter(watchLabels)

	decoder := vedirect.NewDecoder()
	decoder.SetHexRecordHandler(func(rec vedirect.HexRecord) {
		log.Debug().Int("payload_len", len(rec.Payload())).Msg("HEX record skipped")
	})

	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// A closed WebSocket never delivers more bytes; stop cleanly
			if err == ErrConnectionClosed {
				log.Info().Msg("Connection closed")
				return nil
			}
			log.Error().Err(err).Msg("Read error")
			continue
		}

		for _, frame := range decoder.Feed(buf[:n]) {
			printWatchFrame(frame, filter)
		}
	}
}

func printWatchFrame(frame *vedirect.Frame, filter map[string]bool) {
	if filter == nil {
		fmt.Print(vedirect.FormatFrame(frame))
	} else {
		printed := false
		for _, label := range frame.Labels() {
			if !filter[label] {
				continue
			}
			if !printed {
				fmt.Printf("[%s] FRAME\n", frame.Timestamp().Format("15:04:05.000"))
				printed = true
			}
			value, _ := frame.Get(label)
			fmt.Print(vedirect.FormatField(label, value))
		}
		if !printed {
			return
		}
	}

	if watchShowRaw {
		fmt.Printf("  raw       %X\n", frame.Raw())
	}
}
