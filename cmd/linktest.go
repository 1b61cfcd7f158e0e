// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Detect and analyze corrupted frames and anomalous values",
	Long: `Track checksum failures, malformed lines, and anomalous values with statistics.

This command validates each frame and detects:
  - Checksum mismatches and malformed lines (dropped by the decoder)
  - Label/value buffer overflows
  - Anomalous telemetry values (battery voltage out of range, unknown
    charge states, non-numeric fields)
  - Statistics and trends (frame rate, error rate, success rate)

By default, only errors are displayed. Use --show-all to display valid frames too.

Frames are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	linkTestCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	linkTestCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runLinkTUIMode(conn, connInfo)
	}
	return runLinkTextMode(conn, connInfo)
}

// printDecodeError renders one decode error with a timestamp, red when
// the terminal supports it
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> FRAME DROPPED <<<\n\n")
}

// printValidationErrors prints validation errors for a checksum-valid frame
func printValidationErrors(frame *vedirect.Frame, errors []vedirect.ValidationError) {
	timestamp := frame.Timestamp().Format("15:04:05.000")

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m frame with %d fields\n", timestamp, frame.Len())
	fmt.Printf("  Checksum: \033[1;32mOK\033[0m\n")

	for i, err := range errors {
		switch err.Type {
		case vedirect.AnomalyNonNumeric, vedirect.AnomalyInvalidValue:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
			if label, ok := err.Details["label"].(string); ok {
				if value, ok := err.Details["value"].(string); ok {
					fmt.Printf("    %s=%q\n", label, value)
				}
			}

		case vedirect.AnomalyVoltageRange:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if volts, ok := err.Details["value"].(float64); ok {
				if max, ok := err.Details["max"].(float64); ok {
					fmt.Printf("    Voltage=%.3f V (valid: 0 to %.0f V)\n", volts, max)
				}
			}

		case vedirect.AnomalyPowerRange:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if watts, ok := err.Details["value"].(int64); ok {
				fmt.Printf("    Power=%d W (valid: 0 to 2000 W)\n", watts)
			}

		case vedirect.AnomalyUnknownEnum:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)

		case vedirect.AnomalyDayRange:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if day, ok := err.Details["value"].(int64); ok {
				fmt.Printf("    HSDS=%d (valid: 0-365)\n", day)
			}

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}

	// Print charge state for context
	if state, ok := frame.ChargeState(); ok {
		fmt.Printf("  State: %s\n", vedirect.FormatChargeState(state))
	}

	fmt.Printf("  >>> ANOMALOUS FRAME <<<\n\n")
}

// runLinkTUIMode runs the link test in TUI mode
func runLinkTUIMode(conn Connection, connInfo string) error {
	decoder := vedirect.NewDecoder()
	synchronized := false
	discardedBeforeSync := 0

	// Monitor model plus a reader goroutine feeding it
	m := initialLinkModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	decoder.SetHexRecordHandler(func(vedirect.HexRecord) {
		p.Send(linkHexMsg{})
	})

	// Reader goroutine
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					return
				}
				log.Error().Err(err).Msg("Read error")
				continue
			}

			for i := 0; i < n; i++ {
				frame, decodeErr := decoder.DecodeByte(buf[i])

				if decodeErr != nil {
					if synchronized {
						// Reportable once synced; partial input before that
						p.Send(linkDataMsg{
							frame:            nil,
							decodeErr:        decodeErr,
							validationErrors: nil,
						})
					} else {
						// Not synced yet, attaching mid-frame drops partials
						discardedBeforeSync++
					}
				} else if frame != nil {
					// Successfully decoded a frame
					if !synchronized {
						// First frame! We're now synchronized
						synchronized = true
						p.Send(linkSyncMsg{discarded: discardedBeforeSync})
					}

					// Validate frame
					validationErrors := vedirect.ValidateFrame(frame)
					p.Send(linkDataMsg{
						frame:            frame,
						decodeErr:        nil,
						validationErrors: validationErrors,
					})
				}
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}

// runLinkTextMode runs the link test in text mode (original behavior)
func runLinkTextMode(conn Connection, connInfo string) error {
	fmt.Printf("Heliograph - Link Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := vedirect.NewDecoder()
	stats := vedirect.NewStatistics()
	buf := make([]byte, 128)

	decoder.SetHexRecordHandler(func(vedirect.HexRecord) {
		stats.CountHexRecord()
	})

	// Sync tracking - ignore decode errors until first valid frame
	synchronized := false
	discardedBeforeSync := 0

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking reads
	serialBuf := make(chan []byte, 10)
	go func() {
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					return
				}
				log.Error().Err(err).Msg("Read error")
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			serialBuf <- data
		}
	}()

	for {
		select {
		case data := <-serialBuf:
			for _, b := range data {
				frame, decodeErr := decoder.DecodeByte(b)

				if decodeErr != nil {
					if synchronized {
						// Past first sync every decode error is reportable
						stats.Update(nil, decodeErr, nil)
						printDecodeError(decodeErr)
					} else {
						// Not synced yet, attaching mid-frame drops partials
						discardedBeforeSync++
					}
				} else if frame != nil {
					// Successfully decoded a frame
					if !synchronized {
						// First frame! We're now synchronized
						synchronized = true
						if discardedBeforeSync > 0 {
							fmt.Printf("[SYNC] Synchronized after discarding %d partial lines\n\n", discardedBeforeSync)
						} else {
							fmt.Printf("[SYNC] Synchronized\n\n")
						}
					}

					// Validate frame
					validationErrors := vedirect.ValidateFrame(frame)
					stats.Update(frame, nil, validationErrors)

					// Print frame or error based on mode
					if len(validationErrors) > 0 {
						printValidationErrors(frame, validationErrors)
					} else if showAll {
						// Print valid frame (only if --show-all flag is set)
						fmt.Print(vedirect.FormatFrame(frame))
					}
				}
			}

		case <-statsTicker.C:
			// Print statistics
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
