// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/spf13/cobra"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid VE.Direct frame",
	Long: `Wait for a valid VE.Direct frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any
checksum-valid VE.Direct frame. It ignores corrupted or partial input and
waits for a complete frame (byte sum over the frame equals zero mod 256).

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for testing connectivity to a charge controller or WebSocket bridge.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Heliograph - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid VE.Direct frame...\n\n")

	decoder := vedirect.NewDecoder()
	buf := make([]byte, 128)

	// Channel for frame reception
	frameChan := make(chan *vedirect.Frame, 1)
	errChan := make(chan error, 1)

	// Decode in the background; the select below owns the verdict
	go func() {
		discarded := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				frame, decodeErr := decoder.DecodeByte(buf[i])
				if decodeErr != nil {
					// Ignore decode errors, just count discarded partials
					discarded++
					continue
				}
				if frame != nil {
					// Got a valid frame!
					if discarded > 0 {
						fmt.Printf("(discarded %d partial or corrupted lines before sync)\n", discarded)
					}
					frameChan <- frame
					return
				}
			}
		}
	}()

	// Wait for frame or timeout
	select {
	case frame := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Fields: %d\n", frame.Len())
		if pid, ok := frame.ProductID(); ok {
			fmt.Printf("  Product: %s\n", vedirect.ProductName(pid))
		}
		if volts, ok := frame.BatteryVolts(); ok {
			fmt.Printf("  Battery: %.3f V\n", volts)
		}
		fmt.Printf("  Checksum: OK\n")
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}
