// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/spf13/cobra"
)

var wsTestCmd = &cobra.Command{
	Use:   "ws_test",
	Short: "Test WebSocket connection stability",
	Long: `Test the connection to a serial bridge without a TUI.

This command connects, decodes whatever arrives, and logs per-frame
activity for the requested duration. Useful for debugging connection
stability issues with WebSocket serial bridges.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runWsTest,
}

var wsTestDuration int

func init() {
	rootCmd.AddCommand(wsTestCmd)
	wsTestCmd.Flags().IntVar(&wsTestDuration, "duration", 30, "Test duration in seconds")
}

// wsTestResults accumulates stream health counters over the test run
type wsTestResults struct {
	bytesReceived  int
	framesDecoded  int
	checksumErrors int
	malformedLines int
}

func (r *wsTestResults) print(elapsed time.Duration) {
	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", elapsed.Round(time.Second))
	fmt.Printf("Frames decoded: %d\n", r.framesDecoded)
	fmt.Printf("Bytes received: %d\n", r.bytesReceived)
	fmt.Printf("Checksum errors: %d\n", r.checksumErrors)
	fmt.Printf("Malformed or partial lines: %d\n", r.malformedLines)
}

// consume runs a chunk of stream bytes through the decoder, counting frames
// and error classes, and logs each completed frame.
func (r *wsTestResults) consume(decoder *vedirect.Decoder, data []byte) {
	r.bytesReceived += len(data)
	for _, b := range data {
		frame, err := decoder.DecodeByte(b)
		switch {
		case err != nil:
			var checksumErr *vedirect.ChecksumError
			if errors.As(err, &checksumErr) {
				r.checksumErrors++
			} else {
				r.malformedLines++
			}
		case frame != nil:
			r.framesDecoded++
			fmt.Printf("[%s] Frame #%d (%d fields)\n",
				time.Now().Format("15:04:05.000"), r.framesDecoded, frame.Len())
		}
	}
}

func runWsTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("WebSocket Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", wsTestDuration)

	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				readChan <- chunk
			}
		}
	}()

	decoder := vedirect.NewDecoder()
	results := &wsTestResults{}
	started := time.Now()
	deadline := time.After(time.Duration(wsTestDuration) * time.Second)

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	fmt.Printf("Listening for data...\n\n")

	for {
		select {
		case data := <-readChan:
			results.consume(decoder, data)

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			results.print(time.Since(started))
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-heartbeat.C:
			remaining := float64(wsTestDuration) - time.Since(started).Seconds()
			fmt.Printf("[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)

		case <-deadline:
			results.print(time.Since(started))
			fmt.Printf("Result: PASSED (connection stable)\n")
			return nil
		}
	}
}
