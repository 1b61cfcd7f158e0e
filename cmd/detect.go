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
	detectTimeout int
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Identify the attached VE.Direct device",
	Long: `Listen for telemetry and identify the attached device.

VE.Direct devices broadcast their identity in the regular telemetry stream:
the PID field carries the product ID, FW the firmware version, and SER# the
serial number. This command waits for the first frame carrying a PID field
and reports the device details.

No request is sent; the protocol is one-way from the device.

Exit codes:
  0 - Device identified
  1 - Timeout without an identifying frame
  2 - Connection error`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().IntVar(&detectTimeout, "timeout", 5, "Timeout in seconds to wait for identification")
}

type detectedDevice struct {
	pid      uint16
	rawPID   string
	firmware string
	serial   string
	fields   int
}

func runDetect(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Heliograph - Device Detection\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", detectTimeout)
	fmt.Printf("Listening for an identifying frame...\n")

	decoder := vedirect.NewDecoder()

	deviceChan := make(chan detectedDevice, 1)
	errChan := make(chan error, 1)

	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for _, frame := range decoder.Feed(buf[:n]) {
				pid, ok := frame.ProductID()
				if !ok {
					// Frame without identity fields (e.g. BMV history block)
					continue
				}

				dev := detectedDevice{pid: pid, fields: frame.Len()}
				dev.rawPID, _ = frame.Get("PID")
				dev.firmware, _ = frame.FirmwareVersion()
				dev.serial, _ = frame.SerialNumber()
				deviceChan <- dev
				return
			}
		}
	}()

	select {
	case dev := <-deviceChan:
		fmt.Printf("\nDevice detected:\n")
		fmt.Printf("  Product:  %s (PID %s)\n", vedirect.ProductName(dev.pid), dev.rawPID)
		if dev.firmware != "" {
			fmt.Printf("  Firmware: %s\n", dev.firmware)
		}
		if dev.serial != "" {
			fmt.Printf("  Serial:   %s\n", dev.serial)
		}
		fmt.Printf("  Fields per frame: %d\n", dev.fields)
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(detectTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No identifying frame received within %d seconds\n", detectTimeout)
		os.Exit(1)
	}

	return nil
}
