// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	recordOutput   string
	recordCount    int
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record decoded frames to a CBOR archive file",
	Long: `Continuously decode frames and append them to a CBOR archive.

Each valid frame is written as one CBOR map (label order, fields, capture
timestamp). Corrupted frames are dropped, so the archive only contains
frames that passed checksum validation. The archive can be printed later
with the replay command.

Recording stops after --count frames, after --duration, or on Ctrl+C.
With neither limit set it records until interrupted.

Supports both serial and WebSocket connections.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "archive file to write")
	recordCmd.Flags().IntVar(&recordCount, "count", 0, "stop after this many frames (0 = unlimited)")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "stop after this long (0 = unlimited)")
	recordCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.Create(recordOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", recordOutput, err)
	}
	defer f.Close()
	writer := vedirect.NewFrameWriter(f)

	fmt.Printf("Heliograph - Frame Recorder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Archive: %s\n", recordOutput)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := vedirect.NewDecoder()
	decoder.SetHexRecordHandler(func(rec vedirect.HexRecord) {
		log.Debug().Int("payload_len", len(rec.Payload())).Msg("HEX record skipped")
	})

	frameChan := make(chan *vedirect.Frame, 16)
	readDone := make(chan struct{})

	// Reader goroutine - feeds the decoder, forwards valid frames
	go func() {
		defer close(readDone)
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				// For WebSocket connections, a read error usually means
				// the connection is permanently closed - finish the archive
				if err == ErrConnectionClosed {
					log.Info().Msg("Connection closed")
					return
				}
				log.Error().Err(err).Msg("Read error")
				continue
			}

			for _, frame := range decoder.Feed(buf[:n]) {
				frameChan <- frame
			}
		}
	}()

	var timeout <-chan time.Time
	if recordDuration > 0 {
		timeout = time.After(recordDuration)
	}

	recorded := 0
recordLoop:
	for {
		select {
		case frame := <-frameChan:
			if err := writer.WriteFrame(frame); err != nil {
				return fmt.Errorf("write archive: %v", err)
			}
			recorded++
			if recorded%100 == 0 {
				log.Debug().Int("frames", recorded).Msg("Recording progress")
			}
			if recordCount > 0 && recorded >= recordCount {
				break recordLoop
			}

		case <-readDone:
			break recordLoop

		case <-timeout:
			break recordLoop
		}
	}

	fmt.Printf("\nRecorded %d frames to %s\n", recorded, recordOutput)
	return nil
}
