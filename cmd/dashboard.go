// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI for live VE.Direct telemetry",
	Long: `Monitor a VE.Direct device via an interactive terminal UI.

This command provides a full-screen dashboard for devices connected via
serial (direct VE.Direct cable) or WebSocket (through a serial bridge).

Features:
  - Device identification from the telemetry stream (PID/FW/SER#)
  - Real-time telemetry summary (battery, panel, charge state, yield)
  - Scrollable field list with live values and a filter input
  - Statistics tracking (frame rate, error rate)
  - Event logging
  - Automatic reconnection on connection loss

Tab switches between the field list and the filter input. Arrow keys
scroll the field list; typing in the filter narrows it by label or
field name.

Supports both serial and WebSocket connections.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// connectionManager owns the live connection across reconnects. The reader
// goroutines always fetch the current connection through getConn, so a
// redial swaps the stream under them without restarting the TUI.
type connectionManager struct {
	conn     Connection
	connInfo string
	mu       sync.RWMutex
	program  *tea.Program
	done     chan struct{}
}

func (cm *connectionManager) getConn() Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
}

func runDashboard(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	cm := &connectionManager{
		conn:     conn,
		connInfo: connInfo,
		done:     make(chan struct{}),
	}
	defer func() {
		close(cm.done)
		if c := cm.getConn(); c != nil {
			c.Close()
		}
	}()

	p := tea.NewProgram(initialDashModel(connInfo), tea.WithAltScreen(), tea.WithMouseCellMotion())
	cm.program = p

	go cm.streamLoop()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// streamLoop feeds the TUI from the connection for the life of the
// dashboard, redialing whenever the stream dies.
func (cm *connectionManager) streamLoop() {
	for {
		select {
		case <-cm.done:
			return
		default:
		}

		if lost := cm.decodeStream(); !lost {
			return
		}

		cm.program.Send(connectionLostMsg{})
		if !cm.redial() {
			return
		}
	}
}

// decodeStream decodes the current connection until it fails, reporting
// into the TUI in 50ms batches. A fresh decoder starts unsynchronized:
// decode errors before the first valid frame are counted as discarded
// partial input rather than surfaced as errors. Returns true when the
// connection was lost, false on shutdown.
func (cm *connectionManager) decodeStream() bool {
	decoder := vedirect.NewDecoder()
	synchronized := false
	discardedBeforeSync := 0

	batchChan := make(chan dashDataMsg, 100)
	syncChan := make(chan dashSyncMsg, 1)
	readerDone := make(chan struct{})

	// Non-blocking sends throughout: when the TUI falls behind, dropping
	// an update beats stalling the serial reader.
	post := func(msg dashDataMsg) {
		select {
		case batchChan <- msg:
		default:
		}
	}

	decoder.SetHexRecordHandler(func(vedirect.HexRecord) {
		post(dashDataMsg{hexRecord: true})
	})

	handleByte := func(b byte) {
		frame, decodeErr := decoder.DecodeByte(b)
		switch {
		case decodeErr != nil && synchronized:
			post(dashDataMsg{decodeErr: decodeErr})
		case decodeErr != nil:
			discardedBeforeSync++
		case frame != nil:
			if !synchronized {
				synchronized = true
				select {
				case syncChan <- dashSyncMsg{discarded: discardedBeforeSync}:
				default:
				}
			}
			post(dashDataMsg{
				frame:            frame,
				validationErrors: vedirect.ValidateFrame(frame),
			})
		}
	}

	go func() {
		defer close(readerDone)
		buf := make([]byte, 128)
		for {
			select {
			case <-cm.done:
				return
			default:
			}

			conn := cm.getConn()
			if conn == nil {
				return
			}

			n, err := conn.Read(buf)
			if err != nil {
				select {
				case <-cm.done:
					return
				default:
				}
				if err == ErrConnectionClosed {
					// WebSocket streams do not come back on their own
					return
				}
				// Serial reads can fail transiently; retry shortly
				time.Sleep(10 * time.Millisecond)
				continue
			}

			for i := 0; i < n; i++ {
				handleByte(buf[i])
			}
		}
	}()

	// Collect decoder output and hand it to the TUI at a fixed cadence, so
	// a chatty device cannot flood the render loop
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-cm.done:
				return
			case <-readerDone:
				return
			case <-ticker.C:
				var batch dashBatchMsg

				select {
				case sync := <-syncChan:
					batch.syncMsg = &sync
				default:
				}

			drain:
				for {
					select {
					case msg := <-batchChan:
						batch.messages = append(batch.messages, msg)
					default:
						break drain
					}
				}

				if batch.syncMsg != nil || len(batch.messages) > 0 {
					cm.program.Send(batch)
				}
			}
		}
	}()

	<-readerDone

	select {
	case <-cm.done:
		return false
	default:
		return true
	}
}

// redial reopens the connection with doubling delays capped at 30s.
// Returns false when shutdown was requested while waiting.
func (cm *connectionManager) redial() bool {
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}

	const maxDelay = 30 * time.Second
	delay := time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(delay):
		}

		conn, connInfo, err := OpenConnection()
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.program.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		if delay *= 2; delay > maxDelay {
			delay = maxDelay
		}
	}
}
