// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational
}

// linkModel drives the link_test monitor screen
type linkModel struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *vedirect.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	discarded     int
	width         int
	height        int
	quitting      bool
	lastFrame     *vedirect.Frame
}

// Messages
type linkTickMsg time.Time
type linkDataMsg struct {
	frame            *vedirect.Frame
	decodeErr        error
	validationErrors []vedirect.ValidationError
}
type linkSyncMsg struct {
	discarded int
}
type linkHexMsg struct{}

func initialLinkModel(connInfo string, statsInterval int, showAll bool) linkModel {
	return linkModel{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         vedirect.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		synchronized:  false,
		discarded:     0,
		width:         80,
		height:        24,
	}
}

func (m linkModel) Init() tea.Cmd {
	return tea.Batch(
		linkTickCmd(),
		tea.EnterAltScreen,
	)
}

func linkTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return linkTickMsg(t)
	})
}

func (m linkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case linkTickMsg:
		// Refresh the per-second rates once a second
		m.stats.CalculateRates()
		return m, linkTickCmd()

	case linkSyncMsg:
		m.synchronized = true
		m.discarded = msg.discarded
		if msg.discarded > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after discarding %d partial lines", msg.discarded), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case linkHexMsg:
		m.stats.CountHexRecord()

	case linkDataMsg:
		if msg.decodeErr != nil {
			if m.synchronized {
				m.stats.Update(nil, msg.decodeErr, nil)
				m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
			}
		} else if msg.frame != nil {
			m.stats.Update(msg.frame, nil, msg.validationErrors)
			m.lastFrame = msg.frame

			if len(msg.validationErrors) > 0 {
				// Validation errors
				for _, err := range msg.validationErrors {
					m.addLogEntry(err.Message, true)
				}
			} else if m.showAll {
				// Valid frame (only if --show-all)
				m.addLogEntry(fmt.Sprintf("Frame with %d fields (valid)", msg.frame.Len()), false)
			}
		}
	}

	return m, nil
}

func (m *linkModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Oldest entries fall off past the cap
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m linkModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("HELIOGRAPH - LINK TEST"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit",
		m.connInfo, func() string {
			if m.showAll {
				return "All frames"
			}
			return "Errors only"
		}())))
	s.WriteString("\n\n")

	// Sync status
	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.discarded > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (discarded %d partial lines)", m.discarded)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	totalErrors := m.stats.ChecksumErrors + m.stats.MalformedLines + m.stats.DecodeErrors + m.stats.AnomalousValues
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", totalErrors, errorPercent)),
	))

	if m.stats.ChecksumErrors > 0 || m.stats.MalformedLines > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
			statsLabelStyle.Render("Checksum Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors)),
			statsLabelStyle.Render("Malformed Lines:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.MalformedLines)),
		))
		if m.stats.Overflows > 0 {
			statsContent.WriteString(fmt.Sprintf(" (%s: %d)",
				headerStyle.Render("overflows"), m.stats.Overflows,
			))
		}
		statsContent.WriteString("\n")
	}

	if m.stats.AnomalousValues > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousValues)),
		))
		if m.stats.InvalidValues > 0 || m.stats.RangeErrors > 0 || m.stats.UnknownEnums > 0 {
			statsContent.WriteString(fmt.Sprintf(" (%s: %d, %s: %d, %s: %d)",
				headerStyle.Render("invalid values"), m.stats.InvalidValues,
				headerStyle.Render("out of range"), m.stats.RangeErrors,
				headerStyle.Render("unknown enums"), m.stats.UnknownEnums,
			))
		}
		statsContent.WriteString("\n")
	}

	if m.stats.HexRecords > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("HEX Records:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.HexRecords)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Telemetry section (only shown once a frame has arrived)
	if m.lastFrame != nil {
		s.WriteString(statsLabelStyle.Render("Latest Telemetry:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(renderFrameSummary(m.lastFrame, statsLabelStyle, statsValueStyle)))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Log fills whatever the header and statistics blocks leave over
	logHeight := m.height - 15
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

// renderFrameSummary renders the telemetry lines of the latest frame
func renderFrameSummary(frame *vedirect.Frame, labelStyle, valueStyle lipgloss.Style) string {
	var content strings.Builder

	if pid, ok := frame.ProductID(); ok {
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Product:"), valueStyle.Render(vedirect.ProductName(pid))))
	}

	if volts, ok := frame.BatteryVolts(); ok {
		line := fmt.Sprintf("%s %s", labelStyle.Render("Battery:"), valueStyle.Render(fmt.Sprintf("%.3f V", volts)))
		if amps, ok := frame.BatteryAmps(); ok {
			line += fmt.Sprintf("  %s", valueStyle.Render(fmt.Sprintf("%.3f A", amps)))
		}
		content.WriteString(line + "\n")
	}

	if volts, ok := frame.SolarVolts(); ok {
		line := fmt.Sprintf("%s %s", labelStyle.Render("Panel:"), valueStyle.Render(fmt.Sprintf("%.2f V", volts)))
		if watts, ok := frame.SolarPower(); ok {
			line += fmt.Sprintf("  %s", valueStyle.Render(fmt.Sprintf("%d W", watts)))
		}
		content.WriteString(line + "\n")
	}

	if state, ok := frame.ChargeState(); ok {
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("State:"), valueStyle.Render(vedirect.FormatChargeState(state))))
	}

	if code, ok := frame.ErrorCode(); ok && code != vedirect.ErrorNone {
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Error:"), valueStyle.Render(vedirect.FormatErrorCode(code))))
	}

	if on, ok := frame.LoadOn(); ok {
		loadStr := "OFF"
		if on {
			loadStr = "ON"
		}
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Load:"), valueStyle.Render(loadStr)))
	}

	if kwh, ok := frame.YieldToday(); ok {
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Yield today:"), valueStyle.Render(fmt.Sprintf("%.2f kWh", kwh))))
	}

	return strings.TrimRight(content.String(), "\n")
}
