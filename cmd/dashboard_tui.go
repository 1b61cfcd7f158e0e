// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/heliograph/pkg/vedirect"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusFieldList = iota
	focusFilter
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// fieldItem is one telemetry field of the latest frame
type fieldItem struct {
	label string
	value string
	name  string
}

// fieldItem satisfies list.Item; Title carries the live value so the
// list itself is the telemetry display
func (f fieldItem) Title() string       { return fmt.Sprintf("%-9s %s", f.label, f.value) }
func (f fieldItem) Description() string { return f.name }
func (f fieldItem) FilterValue() string { return f.label + " " + f.name }

// dashModel is the Bubble Tea model for the dashboard TUI
type dashModel struct {
	connInfo string

	// Device identity (from PID field, first frame that carries one)
	deviceProduct string

	// Field tracking
	fieldList   list.Model
	filterInput textinput.Model

	// Monitoring
	stats         *vedirect.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	lastFrame     *vedirect.Frame

	// UI state
	focusedField   int
	width          int
	height         int
	synchronized   bool
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type dashTickMsg time.Time

type dashDataMsg struct {
	frame            *vedirect.Frame
	decodeErr        error
	validationErrors []vedirect.ValidationError
	hexRecord        bool
}

type dashSyncMsg struct {
	discarded int
}

type dashBatchMsg struct {
	messages []dashDataMsg
	syncMsg  *dashSyncMsg
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialDashModel(connInfo string) dashModel {
	// Initialize text input for field filtering
	ti := textinput.New()
	ti.Placeholder = "label or name"
	ti.CharLimit = 20
	ti.Width = 20

	// Initialize field list with empty items
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	fieldList := list.New([]list.Item{}, delegate, 30, 10)
	fieldList.Title = "Fields"
	fieldList.SetShowStatusBar(false)
	fieldList.SetShowHelp(false)
	fieldList.SetFilteringEnabled(false)

	return dashModel{
		connInfo:      connInfo,
		fieldList:     fieldList,
		filterInput:   ti,
		stats:         vedirect.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		focusedField:  focusFieldList,
		width:         80,
		height:        24,
		synchronized:  false,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m dashModel) Init() tea.Cmd {
	return dashTickCmd()
}

func dashTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case dashTickMsg:
		m.stats.CalculateRates()
		return m, dashTickCmd()

	case dashBatchMsg:
		if msg.syncMsg != nil {
			m.synchronized = true
			if msg.syncMsg.discarded > 0 {
				m.addLogEntry(fmt.Sprintf("Synchronized after discarding %d partial lines", msg.syncMsg.discarded), false)
			} else {
				m.addLogEntry("Synchronized", false)
			}
		}
		for _, data := range msg.messages {
			m.processDashData(data)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		// New connection starts with a fresh decoder
		m.synchronized = false
		m.addLogEntry("Reconnected - waiting for telemetry", false)
	}

	// Remaining message kinds belong to whichever component has focus
	var cmd tea.Cmd
	if m.focusedField == focusFilter {
		m.filterInput, cmd = m.filterInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focusedField == focusFieldList {
		m.fieldList, cmd = m.fieldList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *dashModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		// Quit only when not typing in the filter
		if m.focusedField != focusFilter {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		return m.cycleFocus(), nil

	case "/":
		if m.focusedField != focusFilter {
			m.focusedField = focusFilter
			m.filterInput.Focus()
			return m, nil
		}

	case "esc":
		if m.focusedField == focusFilter {
			m.focusedField = focusFieldList
			m.filterInput.Blur()
			return m, nil
		}

	case "up", "k", "down", "j":
		if m.focusedField == focusFieldList {
			m.fieldList, _ = m.fieldList.Update(msg)
			return m, nil
		}
	}

	// Keys not handled above go to the focused component
	if m.focusedField == focusFilter {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.updateFieldList()
		return m, cmd
	}

	return m, nil
}

func (m *dashModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	// Pass mouse events to the list
	m.fieldList, _ = m.fieldList.Update(msg)

	return m, nil
}

func (m *dashModel) cycleFocus() *dashModel {
	if m.focusedField == focusFieldList {
		m.focusedField = focusFilter
		m.filterInput.Focus()
	} else {
		m.focusedField = focusFieldList
		m.filterInput.Blur()
	}
	return m
}

func (m dashModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	helpText := "q=quit"
	if m.synchronized {
		helpText = "q=quit Tab=switch /=filter"
	}
	s.WriteString(titleStyle.Render("HELIOGRAPH DASHBOARD"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s", connStatus, helpText)))
	s.WriteString("\n")

	// Device identity (below header)
	if m.deviceProduct != "" {
		s.WriteString(fmt.Sprintf(" %s %s",
			statsLabelStyle.Render("Device:"),
			statsValueStyle.Render(m.deviceProduct)))
	}
	s.WriteString("\n\n")

	if !m.synchronized {
		// Waiting for the first full frame
		s.WriteString(m.renderWaitingView(statsLabelStyle, warningStyle, boxStyle))
	} else {
		// Normal dashboard view
		s.WriteString(m.renderDashboardView(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle, boxStyle, focusedBoxStyle))
	}

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m dashModel) renderWaitingView(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder

	s.WriteString(warningStyle.Render("Waiting for telemetry..."))
	s.WriteString("\n")
	s.WriteString("The device emits a frame roughly once per second.\n\n")

	// Event log while waiting
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m dashModel) renderDashboardView(statsLabelStyle, statsValueStyle, errorStyle, warningStyle, headerStyle, boxStyle, focusedBoxStyle lipgloss.Style) string {
	var s strings.Builder

	// Layout: left panel (fields) | right panel (filter + summary)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6

	// Field list panel
	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusFieldList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	fieldPanel := listStyle.Render(m.fieldList.View())

	// Summary panel
	summaryContent := m.renderSummaryPanel(statsLabelStyle, statsValueStyle, headerStyle)
	summaryStyle := boxStyle.Width(rightWidth)
	if m.focusedField == focusFilter {
		summaryStyle = focusedBoxStyle.Width(rightWidth)
	}
	summaryPanel := summaryStyle.Render(summaryContent)

	// Field list on the left, summary on the right
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, fieldPanel, " ", summaryPanel))
	s.WriteString("\n\n")

	// Statistics bar
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m dashModel) renderSummaryPanel(statsLabelStyle, statsValueStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder

	// Filter input
	s.WriteString(statsLabelStyle.Render("Filter: "))
	if m.focusedField == focusFilter {
		s.WriteString(m.filterInput.View())
	} else {
		// Render the filter inert while the list has focus
		val := m.filterInput.Value()
		if val == "" {
			val = "(none)"
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString("\n\n")

	if m.lastFrame == nil {
		s.WriteString(headerStyle.Render("No frames received yet"))
		return s.String()
	}

	s.WriteString(renderFrameSummary(m.lastFrame, statsLabelStyle, statsValueStyle))
	s.WriteString("\n\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Last frame: %s (%d fields)",
		m.lastFrame.Timestamp().Format("15:04:05.000"), m.lastFrame.Len())))

	return s.String()
}

func (m dashModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
		totalErrors := m.stats.ChecksumErrors + m.stats.MalformedLines + m.stats.DecodeErrors + m.stats.AnomalousValues
		errorPercent = float64(totalErrors) * 100.0 / float64(m.stats.TotalFrames)
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		statsLabelStyle.Render("Errors:"), func() string {
			if errorPercent > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
			}
			return statsValueStyle.Render("0.0%")
		}(),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m dashModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	// Fixed-height log window, shrunk when there is little to show
	logHeight := 8
	if len(m.errorLog) < logHeight {
		logHeight = len(m.errorLog)
	}

	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *dashModel) processDashData(msg dashDataMsg) {
	if msg.hexRecord {
		m.stats.CountHexRecord()
		return
	}

	if msg.decodeErr != nil {
		if m.synchronized {
			m.stats.Update(nil, msg.decodeErr, nil)
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
		}
		return
	}

	if msg.frame == nil {
		return
	}

	m.stats.Update(msg.frame, nil, msg.validationErrors)
	m.lastFrame = msg.frame

	// Identify the device once, from the first frame carrying a PID field
	if m.deviceProduct == "" {
		if pid, ok := msg.frame.ProductID(); ok {
			m.deviceProduct = vedirect.ProductName(pid)
			m.addLogEntry(fmt.Sprintf("Device identified: %s", m.deviceProduct), false)
		}
	}

	for _, err := range msg.validationErrors {
		m.addLogEntry(err.Message, true)
	}

	m.updateFieldList()
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *dashModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m *dashModel) updateFieldList() {
	if m.lastFrame == nil {
		return
	}

	filter := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))

	labels := m.lastFrame.Labels()
	items := make([]list.Item, 0, len(labels))
	for _, label := range labels {
		value, _ := m.lastFrame.Get(label)

		name := "unknown label"
		if def, ok := vedirect.LookupLabel(label); ok {
			name = def.Name
		}

		if filter != "" &&
			!strings.Contains(strings.ToLower(label), filter) &&
			!strings.Contains(strings.ToLower(name), filter) {
			continue
		}

		items = append(items, fieldItem{label: label, value: value, name: name})
	}
	m.fieldList.SetItems(items)
}

func (m *dashModel) updateListSize() {
	// The list takes a third of the terminal, never fewer than five rows
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.fieldList.SetSize(28, listHeight)
}
