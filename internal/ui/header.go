package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.lastUpdated.IsZero() {
		return styles.Header.Width(m.width).Render(
			bg.Render("homedash", styles.Logo) + bg.Spaces(2) +
				bg.Render("Connecting...", styles.WarningText.Bold(true)),
		)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{bg.Render("homedash", styles.Logo)}

	if snap.IsOffline() {
		parts = append(parts,
			bg.Render("● "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	} else {
		parts = append(parts, bg.Render("● ON", styles.SuccessText))
	}

	online := 0
	for _, h := range snap.Hosts {
		if h.Online {
			online++
		}
	}
	hostStyle := styles.Text
	if online < len(snap.Hosts) {
		hostStyle = styles.WarningText
	}
	parts = append(parts,
		bg.Render("Hosts:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", online, len(snap.Hosts)), hostStyle))

	running := 0
	for _, ct := range snap.Containers {
		if ct.Item.Running {
			running++
		}
	}
	parts = append(parts,
		bg.Render("Containers:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", running, len(snap.Containers)), styles.Text))

	if timeStr := m.formatTimestamp(); timeStr != "" {
		parts = append(parts, bg.Render(timeStr, styles.MutedText))
	}

	if snap.LastError != nil && !snap.IsOffline() {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), maxErr), styles.DangerText))
	}

	return bg.Join(parts, "  ")
}

// formatTimestamp formats the last update time with relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}

	timeSince := time.Since(m.lastUpdated)
	timeStr := m.lastUpdated.Format("15:04:05")

	switch {
	case timeSince < time.Minute:
		timeStr += " (now)"
	case timeSince < time.Hour:
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	case timeSince < 24*time.Hour:
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints, or the status line when one
// is set.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.status != "" {
		style := styles.InfoText
		if m.statusErr {
			style = styles.DangerText
		}
		return styles.Header.Width(m.width).Render(bg.Render(truncate(m.status, m.width-2), style))
	}

	type cmd struct{ key, desc string }
	commands := []cmd{{"Tab", m.cycleFocus(1).String()}, {"j/k", "Navigate"}}

	switch m.focus {
	case PanelLinks:
		commands = append(commands, cmd{"drag", "Reorder"}, cmd{"d", "Delete"})
	case PanelContainers:
		commands = append(commands, cmd{"s", "Start"}, cmd{"x", "Stop"}, cmd{"R", "Restart"})
	case PanelServices:
		commands = append(commands, cmd{"p", "Pin"})
	case PanelTodos:
		commands = append(commands, cmd{"d", "Delete"})
	}
	commands = append(commands, cmd{"r", "Refresh"}, cmd{"?", "More"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands))
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
