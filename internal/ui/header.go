package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the cleansing board status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot
	sep := "  "

	parts := []string{styles.Logo.Render("datamate")}

	if !snap.HasData {
		if snap.LastError != nil {
			parts = append(parts,
				styles.DangerText.Render("API "+classifyConnectionError(snap.LastError)),
				styles.WarningText.Bold(true).Render("Retrying..."),
			)
		} else {
			parts = append(parts, styles.WarningText.Bold(true).Render("Connecting..."))
		}
		return m.headerBar(strings.Join(parts, sep))
	}

	compact := m.width < 100

	if snap.IsOffline() {
		parts = append(parts, styles.StatusStyle("failed", "").Render("OFFLINE"))
	} else {
		parts = append(parts, styles.SuccessText.Render("● ON"))
	}

	running := snap.Count("RUNNING")
	failed := snap.Count("FAILED")
	pending := snap.Count("PENDING")

	runningStyle := styles.MutedText
	if running > 0 {
		runningStyle = styles.InfoText
	}
	failedStyle := styles.MutedText
	if failed > 0 {
		failedStyle = styles.DangerText
	}

	label := func(long, short string) string {
		if compact {
			return short
		}
		return long
	}
	parts = append(parts,
		styles.MutedText.Render(label("Cleansing:", "C:"))+" "+styles.Text.Render(fmt.Sprintf("%d", snap.Total)),
		styles.MutedText.Render(label("Running:", "R:"))+" "+runningStyle.Render(fmt.Sprintf("%d", running))+
			sep+styles.FaintText.Render("•")+sep+
			styles.MutedText.Render(label("Failed:", "F:"))+" "+failedStyle.Render(fmt.Sprintf("%d", failed))+
			sep+styles.FaintText.Render("•")+sep+
			styles.MutedText.Render(label("Pending:", "P:"))+" "+styles.Text.Render(fmt.Sprintf("%d", pending)),
	)

	if snap.Paused {
		parts = append(parts, styles.WarningText.Bold(true).Render("PAUSED"))
	} else {
		if snap.Interval > 0 {
			parts = append(parts, styles.MutedText.Render(label("every "+snap.Interval.String(), snap.Interval.String())))
		}
		if snap.Loading {
			parts = append(parts, styles.InfoText.Render("↻"))
		}
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, styles.MutedText.Render(ts))
	}

	if snap.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts,
			styles.DangerText.Render("ERROR")+" "+
				styles.DangerText.UnsetBold().Render(truncate(snap.LastError.Error(), maxErr)),
		)
	}

	return m.headerBar(strings.Join(parts, sep))
}

func (m Model) headerBar(content string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(0, 1).
		Width(m.width).
		MaxHeight(1).
		Render(content)
}

// formatTimestamp renders the last board update as wall time.
func (m Model) formatTimestamp() string {
	if m.snapshot.LastUpdated.IsZero() {
		return ""
	}
	return "Updated " + m.snapshot.LastUpdated.Format("15:04:05")
}

// classifyConnectionError maps transport failures to a short badge label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "returned status"):
		return "HTTP ERROR"
	default:
		return "ERROR"
	}
}
