package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wafdeck/internal/livestate"
	"wafdeck/internal/submission"
)

// DashboardPageModel renders the live operational snapshot and hosts the
// ad-hoc submission prompt. The alert feed scrolls in a viewport; the info
// cards render whatever the last refresh left behind.
type DashboardPageModel struct {
	submitter *submission.Submitter
	styles    Styles

	input   textinput.Model
	spinner spinner.Model
	feed    viewport.Model

	snap      livestate.Snapshot
	status    string
	statusErr bool
	busy      bool

	width  int
	height int
}

// NewDashboardPageModel creates the dashboard page.
func NewDashboardPageModel(submitter *submission.Submitter, styles Styles) DashboardPageModel {
	ti := textinput.New()
	ti.Placeholder = "Submit a payload for classification... (Enter to send)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 2048
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(60, 10)
	vp.SetContent("")

	return DashboardPageModel{
		submitter: submitter,
		styles:    styles,
		input:     ti,
		spinner:   sp,
		feed:      vp,
	}
}

// SetSize updates the page dimensions.
func (m *DashboardPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = w - 6

	feedWidth, _ := SplitWidths(w - 2)
	m.feed.Width = PanelContentWidth(feedWidth)
	// Card border + feed title + prompt block below
	m.feed.Height = h - 8
	if m.feed.Height < 3 {
		m.feed.Height = 3
	}
	m.refreshFeed()
}

// UpdateSnapshot replaces the rendered operational state.
func (m *DashboardPageModel) UpdateSnapshot(snap livestate.Snapshot) {
	m.snap = snap
	m.refreshFeed()
}

// refreshFeed rebuilds the viewport content from the current alert list.
func (m *DashboardPageModel) refreshFeed() {
	if len(m.snap.Alerts) == 0 {
		m.feed.SetContent(m.styles.Muted.Render("No alerts."))
		return
	}

	var sb strings.Builder
	for _, alert := range m.snap.Alerts {
		level := m.styles.SeverityStyle(alert.Level).Render(fmt.Sprintf("%-8s", alert.Level))
		text := clip(alert.Text, m.feed.Width-20)
		ts := m.styles.Muted.Render(alert.TS)
		sb.WriteString(fmt.Sprintf("%s %s %s\n", level, text, ts))
	}
	m.feed.SetContent(sb.String())
}

// Update handles messages.
func (m DashboardPageModel) Update(msg tea.Msg) (DashboardPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			payload := strings.TrimSpace(m.input.Value())
			if payload == "" {
				return m, nil
			}
			m.busy = true
			m.status = ""
			m.input.Reset()
			submitter := m.submitter
			return m, func() tea.Msg {
				status, err := submitter.Submit(context.Background(), payload)
				return submitDoneMsg{status: status, err: err}
			}

		case tea.KeyPgUp, tea.KeyPgDown:
			// The prompt owns most keys; paging scrolls the feed
			var cmd tea.Cmd
			m.feed, cmd = m.feed.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.busy = false
		m.status = msg.status
		m.statusErr = msg.err != nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the page.
func (m DashboardPageModel) View() string {
	if m.width == 0 {
		return ""
	}

	feedWidth, sideWidth := SplitWidths(m.width - 2)

	feed := m.renderFeed(feedWidth)
	side := lipgloss.JoinVertical(lipgloss.Left,
		m.renderMetrics(sideWidth),
		m.renderIngestion(sideWidth),
		m.renderModel(sideWidth),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top, feed, " ", side)

	return lipgloss.JoinVertical(lipgloss.Left, top, m.renderPrompt())
}

func (m DashboardPageModel) renderFeed(width int) string {
	content := m.styles.Title.Render("Live Alerts") + "\n" + m.feed.View()
	return m.styles.Card.Width(width).Render(content)
}

func (m DashboardPageModel) renderMetrics(width int) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Traffic"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Requests:      %d\n", m.snap.Metrics.Requests))
	sb.WriteString(fmt.Sprintf("Blocked:       %d\n", m.snap.Metrics.Blocked))
	sb.WriteString(fmt.Sprintf("Regex flagged: %d\n", m.snap.Metrics.RegexFlagged))
	sb.WriteString(fmt.Sprintf("ML flagged:    %d\n", m.snap.Metrics.MLFlagged))
	sb.WriteString(fmt.Sprintf("Uptime:        %s", m.snap.Metrics.Uptime))

	if ml := m.snap.Metrics.ML; ml != nil {
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.Subtitle.Render("Model quality"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Accuracy:  %.3f\n", ml.Accuracy))
		sb.WriteString(fmt.Sprintf("Precision: %.3f\n", ml.Precision))
		sb.WriteString(fmt.Sprintf("Recall:    %.3f\n", ml.Recall))
		sb.WriteString(fmt.Sprintf("F1:        %.3f\n", ml.F1Score))
		sb.WriteString(fmt.Sprintf("TP/FP/TN/FN: %d/%d/%d/%d", ml.TP, ml.FP, ml.TN, ml.FN))
	}

	return m.styles.Card.Width(width).Render(sb.String())
}

func (m DashboardPageModel) renderIngestion(width int) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Ingestion"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Batch:     %s (%d logs, last run %s)\n",
		m.snap.Ingestion.Batch.Status, m.snap.Ingestion.Batch.Logs, m.snap.Ingestion.Batch.LastRun))
	sb.WriteString(fmt.Sprintf("Streaming: %s %s",
		m.snap.Ingestion.Streaming.Status, m.snap.Ingestion.Streaming.Rate))

	return m.styles.Card.Width(width).Render(sb.String())
}

func (m DashboardPageModel) renderModel(width int) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Model"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Version:     %s\n", m.snap.Model.Version))
	if m.snap.Model.Accuracy != nil {
		sb.WriteString(fmt.Sprintf("Accuracy:    %.3f\n", *m.snap.Model.Accuracy))
	}
	sb.WriteString(fmt.Sprintf("Retrained:   %s\n", m.snap.Model.LastRetrain))
	sb.WriteString(fmt.Sprintf("Incremental: %s", m.snap.Model.IncrementalData))

	return m.styles.Card.Width(width).Render(sb.String())
}

func (m DashboardPageModel) renderPrompt() string {
	line := m.input.View()
	if m.busy {
		line += " " + m.spinner.View()
	}

	if m.status != "" {
		style := m.styles.Success
		switch {
		case m.statusErr:
			style = m.styles.Warning
		case m.status == submission.StatusFlagged:
			style = m.styles.Error
		}
		line += "\n" + style.Render(m.status)
	}
	return line
}

func clip(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return s[:n-1] + "…"
}
