package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wafdeck/internal/fixtures"
	"wafdeck/internal/logging"
	"wafdeck/internal/reconcile"
)

// TestsPageModel renders the regression fixture catalog and the reconciled
// result log. Runs are serialized: while one is in flight the trigger keys
// are inert.
type TestsPageModel struct {
	engine  *reconcile.Engine
	catalog func() *fixtures.Catalog
	styles  Styles

	spinner spinner.Model
	log     viewport.Model
	cursor  int
	items   []string

	width  int
	height int
}

// NewTestsPageModel creates the tests page.
func NewTestsPageModel(engine *reconcile.Engine, catalog func() *fixtures.Catalog, styles Styles) TestsPageModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(60, 10)

	m := TestsPageModel{
		engine:  engine,
		catalog: catalog,
		styles:  styles,
		spinner: sp,
		log:     vp,
	}
	m.UpdateContent()
	return m
}

// SetSize updates the page dimensions.
func (m *TestsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h

	_, logWidth := m.splitWidths()
	m.log.Width = PanelContentWidth(logWidth)
	// Card border + title/badge row + message row + key hint footer
	m.log.Height = h - 8
	if m.log.Height < 3 {
		m.log.Height = 3
	}
	m.refreshLog()
}

func (m *TestsPageModel) splitWidths() (listWidth, logWidth int) {
	listWidth, logWidth = SplitWidths(m.width - 2)
	if listWidth > 48 {
		logWidth += listWidth - 48
		listWidth = 48
	}
	return listWidth, logWidth
}

// UpdateContent re-reads the fixture catalog and the result log; a catalog
// hot-reload or a completed run shows up here.
func (m *TestsPageModel) UpdateContent() {
	m.items = m.catalog().Flatten()
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.refreshLog()
}

// refreshLog rebuilds the result viewport content.
func (m *TestsPageModel) refreshLog() {
	results := m.engine.Results()
	if len(results) == 0 {
		m.log.SetContent(m.styles.Muted.Render("No results yet. Press enter to run a fixture."))
		return
	}

	var sb strings.Builder
	for _, res := range results {
		sb.WriteString(m.renderResult(res, m.log.Width))
		sb.WriteString("\n")
	}
	m.log.SetContent(sb.String())
}

func (m *TestsPageModel) busy() bool {
	return m.engine.ActiveInput() != "" || m.engine.BatchRunning()
}

// Update handles messages.
func (m TestsPageModel) Update(msg tea.Msg) (TestsPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		case "enter":
			if m.busy() || len(m.items) == 0 {
				return m, nil
			}
			input := m.items[m.cursor]
			engine := m.engine
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				err := engine.RunSingle(context.Background(), input)
				return singleRunDoneMsg{input: input, err: err}
			})
		case "a":
			if m.busy() {
				return m, nil
			}
			engine := m.engine
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				err := engine.RunAll(context.Background())
				return batchRunDoneMsg{err: err}
			})
		case "c":
			if m.busy() {
				return m, nil
			}
			m.engine.Clear()
			m.refreshLog()
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd

	case singleRunDoneMsg:
		if msg.err != nil {
			logging.UI("single run failed for %q: %v", msg.input, msg.err)
		}
		m.refreshLog()
		return m, nil

	case batchRunDoneMsg:
		if msg.err != nil {
			logging.UI("batch run failed: %v", msg.err)
		}
		m.refreshLog()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the page.
func (m TestsPageModel) View() string {
	if m.width == 0 {
		return ""
	}

	listWidth, logWidth := m.splitWidths()

	list := m.renderList(listWidth)
	log := m.renderLog(logWidth)

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", log)
	footer := m.styles.Muted.Render("enter: run fixture · a: run all · c: clear")

	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m TestsPageModel) renderList(width int) string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("Fixtures (%d)", len(m.items))))
	sb.WriteString("\n")

	active := m.engine.ActiveInput()
	contentWidth := PanelContentWidth(width)
	visible := m.height - 6
	if visible < 5 {
		visible = 5
	}

	// Keep the cursor on screen
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	for i := start; i < len(m.items) && i < start+visible; i++ {
		input := m.items[i]
		line := clip(input, contentWidth-4)

		switch {
		case input == active:
			line = m.spinner.View() + " " + m.styles.Info.Render(line)
		case i == m.cursor:
			line = m.styles.Bold.Render("> " + line)
		default:
			line = "  " + m.styles.Body.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return m.styles.Card.Width(width).Render(sb.String())
}

func (m TestsPageModel) renderLog(width int) string {
	var sb strings.Builder

	s := m.engine.Summary()
	badge := m.styles.Badge.Render(fmt.Sprintf("Passed %d/%d", s.Passed, s.Total))
	if m.engine.BatchRunning() {
		badge += " " + m.spinner.View() + m.styles.Muted.Render(" running suite")
	}
	sb.WriteString(m.styles.Title.Render("Results") + " " + badge)
	sb.WriteString("\n")

	if message := m.engine.Message(); message != "" {
		sb.WriteString(m.styles.Warning.Render(message))
		sb.WriteString("\n")
	}

	sb.WriteString(m.log.View())

	return m.styles.Card.Width(width).Render(sb.String())
}

func (m TestsPageModel) renderResult(res reconcile.Result, width int) string {
	input := clip(res.Verdict.Input, width-26)

	switch {
	case res.Expected == nil:
		return m.styles.Muted.Render("– ") + input + m.styles.Muted.Render(" (no expectation)")
	case res.Matches:
		return m.styles.Success.Render("✓ ") + input +
			m.styles.Muted.Render(fmt.Sprintf(" %s as expected", verdictWord(res.Verdict.Flagged)))
	default:
		return m.styles.Error.Render("✗ ") + input +
			m.styles.Muted.Render(fmt.Sprintf(" expected %s, got %s",
				verdictWord(res.Expected.Flagged), verdictWord(res.Verdict.Flagged)))
	}
}

func verdictWord(flagged bool) string {
	if flagged {
		return "flagged"
	}
	return "clean"
}
