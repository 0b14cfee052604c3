package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"wafdeck/internal/fixtures"
	"wafdeck/internal/livestate"
	"wafdeck/internal/logging"
	"wafdeck/internal/reconcile"
	"wafdeck/internal/submission"
)

// snapshotInterval is how often the UI re-reads the live snapshot. The
// synchronizer polls the service on its own cadence; this only refreshes
// what is rendered.
const snapshotInterval = time.Second

// Deps are the backend components the console renders and drives.
type Deps struct {
	Sync      *livestate.Synchronizer
	Engine    *reconcile.Engine
	Submitter *submission.Submitter
	Catalog   func() *fixtures.Catalog
	APIURL    string
}

type page int

const (
	pageDashboard page = iota
	pageTests
)

// Messages shared between the root model and pages.
type (
	snapshotTickMsg time.Time

	submitDoneMsg struct {
		status string
		err    error
	}

	singleRunDoneMsg struct {
		input string
		err   error
	}

	batchRunDoneMsg struct {
		err error
	}
)

// App is the root console model: a tab bar over the dashboard and tests
// pages, plus a help overlay.
type App struct {
	deps   Deps
	styles Styles
	layout LayoutConfig

	page      page
	showHelp  bool
	helpView  string
	renderer  *glamour.TermRenderer
	dashboard DashboardPageModel
	tests     TestsPageModel

	width  int
	height int
}

// NewApp creates the root console model.
func NewApp(deps Deps) App {
	styles := DefaultStyles()
	return App{
		deps:      deps,
		styles:    styles,
		dashboard: NewDashboardPageModel(deps.Submitter, styles),
		tests:     NewTestsPageModel(deps.Engine, deps.Catalog, styles),
	}
}

func (m App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.dashboard.spinner.Tick,
		m.tests.spinner.Tick,
		snapshotTick(),
	)
}

func snapshotTick() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return snapshotTickMsg(t)
	})
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout = NewLayoutConfig(msg.Width, msg.Height)
		m.dashboard.SetSize(msg.Width, m.layout.PageHeight())
		m.tests.SetSize(msg.Width, m.layout.PageHeight())
		m.rebuildHelp()
		return m, nil

	case snapshotTickMsg:
		m.dashboard.UpdateSnapshot(m.deps.Sync.Snapshot())
		m.tests.UpdateContent()
		return m, snapshotTick()

	case tea.KeyMsg:
		if m.showHelp {
			// Any key dismisses the overlay
			m.showHelp = false
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			logging.UI("console exit requested")
			return m, tea.Quit

		case "tab":
			if m.page == pageDashboard {
				m.page = pageTests
			} else {
				m.page = pageDashboard
			}
			logging.UIDebug("switched to page %d", m.page)
			return m, nil

		case "ctrl+g":
			m.showHelp = true
			return m, nil
		}
	}

	// Route everything else to the pages. Input events go to the active page
	// only; the rest go to both so spinner ticks and completion messages land
	// wherever they belong.
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if isInputMsg(msg) {
		switch m.page {
		case pageDashboard:
			m.dashboard, cmd = m.dashboard.Update(msg)
		case pageTests:
			m.tests, cmd = m.tests.Update(msg)
		}
		cmds = append(cmds, cmd)
	} else {
		m.dashboard, cmd = m.dashboard.Update(msg)
		cmds = append(cmds, cmd)
		m.tests, cmd = m.tests.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func isInputMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
		return true
	default:
		return false
	}
}

func (m App) View() string {
	if m.width == 0 {
		return "Starting wafdeck..."
	}

	header := m.styles.Header.Width(m.width).Render("wafdeck · " + m.deps.APIURL)

	dashTab, testsTab := m.styles.Tab, m.styles.Tab
	if m.page == pageDashboard {
		dashTab = m.styles.TabOn
	} else {
		testsTab = m.styles.TabOn
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top,
		dashTab.Render("Dashboard"),
		testsTab.Render("Tests"),
	)
	tabBar := tabs + "\n" + m.styles.RenderDivider(m.width)

	var body string
	switch {
	case m.showHelp:
		body = m.helpView
	case m.page == pageDashboard:
		body = m.dashboard.View()
	default:
		body = m.tests.View()
	}

	footer := m.styles.Footer.Render("tab: switch page · ctrl+g: help · esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, tabBar, body, footer)
}

const helpMarkdown = `# wafdeck

Operational console for the WAF detection service.

## Dashboard

Live alert feed, traffic counters, ingestion pipeline and deployed-model
info, refreshed every few seconds. Type a payload into the prompt and press
**enter** to classify it; the verdict lands in the alert feed immediately.

## Tests

The regression fixture catalog. Each fixture is a payload with an expected
outcome; running one classifies it through the service and reconciles the
verdict against the expectation.

| Key | Action |
| --- | ------ |
| enter | run the selected fixture |
| a | run the whole suite |
| c | clear results |
| up/down | move the selection |

## Global keys

| Key | Action |
| --- | ------ |
| tab | switch page |
| ctrl+g | toggle this help |
| esc / ctrl+c | quit |
`

// rebuildHelp re-renders the help overlay for the current width.
func (m *App) rebuildHelp() {
	wrap := m.width - 8
	if wrap < 40 {
		wrap = 40
	}
	var err error
	if m.styles.Theme.IsDark {
		m.renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	} else {
		m.renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(wrap),
		)
	}
	if err != nil || m.renderer == nil {
		m.helpView = helpMarkdown
		return
	}
	if out, err := m.renderer.Render(helpMarkdown); err == nil {
		m.helpView = out
	} else {
		m.helpView = helpMarkdown
	}
}
