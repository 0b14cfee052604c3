package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"wafdeck/internal/fixtures"
	"wafdeck/internal/livestate"
	"wafdeck/internal/reconcile"
	"wafdeck/internal/submission"
	"wafdeck/internal/wafclient"
)

// echoClassifier flags nothing; every verdict echoes its input.
type echoClassifier struct{}

func (echoClassifier) ClassifyOne(_ context.Context, input string) (wafclient.Verdict, error) {
	return wafclient.Verdict{Input: input}, nil
}

func (echoClassifier) ClassifyBatch(_ context.Context, inputs []string) ([]wafclient.Verdict, error) {
	out := make([]wafclient.Verdict, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, wafclient.Verdict{Input: in})
	}
	return out, nil
}

type flaggingSubmitClient struct{}

func (flaggingSubmitClient) Submit(_ context.Context, input string) (wafclient.Submission, error) {
	return wafclient.Submission{Verdict: wafclient.Verdict{Input: input, Flagged: true}}, nil
}

func testCatalog() func() *fixtures.Catalog {
	cat := fixtures.Default()
	return func() *fixtures.Catalog { return cat }
}

func TestDashboardPageRendersSnapshot(t *testing.T) {
	submitter := submission.New(flaggingSubmitClient{}, func(wafclient.Alert) {})
	model := NewDashboardPageModel(submitter, NewStyles(DarkTheme()))
	model.SetSize(120, 40)

	model.UpdateSnapshot(livestate.Snapshot{
		Alerts: []wafclient.Alert{
			{Level: wafclient.LevelCritical, Text: "SQL Injection - /products?id=1", TS: "just now"},
		},
		Metrics: wafclient.Metrics{Requests: 1200, Blocked: 9, Uptime: "14h"},
		Model:   wafclient.ModelInfo{Version: "v1.3 Transformer-L", LastRetrain: "1 hour ago"},
	})

	view := model.View()
	for _, want := range []string{"SQL Injection", "1200", "v1.3 Transformer-L", "14h"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected dashboard view to contain %q", want)
		}
	}
}

func TestDashboardSubmitFlow(t *testing.T) {
	var appended *wafclient.Alert
	submitter := submission.New(flaggingSubmitClient{}, func(a wafclient.Alert) { appended = &a })
	model := NewDashboardPageModel(submitter, NewStyles(DarkTheme()))
	model.SetSize(120, 40)

	model.input.SetValue("<script>alert(1)</script>")
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	if !model.busy {
		t.Fatal("expected the page to be busy while the submit is in flight")
	}

	msg := cmd()
	done, ok := msg.(submitDoneMsg)
	if !ok {
		t.Fatalf("expected submitDoneMsg, got %T", msg)
	}

	model, _ = model.Update(done)
	if model.busy {
		t.Fatal("expected the page to be idle after completion")
	}
	if !strings.Contains(model.View(), submission.StatusFlagged) {
		t.Fatal("expected the flagged status line to be rendered")
	}
	if appended == nil || appended.Level != wafclient.LevelCritical {
		t.Fatal("expected a critical alert appended to the feed")
	}
}

func TestDashboardEmptyInputIsInert(t *testing.T) {
	submitter := submission.New(flaggingSubmitClient{}, func(wafclient.Alert) {})
	model := NewDashboardPageModel(submitter, NewStyles(DarkTheme()))
	model.SetSize(120, 40)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("enter on an empty prompt must not submit")
	}
	if model.busy {
		t.Fatal("page must stay idle")
	}
}

func TestTestsPageNavigationAndRun(t *testing.T) {
	catalog := testCatalog()
	engine := reconcile.New(echoClassifier{}, catalog)
	model := NewTestsPageModel(engine, catalog, NewStyles(DarkTheme()))
	model.SetSize(120, 40)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if model.cursor != 2 {
		t.Fatalf("expected cursor at 2, got %d", model.cursor)
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyUp})
	if model.cursor != 1 {
		t.Fatalf("expected cursor at 1, got %d", model.cursor)
	}

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a run command")
	}
	msg := cmd()

	// The command batches the spinner tick with the run; find the done msg.
	done := findSingleRunDone(t, msg)
	model, _ = model.Update(done)

	if len(engine.Results()) != 1 {
		t.Fatalf("expected one result, got %d", len(engine.Results()))
	}
	view := model.View()
	if !strings.Contains(view, "Passed") {
		t.Fatal("expected the summary badge to be rendered")
	}
}

func TestTestsPageRunAllAndClear(t *testing.T) {
	catalog := testCatalog()
	engine := reconcile.New(echoClassifier{}, catalog)
	model := NewTestsPageModel(engine, catalog, NewStyles(DarkTheme()))
	model.SetSize(120, 40)

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if cmd == nil {
		t.Fatal("expected a batch command")
	}
	findBatchRunDone(t, cmd())

	if got := len(engine.Results()); got != catalog().Len() {
		t.Fatalf("expected %d results, got %d", catalog().Len(), got)
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if len(engine.Results()) != 0 {
		t.Fatal("expected clear to empty the result log")
	}
	if !strings.Contains(model.View(), "No results yet") {
		t.Fatal("expected the empty-log hint")
	}
}

func TestTestsPageCursorClampsOnCatalogShrink(t *testing.T) {
	cat := fixtures.Default()
	current := cat
	catalogFn := func() *fixtures.Catalog { return current }
	engine := reconcile.New(echoClassifier{}, catalogFn)
	model := NewTestsPageModel(engine, catalogFn, NewStyles(DarkTheme()))
	model.SetSize(120, 40)

	model.cursor = cat.Len() - 1
	current = &fixtures.Catalog{Categories: []fixtures.Category{{
		Name: "tiny",
		Cases: []fixtures.Case{{
			Input:    "http://example.com/",
			Expected: fixtures.Expectation{Flagged: false, Source: fixtures.SourceWhitelist},
		}},
	}}}
	model.UpdateContent()

	if model.cursor != 0 {
		t.Fatalf("expected cursor clamped to 0, got %d", model.cursor)
	}
}

func TestAppTabSwitchAndHelp(t *testing.T) {
	client := wafclient.New("http://localhost:1")
	catalog := testCatalog()
	app := NewApp(Deps{
		Sync:      livestate.New(client),
		Engine:    reconcile.New(echoClassifier{}, catalog),
		Submitter: submission.New(flaggingSubmitClient{}, func(wafclient.Alert) {}),
		Catalog:   catalog,
		APIURL:    "http://localhost:1",
	})

	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	a := model.(App)
	view := a.View()
	if !strings.Contains(view, "Dashboard") || !strings.Contains(view, "Tests") {
		t.Fatal("expected both tabs in the chrome")
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = model.(App)
	if a.page != pageTests {
		t.Fatal("expected tab to switch to the tests page")
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	a = model.(App)
	if !a.showHelp {
		t.Fatal("expected the help overlay to open")
	}
	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	a = model.(App)
	if a.showHelp {
		t.Fatal("expected any key to dismiss the help overlay")
	}
}

func TestAppQuitKeys(t *testing.T) {
	client := wafclient.New("http://localhost:1")
	catalog := testCatalog()
	app := NewApp(Deps{
		Sync:      livestate.New(client),
		Engine:    reconcile.New(echoClassifier{}, catalog),
		Submitter: submission.New(flaggingSubmitClient{}, func(wafclient.Alert) {}),
		Catalog:   catalog,
		APIURL:    "http://localhost:1",
	})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected ctrl+c to quit")
	}
}

// findSingleRunDone digs the completion message out of a possibly batched
// command result.
func findSingleRunDone(t *testing.T, msg tea.Msg) singleRunDoneMsg {
	t.Helper()
	if done, ok := msg.(singleRunDoneMsg); ok {
		return done
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if done, ok := c().(singleRunDoneMsg); ok {
				return done
			}
		}
	}
	t.Fatalf("no singleRunDoneMsg in %T", msg)
	return singleRunDoneMsg{}
}

func findBatchRunDone(t *testing.T, msg tea.Msg) batchRunDoneMsg {
	t.Helper()
	if done, ok := msg.(batchRunDoneMsg); ok {
		return done
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if done, ok := c().(batchRunDoneMsg); ok {
				return done
			}
		}
	}
	t.Fatalf("no batchRunDoneMsg in %T", msg)
	return batchRunDoneMsg{}
}
