package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wafdeck/cmd/wafdeck/ui"
	"wafdeck/internal/fixtures"
	"wafdeck/internal/reconcile"
)

// testCmd runs the full regression suite headlessly
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the regression suite against the detection service",
	Long: `Classifies every fixture in the catalog through the batch endpoint and
reconciles the verdicts against the expected labels.

Exits non-zero when any fixture mismatches its expectation, so the command
can gate CI on detection regressions.

Example:
  wafdeck test --api-url http://waf.internal:8001 --fixtures urls.yaml`,
	RunE: runSuite,
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	client := newClient(cfg)
	engine := reconcile.New(client, func() *fixtures.Catalog { return catalog })

	logger.Info("Running regression suite",
		zap.String("api", cfg.API.BaseURL),
		zap.Int("fixtures", catalog.Len()))

	if err := engine.RunAll(ctx); err != nil {
		cmd.SilenceUsage = true
		return fmt.Errorf("%s %w", engine.Message(), err)
	}

	results := engine.Results()
	table := ui.NewSimpleTable("Regression results", []string{"", "Input", "Expected", "Got"})
	for _, res := range results {
		switch {
		case res.Expected == nil:
			table.AddRow("–", truncate(res.Verdict.Input, 60), "", label(res.Verdict.Flagged))
		case res.Matches:
			table.AddRow("✓", truncate(res.Verdict.Input, 60),
				label(res.Expected.Flagged), label(res.Verdict.Flagged))
		default:
			table.AddRow("✗", truncate(res.Verdict.Input, 60),
				label(res.Expected.Flagged), label(res.Verdict.Flagged))
		}
	}
	fmt.Print(table.View(ui.DefaultStyles()))

	s := engine.Summary()
	fmt.Printf("\n%d/%d fixtures passed\n", s.Passed, s.Total)

	if s.Passed < s.Total {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d fixture(s) mismatched", s.Total-s.Passed)
	}
	return nil
}

func label(flagged bool) string {
	if flagged {
		return "flagged"
	}
	return "clean"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
