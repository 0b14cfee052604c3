package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// statusCmd shows service reachability and console configuration
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show detection service status",
	RunE:  showStatus,
}

// versionCmd prints the wafdeck version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wafdeck version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wafdeck %s (%s)\n", Version, runtime.Version())
	},
}

// showStatus probes each snapshot endpoint and reports reachability
func showStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("wafdeck Status")
	fmt.Println("==============")
	fmt.Printf("Service:  %s\n", cfg.API.BaseURL)
	fmt.Printf("Interval: %s\n", cfg.GetPollInterval())
	fmt.Println()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		fmt.Printf("✗ Fixture catalog: %v\n", err)
	} else if cfg.Fixtures.Path == "" {
		fmt.Printf("✓ Fixture catalog: built-in (%d cases)\n", catalog.Len())
	} else {
		fmt.Printf("✓ Fixture catalog: %s (%d cases)\n", cfg.Fixtures.Path, catalog.Len())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetRequestTimeout())
	defer cancel()

	client := newClient(cfg)

	if metrics, err := client.Metrics(ctx); err != nil {
		fmt.Printf("✗ Metrics endpoint: %v\n", err)
	} else {
		fmt.Printf("✓ Metrics endpoint: %d requests, %d blocked, up %s\n",
			metrics.Requests, metrics.Blocked, metrics.Uptime)
	}

	if alerts, err := client.Alerts(ctx); err != nil {
		fmt.Printf("✗ Alerts endpoint: %v\n", err)
	} else {
		fmt.Printf("✓ Alerts endpoint: %d alerts\n", len(alerts))
	}

	if ing, err := client.Ingestion(ctx); err != nil {
		fmt.Printf("✗ Ingestion endpoint: %v\n", err)
	} else {
		fmt.Printf("✓ Ingestion endpoint: batch %s, streaming %s\n",
			ing.Batch.Status, ing.Streaming.Status)
	}

	if model, err := client.Model(ctx); err != nil {
		fmt.Printf("✗ Model endpoint: %v\n", err)
	} else {
		fmt.Printf("✓ Model endpoint: %s (retrained %s)\n",
			model.Version, model.LastRetrain)
	}

	return nil
}
