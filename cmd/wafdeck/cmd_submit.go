package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wafdeck/internal/submission"
	"wafdeck/internal/wafclient"
)

// submitCmd classifies a single ad-hoc payload
var submitCmd = &cobra.Command{
	Use:   "submit [payload]",
	Short: "Submit a payload to the detection service",
	Long: `Classifies an ad-hoc payload and prints the verdict.

Example:
  wafdeck submit "<script>alert(1)</script>"
  wafdeck submit "http://example.com/?id=1 OR 1=1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	payload := strings.Join(args, " ")
	logger.Info("Submitting payload", zap.String("input", payload))

	var raised *wafclient.Alert
	submitter := submission.New(newClient(cfg), func(a wafclient.Alert) { raised = &a })

	status, err := submitter.Submit(context.Background(), payload)
	if err != nil {
		cmd.SilenceUsage = true
		if status != "" {
			fmt.Println(status)
		}
		return err
	}

	fmt.Println(status)
	if raised != nil {
		fmt.Printf("alert: [%s] %s\n", raised.Level, raised.Text)
	}
	return nil
}
