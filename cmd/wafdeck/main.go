package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wafdeck/cmd/wafdeck/ui"
	"wafdeck/internal/config"
	"wafdeck/internal/fixtures"
	"wafdeck/internal/livestate"
	"wafdeck/internal/logging"
	"wafdeck/internal/reconcile"
	"wafdeck/internal/submission"
	"wafdeck/internal/wafclient"
)

// Version is the wafdeck release version.
const Version = "1.0.0"

var (
	// Global flags
	verbose      bool
	apiURL       string
	fixturesPath string
	configPath   string
	workspace    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wafdeck",
	Short: "wafdeck - operational console for the WAF detection service",
	Long: `wafdeck is a terminal console for operating a remote WAF detection service.

It drives three workflows against the service's HTTP API:
  - a live dashboard (alert feed, traffic counters, ingestion, model info)
  - ad-hoc payload classification with optimistic alert feedback
  - a regression suite reconciling service verdicts against expected labels

Run without arguments to start the interactive dashboard.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			logger.Warn("file logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive dashboard
		return runDashboard()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Detection service base URL (or set WAFDECK_API_URL env)")
	rootCmd.PersistentFlags().StringVar(&fixturesPath, "fixtures", "", "Regression fixture catalog YAML (default: built-in catalog)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: .wafdeck/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")

	// Add commands to root
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves configuration with flag > env > file > default
// precedence. Env and file are handled by the config package; flags land
// here.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		cfg, err = config.LoadFromWorkspace(ws)
	}
	if err != nil {
		return nil, err
	}

	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if fixturesPath != "" {
		cfg.Fixtures.Path = fixturesPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadCatalog returns the configured fixture catalog, falling back to the
// built-in one when no file is configured.
func loadCatalog(cfg *config.Config) (*fixtures.Catalog, error) {
	if cfg.Fixtures.Path == "" {
		return fixtures.Default(), nil
	}
	return fixtures.LoadFile(cfg.Fixtures.Path)
}

// newClient builds the detection service client from resolved config.
func newClient(cfg *config.Config) *wafclient.Client {
	return wafclient.New(cfg.API.BaseURL, wafclient.WithTimeout(cfg.GetRequestTimeout()))
}

// catalogStore holds the current fixture catalog behind a lock so the
// watcher can swap it while the engine reads it.
type catalogStore struct {
	mu      sync.Mutex
	current *fixtures.Catalog
}

func (s *catalogStore) get() *fixtures.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *catalogStore) set(c *fixtures.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

// runDashboard wires the full console together and runs the TUI until the
// user quits.
func runDashboard() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newClient(cfg)
	syncer := livestate.New(client, livestate.WithInterval(cfg.GetPollInterval()))

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	store := &catalogStore{current: catalog}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watcher *fixtures.Watcher
	if cfg.Fixtures.Path != "" && cfg.Fixtures.Watch {
		watcher, err = fixtures.NewWatcher(cfg.Fixtures.Path, store.set)
		if err != nil {
			return fmt.Errorf("failed to watch fixture catalog: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch fixture catalog: %w", err)
		}
		defer watcher.Stop()
	}

	engine := reconcile.New(client, store.get)
	submitter := submission.New(client, syncer.AppendAlert)

	syncer.Start(ctx)
	defer syncer.Stop()

	app := ui.NewApp(ui.Deps{
		Sync:      syncer,
		Engine:    engine,
		Submitter: submitter,
		Catalog:   store.get,
		APIURL:    cfg.API.BaseURL,
	})

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	return err
}
