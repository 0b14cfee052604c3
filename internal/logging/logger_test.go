package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	config = loggingConfig{}
	logLevel = LevelInfo
}

func writeConfig(t *testing.T, ws, content string) {
	t.Helper()
	dir := filepath.Join(ws, ".wafdeck")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

// TestAllCategoriesLog tests that all categories create log files when
// debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    boot: true
    client: true
    reconcile: true
    livestate: true
    ui: true
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryClient,
		CategoryReconcile,
		CategoryLivestate,
		CategoryUI,
	}
	for _, cat := range categories {
		Get(cat).Info("test message for %s", cat)
	}
	CloseAll()

	date := time.Now().Format("2006-01-02")
	for _, cat := range categories {
		logPath := filepath.Join(tempDir, ".wafdeck", "logs", date+"_"+string(cat)+".log")
		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Errorf("Expected log file for category %s: %v", cat, err)
			continue
		}
		if !strings.Contains(string(data), "test message for "+string(cat)) {
			t.Errorf("Log file for %s missing message", cat)
		}
	}
}

// TestProductionModeIsSilent tests that no log directory appears without a
// debug config
func TestProductionModeIsSilent(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Error("Expected production mode without a config file")
	}

	Boot("this should go nowhere")
	ClientError("neither should this")

	if _, err := os.Stat(filepath.Join(tempDir, ".wafdeck", "logs")); !os.IsNotExist(err) {
		t.Error("Expected no logs directory in production mode")
	}
}

// TestDisabledCategory tests that a disabled category stays a no-op while
// others log
func TestDisabledCategory(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    client: false
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if IsCategoryEnabled(CategoryClient) {
		t.Error("Expected client category to be disabled")
	}
	if !IsCategoryEnabled(CategoryUI) {
		t.Error("Expected unlisted categories to default to enabled")
	}

	Client("dropped")
	UI("kept")
	CloseAll()

	date := time.Now().Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(tempDir, ".wafdeck", "logs", date+"_client.log")); !os.IsNotExist(err) {
		t.Error("Expected no client log file")
	}
	if _, err := os.Stat(filepath.Join(tempDir, ".wafdeck", "logs", date+"_ui.log")); err != nil {
		t.Errorf("Expected ui log file: %v", err)
	}
}

// TestLogLevelFiltering tests that the configured level suppresses lower
// levels
func TestLogLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: warn
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	l := Get(CategoryReconcile)
	l.Debug("debug dropped")
	l.Info("info dropped")
	l.Warn("warn kept")
	l.Error("error kept")
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(tempDir, ".wafdeck", "logs", date+"_reconcile.log"))
	if err != nil {
		t.Fatalf("Expected reconcile log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Error("Expected debug/info lines to be filtered at warn level")
	}
	if !strings.Contains(out, "warn kept") || !strings.Contains(out, "error kept") {
		t.Error("Expected warn and error lines to be written")
	}
}

// TestTimerLogsDuration tests the timing helper
func TestTimerLogsDuration(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	timer := StartTimer(CategoryClient, "POST /alerts")
	elapsed := timer.Stop()
	if elapsed < 0 {
		t.Error("Expected a non-negative duration")
	}
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(tempDir, ".wafdeck", "logs", date+"_client.log"))
	if err != nil {
		t.Fatalf("Expected client log file: %v", err)
	}
	if !strings.Contains(string(data), "POST /alerts completed in") {
		t.Error("Expected the timer line to be logged")
	}
}
