package livestate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wafdeck/internal/wafclient"
)

// stubBackend serves canned snapshot payloads; any endpoint can be failed.
type stubBackend struct {
	mu         sync.Mutex
	alerts     []wafclient.Alert
	metrics    wafclient.Metrics
	ingestion  wafclient.Ingestion
	model      wafclient.ModelInfo
	failAlerts bool
	failMetric bool
	failIngest bool
	failModel  bool
}

func (b *stubBackend) Alerts(context.Context) ([]wafclient.Alert, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAlerts {
		return nil, errors.New("alerts endpoint down")
	}
	return b.alerts, nil
}

func (b *stubBackend) Metrics(context.Context) (wafclient.Metrics, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failMetric {
		return wafclient.Metrics{}, errors.New("metrics endpoint down")
	}
	return b.metrics, nil
}

func (b *stubBackend) Ingestion(context.Context) (wafclient.Ingestion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failIngest {
		return wafclient.Ingestion{}, errors.New("ingestion endpoint down")
	}
	return b.ingestion, nil
}

func (b *stubBackend) Model(context.Context) (wafclient.ModelInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failModel {
		return wafclient.ModelInfo{}, errors.New("model endpoint down")
	}
	return b.model, nil
}

func (b *stubBackend) set(fn func(*stubBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func seedBackend() *stubBackend {
	return &stubBackend{
		alerts: []wafclient.Alert{
			{Level: wafclient.LevelCritical, Text: "SQL Injection - /products?id=1 OR 1=1", TS: "just now"},
			{Level: wafclient.LevelHigh, Text: "XSS Attempt - <script>alert(1)</script>", TS: "15s ago"},
		},
		metrics:   wafclient.Metrics{Requests: 1200, Blocked: 9, Uptime: "14h"},
		ingestion: wafclient.Ingestion{Batch: wafclient.BatchIngestion{Status: "processed", Logs: 2000000, LastRun: "5m ago"}},
		model:     wafclient.ModelInfo{Version: "v1.3 Transformer-L", LastRetrain: "1 hour ago"},
	}
}

func TestRefresh_PopulatesAllFields(t *testing.T) {
	backend := seedBackend()
	s := New(backend)

	s.refresh(context.Background())

	snap := s.Snapshot()
	require.Len(t, snap.Alerts, 2)
	assert.Equal(t, wafclient.LevelCritical, snap.Alerts[0].Level)
	assert.Equal(t, 1200, snap.Metrics.Requests)
	assert.Equal(t, "processed", snap.Ingestion.Batch.Status)
	assert.Equal(t, "v1.3 Transformer-L", snap.Model.Version)
	assert.False(t, snap.LastRefresh.IsZero())
}

func TestRefresh_FieldLevelGranularity(t *testing.T) {
	backend := seedBackend()
	s := New(backend)
	s.refresh(context.Background())
	before := s.Snapshot()

	// Metrics endpoint fails; the other three move forward.
	backend.set(func(b *stubBackend) {
		b.failMetric = true
		b.alerts = append([]wafclient.Alert{{Level: wafclient.LevelMedium, Text: "new", TS: "just now"}}, b.alerts...)
		b.ingestion.Batch.Status = "running"
		b.model.Version = "v1.4 Transformer-L"
	})
	s.refresh(context.Background())

	snap := s.Snapshot()
	if diff := cmp.Diff(before.Metrics, snap.Metrics); diff != "" {
		t.Errorf("metrics should retain the last successful fetch (-want +got):\n%s", diff)
	}
	assert.Len(t, snap.Alerts, 3, "alerts updated despite metrics failure")
	assert.Equal(t, "running", snap.Ingestion.Batch.Status)
	assert.Equal(t, "v1.4 Transformer-L", snap.Model.Version)
}

func TestRefresh_AllEndpointsDownKeepsSnapshot(t *testing.T) {
	backend := seedBackend()
	s := New(backend)
	s.refresh(context.Background())
	before := s.Snapshot()

	backend.set(func(b *stubBackend) {
		b.failAlerts, b.failMetric, b.failIngest, b.failModel = true, true, true, true
	})
	s.refresh(context.Background())

	snap := s.Snapshot()
	if diff := cmp.Diff(before.Alerts, snap.Alerts); diff != "" {
		t.Errorf("alerts changed across a fully failed cycle (-want +got):\n%s", diff)
	}
	assert.Equal(t, before.Metrics, snap.Metrics)
	assert.Equal(t, before.Ingestion, snap.Ingestion)
	assert.Equal(t, before.Model, snap.Model)
}

func TestAppendAlert_PrependsAheadOfRefresh(t *testing.T) {
	backend := seedBackend()
	s := New(backend)
	s.refresh(context.Background())

	s.AppendAlert(wafclient.Alert{Level: wafclient.LevelCritical, Text: "test", TS: "just now"})

	snap := s.Snapshot()
	require.Len(t, snap.Alerts, 3)
	assert.Equal(t, "test", snap.Alerts[0].Text)
	assert.Equal(t, "just now", snap.Alerts[0].TS)

	// The next authoritative refresh replaces the list wholesale; the
	// optimistic entry is superseded.
	s.refresh(context.Background())
	snap = s.Snapshot()
	require.Len(t, snap.Alerts, 2)
	assert.NotEqual(t, "test", snap.Alerts[0].Text)
}

func TestStartStop_NoLeakedPollers(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := seedBackend()
	s := New(backend, WithInterval(10*time.Millisecond))

	s.Start(context.Background())
	// Second Start is a no-op, not a second poller.
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(s.Snapshot().Alerts) == 2
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
}

func TestStop_LateCompletionsAreDiscarded(t *testing.T) {
	backend := seedBackend()
	s := New(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A refresh completing after teardown must not write into the snapshot.
	s.refresh(ctx)
	snap := s.Snapshot()
	assert.Empty(t, snap.Alerts)
	assert.True(t, snap.LastRefresh.IsZero())
}

func TestSnapshot_ReturnsACopy(t *testing.T) {
	backend := seedBackend()
	s := New(backend)
	s.refresh(context.Background())

	snap := s.Snapshot()
	snap.Alerts[0].Text = "mutated by reader"

	assert.NotEqual(t, "mutated by reader", s.Snapshot().Alerts[0].Text)
}
