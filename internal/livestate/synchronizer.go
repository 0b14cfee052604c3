// Package livestate maintains the always-current operational snapshot of the
// detection service: alert feed, counters, ingestion pipeline and model info.
// An explicit long-lived poll task refreshes the snapshot on a fixed interval;
// locally-originated submissions are prepended optimistically ahead of the
// next authoritative refresh.
package livestate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wafdeck/internal/logging"
	"wafdeck/internal/wafclient"
)

// DefaultInterval matches the original dashboard's 5-second refresh.
const DefaultInterval = 5 * time.Second

// Backend is the snapshot-read slice of the client.
type Backend interface {
	Alerts(ctx context.Context) ([]wafclient.Alert, error)
	Metrics(ctx context.Context) (wafclient.Metrics, error)
	Ingestion(ctx context.Context) (wafclient.Ingestion, error)
	Model(ctx context.Context) (wafclient.ModelInfo, error)
}

// Snapshot is the latest known operational state. Each field carries whatever
// its own endpoint last returned successfully; there is no refresh-cycle
// atomicity across fields.
type Snapshot struct {
	Alerts      []wafclient.Alert
	Metrics     wafclient.Metrics
	Ingestion   wafclient.Ingestion
	Model       wafclient.ModelInfo
	LastRefresh time.Time
}

// Synchronizer owns the snapshot and the poll task. All mutation goes through
// its own operations; readers get copies.
type Synchronizer struct {
	mu       sync.Mutex
	backend  Backend
	interval time.Duration
	snap     Snapshot

	cancel  context.CancelFunc
	doneCh  chan struct{}
	running bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithInterval overrides the default poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.interval = d
	}
}

// New creates a synchronizer polling the given backend.
func New(backend Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		backend:  backend,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the poll task: one immediate refresh, then one per interval.
// Non-blocking. The task runs until Stop or ctx cancellation.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	logging.Livestate("poll task started, interval %v", s.interval)
	go s.run(ctx)
}

// Stop cancels the poll task and waits for it to exit. The ticker never
// outlives the synchronizer. Idempotent.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.doneCh
	s.mu.Unlock()

	cancel()
	<-done
	logging.Livestate("poll task stopped")
}

func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh issues the four snapshot reads in parallel. Each field updates
// independently on its own request's outcome; a failed read keeps the
// previous value and is logged, never surfaced to the user.
func (s *Synchronizer) refresh(ctx context.Context) {
	// The group context is for the requests only; writes check the outer ctx,
	// which Wait does not cancel.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		alerts, err := s.backend.Alerts(gctx)
		if err != nil {
			logging.LivestateWarn("alerts refresh failed: %v", err)
			return nil
		}
		s.store(ctx, func(snap *Snapshot) { snap.Alerts = alerts })
		return nil
	})
	g.Go(func() error {
		metrics, err := s.backend.Metrics(gctx)
		if err != nil {
			logging.LivestateWarn("metrics refresh failed: %v", err)
			return nil
		}
		s.store(ctx, func(snap *Snapshot) { snap.Metrics = metrics })
		return nil
	})
	g.Go(func() error {
		ing, err := s.backend.Ingestion(gctx)
		if err != nil {
			logging.LivestateWarn("ingestion refresh failed: %v", err)
			return nil
		}
		s.store(ctx, func(snap *Snapshot) { snap.Ingestion = ing })
		return nil
	})
	g.Go(func() error {
		model, err := s.backend.Model(gctx)
		if err != nil {
			logging.LivestateWarn("model refresh failed: %v", err)
			return nil
		}
		s.store(ctx, func(snap *Snapshot) { snap.Model = model })
		return nil
	})

	_ = g.Wait()

	s.store(ctx, func(snap *Snapshot) { snap.LastRefresh = time.Now() })
	logging.LivestateDebug("refresh cycle complete")
}

// store applies a snapshot mutation unless the synchronizer has been torn
// down: a response landing after Stop must never write into disposed state.
func (s *Synchronizer) store(ctx context.Context, mutate func(*Snapshot)) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.snap)
}

// AppendAlert prepends a locally-originated alert ahead of the next
// authoritative refresh. The entry has no stable identity: if the backend's
// next fetch already contains an equivalent record it may show up twice,
// which is accepted - the feed favors immediacy over de-duplication.
func (s *Synchronizer) AppendAlert(alert wafclient.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Alerts = append([]wafclient.Alert{alert}, s.snap.Alerts...)
	logging.Livestate("optimistic alert appended: %s %q", alert.Level, alert.Text)
}

// Snapshot returns a copy of the current operational state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Alerts = make([]wafclient.Alert, len(s.snap.Alerts))
	copy(snap.Alerts, s.snap.Alerts)
	return snap
}
