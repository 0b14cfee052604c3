// Package reconcile drives regression runs against the detection service and
// merges the returned verdicts with the fixture catalog's expected outcomes.
// The engine owns the ordered result log; match status is derived at read
// time, never stored, so a catalog reload cannot desynchronize old results.
package reconcile

import (
	"context"
	"errors"
	"sync"

	"wafdeck/internal/fixtures"
	"wafdeck/internal/logging"
	"wafdeck/internal/wafclient"
)

// Classifier is the slice of the client the engine needs. The engine never
// retries; a failed call is reported once and the run ends.
type Classifier interface {
	ClassifyOne(ctx context.Context, input string) (wafclient.Verdict, error)
	ClassifyBatch(ctx context.Context, inputs []string) ([]wafclient.Verdict, error)
}

// User-facing terminal messages, matching the dashboard's wording.
const (
	msgSingleFailed = "Error running test."
	msgBatchFailed  = "Batch test failed."
	msgNoResults    = "No results from server."
)

// record is one stored log entry. Only the verdict and its correlation key
// are kept; the expectation is looked up fresh on every read.
type record struct {
	// lookupKey is the string matched against the catalog: the original
	// fixture input for single runs, the verdict's own echoed input for
	// batch runs.
	lookupKey string
	verdict   wafclient.Verdict
}

// Result is a reconciled log entry as seen by readers. Expected is nil when
// the verdict's input matches no fixture case; such results are neither a
// pass nor a fail.
type Result struct {
	Verdict  wafclient.Verdict
	Expected *fixtures.Expectation
	Matches  bool // meaningful only when Expected != nil
}

// Summary is the aggregate score over results that have an expectation.
type Summary struct {
	Passed int
	Total  int
}

// Engine orchestrates single and batch regression runs. It serializes nothing
// itself: overlapping user-triggered runs are excluded at the UI layer (the
// trigger is disabled while a run is active). The mutex exists only because
// runs complete on other goroutines than the readers.
type Engine struct {
	mu         sync.Mutex
	classifier Classifier
	catalog    func() *fixtures.Catalog
	log        []record
	active     string
	batchBusy  bool
	message    string
}

// New creates an engine. catalog is called on every lookup so a hot-reloaded
// fixture set takes effect immediately.
func New(classifier Classifier, catalog func() *fixtures.Catalog) *Engine {
	return &Engine{classifier: classifier, catalog: catalog}
}

// RunSingle classifies one fixture input and prepends the reconciled result
// to the log. On failure the log is left untouched and a terminal message is
// surfaced; the failure is reported, not retried.
func (e *Engine) RunSingle(ctx context.Context, input string) error {
	e.mu.Lock()
	e.active = input
	e.message = ""
	e.mu.Unlock()

	verdict, err := e.classifier.ClassifyOne(ctx, input)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = ""

	if err != nil {
		logging.ReconcileError("single run %q failed: %v", input, err)
		e.message = msgSingleFailed
		return err
	}

	// Correlate by the original sample input, not the echoed one: a service
	// that rewrites the input must not detach the result from its case.
	e.log = append([]record{{lookupKey: input, verdict: verdict}}, e.log...)
	logging.Reconcile("single run %q: flagged=%v", input, verdict.Flagged)
	return nil
}

// RunAll replaces the whole log with a fresh batch run. The log is cleared
// before the request goes out: a partially-completed prior log must never mix
// with new batch output, so a failed batch leaves the log empty.
func (e *Engine) RunAll(ctx context.Context) error {
	e.mu.Lock()
	e.log = nil
	e.message = ""
	e.batchBusy = true
	inputs := e.catalog().Flatten()
	e.mu.Unlock()

	verdicts, err := e.classifier.ClassifyBatch(ctx, inputs)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchBusy = false

	if err != nil {
		if errors.Is(err, wafclient.ErrMissingResults) {
			e.message = msgNoResults
		} else {
			e.message = msgBatchFailed
		}
		logging.ReconcileError("batch run failed: %v", err)
		return err
	}

	// Correlation key is the verdict's own echoed input. Results the fixture
	// set does not know are stored anyway; they just carry no expectation.
	recs := make([]record, 0, len(verdicts))
	for _, v := range verdicts {
		recs = append(recs, record{lookupKey: v.Input, verdict: v})
	}
	e.log = recs
	logging.Reconcile("batch run: %d inputs, %d verdicts", len(inputs), len(verdicts))
	return nil
}

// Clear empties the result log and the terminal message. Idempotent.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = nil
	e.message = ""
}

// Results returns the reconciled log, most significant ordering preserved:
// most-recent-first for single runs, service order for batch runs. The
// expectation and match status are computed against the current catalog.
func (e *Engine) Results() []Result {
	e.mu.Lock()
	recs := make([]record, len(e.log))
	copy(recs, e.log)
	e.mu.Unlock()

	catalog := e.catalog()
	results := make([]Result, 0, len(recs))
	for _, rec := range recs {
		res := Result{Verdict: rec.verdict}
		if exp, ok := catalog.Lookup(rec.lookupKey); ok {
			expCopy := exp
			res.Expected = &expCopy
			res.Matches = rec.verdict.Flagged == exp.Flagged
		}
		results = append(results, res)
	}
	return results
}

// Summary computes the aggregate pass/fail score. Results without an
// expectation are excluded from both counts, so Passed <= Total <= len(log).
func (e *Engine) Summary() Summary {
	var s Summary
	for _, res := range e.Results() {
		if res.Expected == nil {
			continue
		}
		s.Total++
		if res.Matches {
			s.Passed++
		}
	}
	return s
}

// ActiveInput returns the input of an in-flight single run, or "" when idle.
// The UI uses this both to highlight the case and to disable the trigger.
func (e *Engine) ActiveInput() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// BatchRunning reports whether a batch run is in flight.
func (e *Engine) BatchRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batchBusy
}

// Message returns the current terminal message, or "" when there is none.
func (e *Engine) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}
