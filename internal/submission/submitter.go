// Package submission glues ad-hoc operator input to the live alert feed: it
// classifies the payload via the alerting endpoint and optimistically appends
// an alert so the feed reflects every submission immediately, flagged or not.
package submission

import (
	"context"
	"errors"
	"strings"

	"wafdeck/internal/logging"
	"wafdeck/internal/wafclient"
)

// ErrEmptyInput rejects empty or whitespace-only submissions before any
// network call is made.
var ErrEmptyInput = errors.New("submission: input is empty")

// User-facing status lines, matching the dashboard's wording.
const (
	StatusFlagged = "Malicious! Flagged."
	StatusSafe    = "Safe."
	StatusError   = "Error submitting input"
)

// SubmitClient is the single-input alerting slice of the client.
type SubmitClient interface {
	Submit(ctx context.Context, input string) (wafclient.Submission, error)
}

// Submitter drives the ad-hoc submission flow. appendAlert is the optimistic
// hook into the live state synchronizer.
type Submitter struct {
	client      SubmitClient
	appendAlert func(wafclient.Alert)
}

// New creates a submitter. appendAlert must be non-nil.
func New(client SubmitClient, appendAlert func(wafclient.Alert)) *Submitter {
	return &Submitter{client: client, appendAlert: appendAlert}
}

// Submit classifies raw operator input. It returns the status line to show
// the user; the alert feed is updated as a side effect on every successful
// classification, benign verdicts included.
func (s *Submitter) Submit(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyInput
	}

	sub, err := s.client.Submit(ctx, raw)
	if err != nil {
		logging.ReconcileError("ad-hoc submission failed: %v", err)
		return StatusError, err
	}

	alert := sub.Alert
	if alert == nil {
		// The service embeds an alert only for flagged input; synthesize one
		// so the feed still shows the submission.
		level := wafclient.LevelLow
		if sub.Flagged {
			level = wafclient.LevelCritical
		}
		alert = &wafclient.Alert{Level: level, Text: raw, TS: "just now"}
	}
	s.appendAlert(*alert)

	if sub.Flagged {
		return StatusFlagged, nil
	}
	return StatusSafe, nil
}
