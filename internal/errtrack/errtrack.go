// Package errtrack reports fatal run errors to Sentry when a DSN is configured.
package errtrack

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/bazarr-bulk/bb/internal/config"
)

// Options configures a Tracker.
type Options struct {
	DSN         string
	Environment string
	Release     string
	RunID       string
	// BeforeSend may inspect or drop events before they leave the process.
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

// Tracker sends errors to Sentry. The zero value and nil are disabled trackers.
type Tracker struct {
	hub *sentry.Hub
}

// New creates a Tracker. An empty DSN returns a disabled tracker and no error.
func New(opts Options) (*Tracker, error) {
	if opts.DSN == "" {
		return &Tracker{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		AttachStacktrace: true,
		BeforeSend:       opts.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}

	scope := sentry.NewScope()
	if opts.RunID != "" {
		scope.SetTag("run_id", opts.RunID)
	}
	return &Tracker{hub: sentry.NewHub(client, scope)}, nil
}

// FromConfig builds a Tracker from the sentry section of the configuration.
func FromConfig(cfg *config.Config, runID string) (*Tracker, error) {
	return New(Options{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     config.AppName + "@" + config.Version,
		RunID:       runID,
	})
}

// Enabled reports whether errors are actually sent.
func (t *Tracker) Enabled() bool {
	return t != nil && t.hub != nil
}

// Capture sends err with the given tags.
func (t *Tracker) Capture(err error, tags map[string]string) {
	if !t.Enabled() || err == nil {
		return
	}
	t.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		t.hub.CaptureException(err)
	})
}

// Flush waits up to timeout for queued events to be delivered.
func (t *Tracker) Flush(timeout time.Duration) {
	if !t.Enabled() {
		return
	}
	if !t.hub.Flush(timeout) {
		logger := config.GetLogger()
		logger.Warn().Dur("timeout", timeout).Msg("Timed out flushing error reports")
	}
}
