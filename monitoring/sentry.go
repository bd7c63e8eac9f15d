package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter forwards unexpected failures to an error tracker.
type Reporter interface {
	Report(err error, tags map[string]string)
}

// NopReporter drops everything; used when no DSN is configured.
type NopReporter struct{}

func (NopReporter) Report(error, map[string]string) {}

type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter initialises the sentry client. An empty dsn yields a
// NopReporter.
func NewSentryReporter(dsn, environment string) (Reporter, error) {
	if dsn == "" {
		return NopReporter{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init sentry: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *SentryReporter) Report(err error, tags map[string]string) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
