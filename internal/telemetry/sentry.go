// Package telemetry wires optional error reporting to Sentry.
package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter sends errors to Sentry when enabled. The zero value is a disabled reporter.
type Reporter struct {
	enabled bool
}

// Init configures Sentry with dsn. An empty dsn returns a disabled reporter.
func Init(dsn, release string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return &Reporter{}, err
	}
	return &Reporter{enabled: true}, nil
}

// Enabled reports whether errors are forwarded.
func (r *Reporter) Enabled() bool { return r != nil && r.enabled }

// Capture reports err tagged with the command that produced it.
func (r *Reporter) Capture(command string, err error) {
	if !r.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("command", command)
		sentry.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	sentry.Flush(timeout)
}
