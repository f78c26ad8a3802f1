// Package cli implements the threatmap command-line interface.
//
// This package provides commands for analyzing Terraform repositories
// attached to a threat model, publishing the results back to the TM server
// as notes and data flow diagrams, and managing authentication and the
// local cache. The CLI is built using cobra and supports verbose logging
// via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - analyze: Clone, analyze, and report on a threat model's repositories
//   - auth: Log in to the TM server, inspect or clear the session
//   - repos: List the repositories attached to a threat model
//   - config: Show the effective configuration
//   - cache: Manage the local analysis cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --quiet (-q) to suppress everything below warnings. Loggers are passed
// through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/threatmap/threatmap/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger builds a leveled logger writing to w. Timestamps use a short
// "15:04:05.00" clock; analysis runs are minutes long at most, so the date
// would be noise.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress remembers when a step began so its completion line can carry the
// elapsed time, e.g. "Analyzed infra-live (12.4s)". One goroutine per
// tracker; done is not synchronized.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress starts the clock for one step.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, rounded to milliseconds.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// loggerKey carries the command logger through context. A private struct
// type cannot collide with keys from other packages.
type loggerKey struct{}

// withLogger attaches l to ctx for retrieval with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default()
// when none is set, so commands always have a usable logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
