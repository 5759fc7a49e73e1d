// Package monitor provides stage timing for pipeline runs.
package monitor

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures one labelled pipeline stage.
type Timer struct {
	label string
	start time.Time
	log   zerolog.Logger
}

// Start begins timing a stage.
func Start(label string, log zerolog.Logger) *Timer {
	return &Timer{label: label, start: time.Now(), log: log}
}

// Stop logs and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.log.Info().Str("stage", t.label).Dur("elapsed", elapsed).Msg("stage finished")
	return elapsed
}

// Timed runs fn and returns its elapsed duration.
func Timed(label string, log zerolog.Logger, fn func()) time.Duration {
	t := Start(label, log)
	fn()
	return t.Stop()
}
