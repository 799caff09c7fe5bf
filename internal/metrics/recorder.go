// Package metrics exposes site build metrics. Components take a Recorder;
// NoopRecorder is the default when metrics are not served.
package metrics

import "time"

// Outcome labels a finished build.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Recorder receives build observations.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome Outcome)
	SetPosts(n int)
}

// NoopRecorder drops every observation.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(Outcome)            {}
func (NoopRecorder) SetPosts(int)                       {}
