package metrics

import "time"

// Outcome labels a refresh or action result.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Recorder receives observations from the sync engine. Implementations must
// be safe for concurrent use.
type Recorder interface {
	ObserveOperation(operation string, d time.Duration, outcome Outcome)
	IncRequest(endpoint string, success bool)
	IncAction(action string, success bool)
	SetCollectionSize(collection string, n int)
	SetActionBacklog(n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveOperation(string, time.Duration, Outcome) {}
func (NoopRecorder) IncRequest(string, bool)                         {}
func (NoopRecorder) IncAction(string, bool)                          {}
func (NoopRecorder) SetCollectionSize(string, int)                   {}
func (NoopRecorder) SetActionBacklog(int)                            {}
